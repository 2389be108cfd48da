package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/repository"
)

// CartStore persists one cart per user.
type CartStore interface {
	Load(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// ProductStore reads catalog products.
type ProductStore interface {
	FindWithVariants(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// SelectedVariant is the variant snapshot held by a cart line.
type SelectedVariant struct {
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	StockQty  int             `json:"stockQty"`
	Packaging string          `json:"packaging"`
}

// CartLine is a cart line joined with current product display fields.
type CartLine struct {
	ProductID       uuid.UUID       `json:"productId"`
	Name            string          `json:"name"`
	Brand           string          `json:"brand"`
	Slug            string          `json:"slug"`
	Image           string          `json:"image"`
	SelectedVariant SelectedVariant `json:"selectedVariant"`
	Quantity        int             `json:"quantity"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
}

// CartView is the cart as returned to clients.
type CartView struct {
	User      uuid.UUID       `json:"user"`
	Items     []CartLine      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

// AddItemInput describes a line to add.
type AddItemInput struct {
	ProductID uuid.UUID
	Unit      string
	Quantity  int
}

// CartService implements the cart aggregate operations.
type CartService struct {
	carts    CartStore
	products ProductStore
}

// NewCartService constructs a CartService.
func NewCartService(carts CartStore, products ProductStore) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the user's cart. A user without a cart gets an empty view.
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.carts.Load(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &CartView{User: userID, Items: []CartLine{}, Subtotal: decimal.Zero}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return s.view(ctx, cart)
}

// AddItem adds quantity of the product variant identified by unit, merging
// with an existing (product, unit) line.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, in AddItemInput) (*CartView, error) {
	if in.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.FindWithVariants(ctx, in.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load product")
	}

	variant, ok := product.VariantByUnit(in.Unit)
	if !ok {
		return nil, ErrVariantNotFound
	}

	cart, err := s.carts.Load(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cart = models.NewCart(userID)
	case err != nil:
		return nil, errors.Wrap(err, "load cart")
	}

	cart.AddLine(product.ID, *variant, in.Quantity)
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, unit string, quantity int) (*CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.SetQuantity(productID, unit, quantity) {
		return nil, ErrCartItemNotFound
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// RemoveItem drops a line. Removing a line that is not in the cart leaves
// the cart unchanged.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID, unit string) (*CartView, error) {
	cart, err := s.carts.Load(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return &CartView{User: userID, Items: []CartLine{}, Subtotal: decimal.Zero}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}

	if cart.RemoveLine(productID, unit) {
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, cart)
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.Load(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) error {
	err := s.carts.Save(ctx, cart)
	switch {
	case errors.Is(err, repository.ErrStaleCart):
		return ErrCartConflict
	case err != nil:
		return errors.Wrap(err, "save cart")
	}
	return nil
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load cart products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	updated := cart.UpdatedAt
	out := &CartView{
		User:      cart.UserID,
		Items:     make([]CartLine, 0, len(cart.Items)),
		Subtotal:  cart.Subtotal(),
		UpdatedAt: &updated,
	}
	for _, item := range cart.Items {
		line := CartLine{
			ProductID: item.ProductID,
			SelectedVariant: SelectedVariant{
				Unit:      item.Unit,
				Price:     item.Price,
				StockQty:  item.StockQty,
				Packaging: item.Packaging,
			},
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		}
		if p, ok := byID[item.ProductID]; ok {
			line.Name = p.Name
			line.Brand = p.Brand
			line.Slug = p.Slug
			line.Image = p.FirstImage()
		}
		out.Items = append(out.Items, line)
	}
	return out, nil
}
