package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/repository"
)

const observerTimeout = 10 * time.Second

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderObserver is told about every committed order.
type OrderObserver interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
}

// PlaceOrderInput holds checkout details supplied by the client.
type PlaceOrderInput struct {
	UserID          uuid.UUID
	Code            string
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	PaymentStatus   string
}

// OrderOption configures an OrderService.
type OrderOption func(*OrderService)

// WithObservers registers observers notified after commit.
func WithObservers(observers ...OrderObserver) OrderOption {
	return func(s *OrderService) { s.observers = append(s.observers, observers...) }
}

// WithDetachedCartStore clears the cart after the order transaction commits,
// for cart stores that cannot take part in it.
func WithDetachedCartStore() OrderOption {
	return func(s *OrderService) { s.detachedCarts = true }
}

// WithOrderClock overrides the time source used for PlacedAt.
func WithOrderClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// OrderService turns carts into orders.
type OrderService struct {
	tx            Transactor
	carts         CartStore
	products      ProductStore
	orders        OrderStore
	discounts     *DiscountService
	observers     []OrderObserver
	detachedCarts bool
	now           func() time.Time
	lg            *zap.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(
	tx Transactor,
	carts CartStore,
	products ProductStore,
	orders OrderStore,
	discounts *DiscountService,
	lg *zap.Logger,
	opts ...OrderOption,
) *OrderService {
	s := &OrderService{
		tx:        tx,
		carts:     carts,
		products:  products,
		orders:    orders,
		discounts: discounts,
		now:       time.Now,
		lg:        lg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder converts the user's cart into an order, applies the optional
// promo code and empties the cart. Either the whole order is created or
// nothing is. A cart changed while the order was being placed fails with
// ErrCartConflict.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	cart, err := s.carts.Load(ctx, in.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartEmpty
	}
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if cart.IsEmpty() {
		return nil, ErrCartEmpty
	}

	for _, item := range cart.Items {
		if !item.Price.IsPositive() {
			return nil, &InvalidLineError{ProductID: item.ProductID, Unit: item.Unit, Reason: "price is missing"}
		}
		if item.Quantity <= 0 {
			return nil, &InvalidLineError{ProductID: item.ProductID, Unit: item.Unit, Reason: "quantity must be greater than 0"}
		}
	}

	subtotal := cart.Subtotal()
	discount := decimal.Zero
	var offer *models.Offer
	if strings.TrimSpace(in.Code) != "" {
		applied, err := s.discounts.Apply(ctx, in.Code, subtotal)
		if err != nil {
			return nil, err
		}
		discount = applied.Amount
		offer = applied.Offer
	}

	order, err := s.buildOrder(ctx, in, cart, subtotal, discount, offer)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		if offer != nil {
			if err := s.discounts.Redeem(ctx, offer.ID); err != nil {
				return err
			}
		}
		if s.detachedCarts {
			return nil
		}
		return s.emptyCart(ctx, cart)
	})
	if err != nil {
		if errors.Is(err, ErrCartConflict) {
			return nil, ErrCartConflict
		}
		return nil, errors.Wrap(err, "place order")
	}

	if s.detachedCarts {
		if err := s.emptyCart(ctx, cart); err != nil {
			s.lg.Error("Order placed but cart not cleared",
				zap.String("order_id", order.ID.String()),
				zap.String("user_id", in.UserID.String()),
				zap.Error(err),
			)
		}
	}

	s.notify(ctx, order)
	return order, nil
}

func (s *OrderService) buildOrder(
	ctx context.Context,
	in PlaceOrderInput,
	cart *models.Cart,
	subtotal, discount decimal.Decimal,
	offer *models.Offer,
) (*models.Order, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load order products")
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	now := s.now()
	order := &models.Order{
		UserID:          in.UserID,
		OrderNumber:     orderNumber(now),
		Status:          models.OrderPending,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   in.PaymentStatus,
		Subtotal:        subtotal.Round(2),
		DiscountAmount:  discount,
		TotalAmount:     subtotal.Sub(discount).Round(2),
		ShippingAddress: in.ShippingAddress,
		PlacedAt:        now,
		Items:           make([]models.OrderItem, 0, len(cart.Items)),
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.DefaultPaymentMethod
	}
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentPending
	}
	if offer != nil {
		order.OfferID = &offer.ID
		if offer.Code != nil {
			order.DiscountCode = *offer.Code
		}
	}

	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: names[item.ProductID],
			Unit:        item.Unit,
			Packaging:   item.Packaging,
			UnitPrice:   item.Price,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal(),
		})
	}
	return order, nil
}

// emptyCart saves the checked-out cart with no lines. The save only succeeds
// if the cart still has the version read at the start of checkout, so lines
// added in the meantime are never dropped.
func (s *OrderService) emptyCart(ctx context.Context, cart *models.Cart) error {
	cart.Clear()
	err := s.carts.Save(ctx, cart)
	switch {
	case errors.Is(err, repository.ErrStaleCart):
		return ErrCartConflict
	case err != nil:
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// notify hands a copy of the order to observers in the background.
func (s *OrderService) notify(ctx context.Context, order *models.Order) {
	if len(s.observers) == 0 {
		return
	}

	snapshot := *order
	snapshot.Items = append([]models.OrderItem(nil), order.Items...)
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, observerTimeout)
		defer cancel()

		for _, o := range s.observers {
			if err := o.OrderPlaced(ctx, &snapshot); err != nil {
				s.lg.Warn("Order observer failed",
					zap.String("order_id", snapshot.ID.String()),
					zap.String("observer", fmt.Sprintf("%T", o)),
					zap.Error(err),
				)
			}
		}
	}()
}

func orderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
