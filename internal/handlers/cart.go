package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/grocer/internal/services"
)

// CartHandler exposes the caller's cart.
type CartHandler struct {
	carts *services.CartService
}

// NewCartHandler constructs a CartHandler.
func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addToCartRequest struct {
	ProductID       string `json:"productId" validate:"required,uuid"`
	SelectedVariant struct {
		Unit string `json:"unit" validate:"required"`
	} `json:"selectedVariant"`
	Quantity int `json:"quantity" validate:"gt=0"`
}

type updateCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Unit      string `json:"unit" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type removeCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Unit      string `json:"unit" validate:"required"`
}

// GetCart returns the caller's cart, empty if none exists yet.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.Get(c.UserContext(), ident.ID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, cart)
}

// AddToCart adds a product variant to the cart.
func (h *CartHandler) AddToCart(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.AddItem(c.UserContext(), ident.ID, services.AddItemInput{
		ProductID: uuid.MustParse(req.ProductID),
		Unit:      req.SelectedVariant.Unit,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, cart)
}

// UpdateCartItem sets the quantity of one line. Zero removes it.
func (h *CartHandler) UpdateCartItem(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateCartRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.UpdateQuantity(c.UserContext(), ident.ID, uuid.MustParse(req.ProductID), req.Unit, req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, cart)
}

// RemoveCartItem drops one line from the cart.
func (h *CartHandler) RemoveCartItem(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var req removeCartItemRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	cart, err := h.carts.RemoveItem(c.UserContext(), ident.ID, uuid.MustParse(req.ProductID), req.Unit)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, cart)
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.carts.Clear(c.UserContext(), ident.ID); err != nil {
		return err
	}
	return respondMessage(c, "cart cleared", nil)
}
