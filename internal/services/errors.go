package services

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrCartConflict     = errors.New("cart was modified by another request, retry")
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("selected variant is not available for this product")

	// ErrInvalidOffer covers unknown codes, inactive offers and offers
	// outside their validity window.
	ErrInvalidOffer           = errors.New("invalid or expired promo code")
	ErrOfferUsageLimitReached = errors.New("offer usage limit reached")
)

// InvalidLineError rejects an order because a cart line cannot be priced.
type InvalidLineError struct {
	ProductID uuid.UUID
	Unit      string
	Reason    string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("cart item %s (%s): %s", e.ProductID, e.Unit, e.Reason)
}
