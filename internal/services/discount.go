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

var hundred = decimal.NewFromInt(100)

// OfferStore reads offers and records redemptions.
type OfferStore interface {
	FindByCode(ctx context.Context, code string) (*models.Offer, error)
	IncrementUsage(ctx context.Context, id uuid.UUID, withinLimit bool) error
}

// Discount is the outcome of applying an offer to a subtotal.
type Discount struct {
	Offer    *models.Offer
	Subtotal decimal.Decimal
	Amount   decimal.Decimal
	Final    decimal.Decimal
}

// ComputeDiscount returns subtotal * percentage / 100, clamped to the
// offer's cap and to the subtotal, and the amount left to pay. Negative
// subtotals are treated as zero.
func ComputeDiscount(offer *models.Offer, subtotal decimal.Decimal) (amount, final decimal.Decimal) {
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}

	amount = subtotal.Mul(offer.DiscountPercentage).Div(hundred)
	if offer.MaxDiscountAmount.Valid && amount.GreaterThan(offer.MaxDiscountAmount.Decimal) {
		amount = offer.MaxDiscountAmount.Decimal
	}
	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	amount = amount.Round(2)

	return amount, subtotal.Sub(amount).Round(2)
}

// DiscountOption configures a DiscountService.
type DiscountOption func(*DiscountService)

// WithClock overrides the time source used to check validity windows.
func WithClock(now func() time.Time) DiscountOption {
	return func(s *DiscountService) { s.now = now }
}

// WithUsageLimit makes offers with a positive MaxUsageCount unusable once
// UsageCount reaches it.
func WithUsageLimit(enforce bool) DiscountOption {
	return func(s *DiscountService) { s.enforceUsageLimit = enforce }
}

// DiscountService evaluates promo codes.
type DiscountService struct {
	offers            OfferStore
	now               func() time.Time
	enforceUsageLimit bool
}

// NewDiscountService constructs a DiscountService.
func NewDiscountService(offers OfferStore, opts ...DiscountOption) *DiscountService {
	s := &DiscountService{offers: offers, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the redeemable offer for code.
func (s *DiscountService) Lookup(ctx context.Context, code string) (*models.Offer, error) {
	return s.lookupAt(ctx, code, s.now())
}

func (s *DiscountService) lookupAt(ctx context.Context, code string, now time.Time) (*models.Offer, error) {
	code = models.NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidOffer
	}

	offer, err := s.offers.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidOffer
	}
	if err != nil {
		return nil, errors.Wrap(err, "find offer")
	}

	if !offer.ActiveAt(now) {
		return nil, ErrInvalidOffer
	}
	if s.enforceUsageLimit && offer.MaxUsageCount > 0 && offer.UsageCount >= offer.MaxUsageCount {
		return nil, ErrOfferUsageLimitReached
	}
	return offer, nil
}

// Apply evaluates code against subtotal. The clock is read once.
func (s *DiscountService) Apply(ctx context.Context, code string, subtotal decimal.Decimal) (*Discount, error) {
	offer, err := s.lookupAt(ctx, code, s.now())
	if err != nil {
		return nil, err
	}

	amount, final := ComputeDiscount(offer, subtotal)
	return &Discount{
		Offer:    offer,
		Subtotal: subtotal,
		Amount:   amount,
		Final:    final,
	}, nil
}

// Redeem records one use of the offer. When the usage limit is enforced
// the counter never passes MaxUsageCount, even under concurrent checkouts.
func (s *DiscountService) Redeem(ctx context.Context, offerID uuid.UUID) error {
	err := s.offers.IncrementUsage(ctx, offerID, s.enforceUsageLimit)
	switch {
	case errors.Is(err, repository.ErrUsageLimit):
		return ErrOfferUsageLimitReached
	case errors.Is(err, repository.ErrNotFound):
		return ErrInvalidOffer
	case err != nil:
		return errors.Wrap(err, "increment offer usage")
	}
	return nil
}
