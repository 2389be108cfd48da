package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Offer statuses.
const (
	OfferActive   = "Active"
	OfferInactive = "Inactive"
)

// DefaultMaxUsageCount is applied to offers created without a limit.
const DefaultMaxUsageCount = 40

// Offer is a percentage discount, either redeemed by promo code or applied
// automatically.
type Offer struct {
	BaseModel
	Name               string              `json:"name"`
	Code               *string             `gorm:"uniqueIndex" json:"code"`
	DiscountPercentage decimal.Decimal     `gorm:"type:numeric(5,2)" json:"discountPercentage"`
	MaxDiscountAmount  decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"maxDiscountAmount"`
	StartDate          time.Time           `json:"startDate"`
	EndDate            time.Time           `json:"endDate"`
	Status             string              `gorm:"default:Active" json:"status"`
	ApplyAutomatically bool                `json:"applyAutomatically"`
	UsageCount         int                 `json:"usageCount"`
	MaxUsageCount      int                 `json:"maxUsageCount"`
}

// ActiveAt reports whether the offer is Active and now lies inside its
// validity window, bounds included.
func (o *Offer) ActiveAt(now time.Time) bool {
	return o.Status == OfferActive && !now.Before(o.StartDate) && !now.After(o.EndDate)
}

// NormalizeCode trims and upper-cases a promo code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
