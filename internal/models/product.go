package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// DefaultBrand is used when a product is created without a brand.
const DefaultBrand = "Unbranded"

type Product struct {
	BaseModel
	Name           string           `json:"name"`
	Slug           string           `gorm:"uniqueIndex" json:"slug"`
	ProductCode    string           `json:"productCode"`
	CategoryID     *uuid.UUID       `gorm:"type:uuid;index" json:"category"`
	Category       *Category        `json:"categoryDetails,omitempty"`
	SubCategoryID  *uuid.UUID       `gorm:"type:uuid;index" json:"subCategory"`
	Brand          string           `json:"brand"`
	Description    string           `json:"description"`
	Variants       []ProductVariant `gorm:"constraint:OnDelete:CASCADE" json:"variants"`
	ActiveVariant  string           `json:"activeVariant"`
	Tags           pq.StringArray   `gorm:"type:text[]" json:"tags"`
	Images         pq.StringArray   `gorm:"type:text[]" json:"images"`
	Discount       decimal.Decimal  `gorm:"type:numeric(12,2);default:0" json:"discount"`
	Rating         float64          `json:"rating"`
	ReviewCount    int              `json:"reviewCount"`
	BestBeforeDays int              `json:"bestBeforeDays"`
	IsAvailable    bool             `json:"isAvailable"`
	IsFeatured     bool             `json:"isFeatured"`
}

// FirstImage returns the cover image or an empty string.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// VariantByUnit finds the variant sold under the given unit label.
func (p *Product) VariantByUnit(unit string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if SameUnit(p.Variants[i].Unit, unit) {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

type ProductVariant struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;index" json:"productId"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	StockQty  int             `json:"stockQty"`
	Packaging string          `json:"packaging"`
}

// SameUnit compares unit labels ignoring case and surrounding spaces.
func SameUnit(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
