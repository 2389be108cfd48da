package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single shopping cart owned by a user.
type Cart struct {
	BaseModel
	UserID  uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"user"`
	Version int        `gorm:"not null;default:0" json:"-"`
	Items   []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// CartItem is one line of a cart. Unit, Price, StockQty and Packaging are a
// snapshot of the variant taken when the line was added.
type CartItem struct {
	BaseModel
	CartID    uuid.UUID       `gorm:"type:uuid;index" json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;index" json:"product"`
	Product   *Product        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	StockQty  int             `json:"stockQty"`
	Packaging string          `json:"packaging"`
	Quantity  int             `json:"quantity"`
}

// NewCart returns an empty cart for the user.
func NewCart(userID uuid.UUID) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// AddLine increments the quantity of the (product, unit) line or appends a
// new line holding a snapshot of the variant.
func (c *Cart) AddLine(productID uuid.UUID, variant ProductVariant, quantity int) {
	if i := c.lineIndex(productID, variant.Unit); i >= 0 {
		c.Items[i].Quantity += quantity
		c.touch()
		return
	}
	c.Items = append(c.Items, CartItem{
		ProductID: productID,
		Unit:      variant.Unit,
		Price:     variant.Price,
		StockQty:  variant.StockQty,
		Packaging: variant.Packaging,
		Quantity:  quantity,
	})
	c.touch()
}

// SetQuantity sets the line quantity, dropping the line when quantity <= 0.
// It reports false when no matching line exists.
func (c *Cart) SetQuantity(productID uuid.UUID, unit string, quantity int) bool {
	i := c.lineIndex(productID, unit)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
	}
	c.touch()
	return true
}

// RemoveLine drops the matching line. Removing a missing line is a no-op
// and reports false.
func (c *Cart) RemoveLine(productID uuid.UUID, unit string) bool {
	i := c.lineIndex(productID, unit)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return true
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.touch()
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal is the sum of price * quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// LineTotal is price * quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) lineIndex(productID uuid.UUID, unit string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && SameUnit(item.Unit, unit) {
			return i
		}
	}
	return -1
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}
