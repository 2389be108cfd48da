package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order fulfilment statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment statuses.
const (
	PaymentPending  = "Pending"
	PaymentPaid     = "Paid"
	PaymentFailed   = "Failed"
	PaymentRefunded = "Refunded"
)

// DefaultPaymentMethod is cash on delivery.
const DefaultPaymentMethod = "COD"

// OrderStatuses lists the accepted fulfilment statuses.
var OrderStatuses = []string{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled}

// PaymentStatuses lists the accepted payment statuses.
var PaymentStatuses = []string{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}

// ShippingAddress is the address copied onto an order at checkout.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type Order struct {
	BaseModel
	UserID          uuid.UUID       `gorm:"type:uuid;index" json:"user"`
	User            *User           `json:"-"`
	OrderNumber     string          `gorm:"uniqueIndex" json:"orderNumber"`
	Status          string          `gorm:"index" json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentStatus   string          `json:"paymentStatus"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(12,2)" json:"discountAmount"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2)" json:"totalAmount"`
	DiscountCode    string          `json:"discountCode,omitempty"`
	OfferID         *uuid.UUID      `gorm:"type:uuid" json:"offer,omitempty"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shippingAddress"`
	PlacedAt        time.Time       `json:"placedAt"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is an immutable copy of a cart line.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"-"`
	ProductID   uuid.UUID       `gorm:"type:uuid" json:"product"`
	ProductName string          `json:"productName"`
	Unit        string          `json:"unit"`
	Packaging   string          `json:"packaging"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2)" json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2)" json:"lineTotal"`
}

// ValidOrderStatus reports whether s is a known fulfilment status.
func ValidOrderStatus(s string) bool {
	return slices.Contains(OrderStatuses, s)
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return slices.Contains(PaymentStatuses, s)
}
