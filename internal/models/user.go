package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognised by the admin guard.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered shopper or administrator.
type User struct {
	BaseModel
	UserName             string        `gorm:"index" json:"userName"`
	FirstName            string        `json:"firstName"`
	LastName             string        `json:"lastName"`
	Email                *string       `gorm:"uniqueIndex" json:"email"`
	PhoneNumber          *string       `gorm:"uniqueIndex" json:"phoneNumber"`
	PasswordHash         string        `json:"-"`
	Gender               string        `json:"gender"`
	RoleType             string        `gorm:"default:customer" json:"roleType"`
	IsVerified           bool          `json:"isVerified"`
	Avatar               string        `json:"avatar"`
	ResetPasswordToken   string        `gorm:"index" json:"-"`
	ResetPasswordExpires *time.Time    `json:"-"`
	Addresses            []UserAddress `json:"addresses,omitempty"`
}

// IsAdmin reports whether the user may use admin routes.
func (u *User) IsAdmin() bool {
	return u.RoleType == RoleAdmin
}

// EmailValue returns the email or an empty string.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// UserAddress is an entry in a user's address book.
type UserAddress struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	Label      string    `json:"label"`
	FullName   string    `json:"fullName"`
	Phone      string    `json:"phone"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postalCode"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
}

// Snapshot copies the address into the shape stored on orders.
func (a *UserAddress) Snapshot() ShippingAddress {
	return ShippingAddress{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
