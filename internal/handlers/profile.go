package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
)

// ProfileHandler manages the caller's profile and address book.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the authenticated user with addresses.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.db.Preload("Addresses", func(db *gorm.DB) *gorm.DB {
		return db.Order("is_default desc, created_at asc")
	}).First(&user, "id = ?", ident.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	return respond(c, fiber.StatusOK, user)
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=64"`
	LastName  *string `json:"lastName" validate:"omitempty,max=64"`
	Gender    *string `json:"gender"`
	Avatar    *string `json:"avatar" validate:"omitempty,url"`
}

// UpdateProfile updates user profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", ident.ID).Updates(updates).Error; err != nil {
		return err
	}
	return respondMessage(c, "profile updated", nil)
}

// ListAddresses returns the caller's addresses, default first.
func (h *ProfileHandler) ListAddresses(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var addresses []models.UserAddress
	if err := h.db.Where("user_id = ?", ident.ID).
		Order("is_default desc, created_at asc").
		Find(&addresses).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, addresses)
}

type addressRequest struct {
	Label      string `json:"label"`
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

// CreateAddress adds an address. The first address becomes the default.
func (h *ProfileHandler) CreateAddress(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var req addressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address := models.UserAddress{
		UserID:     ident.ID,
		Label:      req.Label,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAddress{}).Where("user_id = ?", ident.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}
		if address.IsDefault {
			if err := clearDefault(tx, ident.ID); err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusCreated, address)
}

type updateAddressRequest struct {
	Label      *string `json:"label"`
	FullName   *string `json:"fullName" validate:"omitempty,min=1"`
	Phone      *string `json:"phone" validate:"omitempty,min=1"`
	Line1      *string `json:"line1" validate:"omitempty,min=1"`
	Line2      *string `json:"line2"`
	City       *string `json:"city" validate:"omitempty,min=1"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
}

// UpdateAddress patches an address owned by the caller.
func (h *ProfileHandler) UpdateAddress(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	addrID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateAddressRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	for column, value := range map[string]*string{
		"label":       req.Label,
		"full_name":   req.FullName,
		"phone":       req.Phone,
		"line1":       req.Line1,
		"line2":       req.Line2,
		"city":        req.City,
		"state":       req.State,
		"postal_code": req.PostalCode,
		"country":     req.Country,
	} {
		if value != nil {
			updates[column] = *value
		}
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	address, err := h.findAddress(h.db, ident.ID, addrID)
	if err != nil {
		return err
	}
	if err := h.db.Model(address).Updates(updates).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, address)
}

// SetDefaultAddress makes one address the default and clears the flag on
// the others.
func (h *ProfileHandler) SetDefaultAddress(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	addrID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var address *models.UserAddress
	err = h.db.Transaction(func(tx *gorm.DB) error {
		found, err := h.findAddress(tx, ident.ID, addrID)
		if err != nil {
			return err
		}
		if err := clearDefault(tx, ident.ID); err != nil {
			return err
		}
		found.IsDefault = true
		address = found
		return tx.Model(found).Update("is_default", true).Error
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, address)
}

// DeleteAddress removes an address. Deleting the default promotes the
// oldest remaining address.
func (h *ProfileHandler) DeleteAddress(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	addrID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		address, err := h.findAddress(tx, ident.ID, addrID)
		if err != nil {
			return err
		}
		if err := tx.Delete(address).Error; err != nil {
			return err
		}
		if !address.IsDefault {
			return nil
		}

		var next models.UserAddress
		err = tx.Where("user_id = ?", ident.ID).Order("created_at asc").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_default", true).Error
	})
	if err != nil {
		return err
	}
	return respondMessage(c, "address deleted", nil)
}

func (h *ProfileHandler) findAddress(db *gorm.DB, userID, addrID uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	if err := db.First(&address, "id = ? AND user_id = ?", addrID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "address not found")
		}
		return nil, err
	}
	return &address, nil
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
