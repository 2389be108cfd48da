package handlers

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/services"
	"github.com/example/grocer/internal/utils"
)

var maxPercentage = decimal.NewFromInt(100)

// OfferHandler manages offers and promo code evaluation.
type OfferHandler struct {
	db        *gorm.DB
	discounts *services.DiscountService
	now       func() time.Time
}

// NewOfferHandler constructs an OfferHandler.
func NewOfferHandler(db *gorm.DB, discounts *services.DiscountService) *OfferHandler {
	return &OfferHandler{db: db, discounts: discounts, now: time.Now}
}

type offerRequest struct {
	Name               string              `json:"name" validate:"required"`
	Code               string              `json:"code"`
	DiscountPercentage decimal.Decimal     `json:"discountPercentage"`
	MaxDiscountAmount  decimal.NullDecimal `json:"maxDiscountAmount"`
	StartDate          time.Time           `json:"startDate" validate:"required"`
	EndDate            time.Time           `json:"endDate" validate:"required"`
	Status             string              `json:"status" validate:"omitempty,oneof=Active Inactive"`
	ApplyAutomatically bool                `json:"applyAutomatically"`
	MaxUsageCount      *int                `json:"maxUsageCount" validate:"omitempty,gte=0"`
}

type offerUpdateRequest struct {
	Name               *string          `json:"name" validate:"omitempty,min=1"`
	Code               *string          `json:"code"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
	MaxDiscountAmount  optionalAmount   `json:"maxDiscountAmount"`
	StartDate          *time.Time       `json:"startDate"`
	EndDate            *time.Time       `json:"endDate"`
	Status             *string          `json:"status" validate:"omitempty,oneof=Active Inactive"`
	ApplyAutomatically *bool            `json:"applyAutomatically"`
	MaxUsageCount      *int             `json:"maxUsageCount" validate:"omitempty,gte=0"`
}

// optionalAmount tells an absent field apart from an explicit null, which
// removes the cap.
type optionalAmount struct {
	Set   bool
	Value decimal.NullDecimal
}

func (o *optionalAmount) UnmarshalJSON(data []byte) error {
	o.Set = true
	return o.Value.UnmarshalJSON(data)
}

type applyDiscountRequest struct {
	Code        string          `json:"code" validate:"required"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CreateOffer creates an offer.
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	var req offerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	offer := models.Offer{
		Name:               req.Name,
		DiscountPercentage: req.DiscountPercentage,
		MaxDiscountAmount:  req.MaxDiscountAmount,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Status:             req.Status,
		ApplyAutomatically: req.ApplyAutomatically,
		MaxUsageCount:      models.DefaultMaxUsageCount,
	}
	if offer.Status == "" {
		offer.Status = models.OfferActive
	}
	if req.MaxUsageCount != nil {
		offer.MaxUsageCount = *req.MaxUsageCount
	}
	if code := models.NormalizeCode(req.Code); code != "" {
		offer.Code = &code
	}

	if err := validateOffer(&offer); err != nil {
		return err
	}
	if err := h.ensureCodeFree(offer.Code, uuid.Nil); err != nil {
		return err
	}

	if err := h.db.Create(&offer).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, offer)
}

// ListOffers returns all offers, newest first.
func (h *OfferHandler) ListOffers(c *fiber.Ctx) error {
	var offers []models.Offer
	if err := h.db.Order("created_at desc").Find(&offers).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, offers)
}

// ListActiveOffers returns Active offers whose window contains now.
func (h *OfferHandler) ListActiveOffers(c *fiber.Ctx) error {
	now := h.now()

	var offers []models.Offer
	if err := h.db.
		Where("status = ? AND start_date <= ? AND end_date >= ?", models.OfferActive, now, now).
		Order("created_at desc").
		Find(&offers).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, offers)
}

// GetOffer returns one offer.
func (h *OfferHandler) GetOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var offer models.Offer
	if err := h.db.First(&offer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "offer not found")
		}
		return err
	}
	return respond(c, fiber.StatusOK, offer)
}

// UpdateOffer applies a partial update.
func (h *OfferHandler) UpdateOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req offerUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	var offer models.Offer
	if err := h.db.First(&offer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "offer not found")
		}
		return err
	}

	if req.Name != nil {
		offer.Name = *req.Name
	}
	if req.Code != nil {
		offer.Code = nil
		if code := models.NormalizeCode(*req.Code); code != "" {
			offer.Code = &code
		}
	}
	if req.DiscountPercentage != nil {
		offer.DiscountPercentage = *req.DiscountPercentage
	}
	if req.MaxDiscountAmount.Set {
		offer.MaxDiscountAmount = req.MaxDiscountAmount.Value
	}
	if req.StartDate != nil {
		offer.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		offer.EndDate = *req.EndDate
	}
	if req.Status != nil {
		offer.Status = *req.Status
	}
	if req.ApplyAutomatically != nil {
		offer.ApplyAutomatically = *req.ApplyAutomatically
	}
	if req.MaxUsageCount != nil {
		offer.MaxUsageCount = *req.MaxUsageCount
	}

	if err := validateOffer(&offer); err != nil {
		return err
	}
	if err := h.ensureCodeFree(offer.Code, offer.ID); err != nil {
		return err
	}

	if err := h.db.Save(&offer).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, offer)
}

// DeleteOffer removes an offer.
func (h *OfferHandler) DeleteOffer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	res := h.db.Delete(&models.Offer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "offer not found")
	}
	return respondMessage(c, "offer deleted", nil)
}

// ValidateCode reports whether a promo code can be redeemed now.
func (h *OfferHandler) ValidateCode(c *fiber.Ctx) error {
	offer, err := h.discounts.Lookup(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}

	return respondMessage(c, "promo code is valid", fiber.Map{
		"offerId":            offer.ID,
		"name":               offer.Name,
		"discountPercentage": offer.DiscountPercentage,
		"applyAutomatically": offer.ApplyAutomatically,
		"startDate":          offer.StartDate,
		"endDate":            offer.EndDate,
	})
}

// ApplyDiscount previews the discount a code gives on an amount.
func (h *OfferHandler) ApplyDiscount(c *fiber.Ctx) error {
	var req applyDiscountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.TotalAmount.IsNegative() {
		return &utils.ValidationError{Fields: map[string]string{"totalAmount": "must be at least 0"}}
	}

	discount, err := h.discounts.Apply(c.UserContext(), req.Code, req.TotalAmount)
	if err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"discountAmount": discount.Amount,
		"finalAmount":    discount.Final,
		"offerDetails": fiber.Map{
			"name":               discount.Offer.Name,
			"discountPercentage": discount.Offer.DiscountPercentage,
		},
	})
}

func validateOffer(o *models.Offer) error {
	fields := make(map[string]string)
	if o.DiscountPercentage.IsNegative() || o.DiscountPercentage.GreaterThan(maxPercentage) {
		fields["discountPercentage"] = "must be between 0 and 100"
	}
	if o.MaxDiscountAmount.Valid && o.MaxDiscountAmount.Decimal.IsNegative() {
		fields["maxDiscountAmount"] = "must be at least 0"
	}
	if !o.StartDate.Before(o.EndDate) {
		fields["endDate"] = "must be after startDate"
	}
	if len(fields) > 0 {
		return &utils.ValidationError{Fields: fields}
	}
	return nil
}

func (h *OfferHandler) ensureCodeFree(code *string, self uuid.UUID) error {
	if code == nil {
		return nil
	}

	var count int64
	if err := h.db.Model(&models.Offer{}).
		Where("code = ? AND id <> ?", *code, self).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "promo code already exists")
	}
	return nil
}
