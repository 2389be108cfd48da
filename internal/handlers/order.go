package handlers

import (
	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/services"
	"github.com/example/grocer/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db     *gorm.DB
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders}
}

type shippingAddressRequest struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type placeOrderRequest struct {
	Code            string                  `json:"code"`
	AddressID       string                  `json:"addressId" validate:"omitempty,uuid"`
	ShippingAddress *shippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod" validate:"omitempty,max=32"`
	PaymentStatus   string                  `json:"paymentStatus" validate:"omitempty,oneof=Pending Paid Failed Refunded"`
}

type updateOrderRequest struct {
	Status        *string `json:"status" validate:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
	PaymentStatus *string `json:"paymentStatus" validate:"omitempty,oneof=Pending Paid Failed Refunded"`
}

// PlaceOrder turns the caller's cart into an order.
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	var req placeOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	address, err := h.resolveAddress(ident.ID, req)
	if err != nil {
		return err
	}

	order, err := h.orders.PlaceOrder(c.UserContext(), services.PlaceOrderInput{
		UserID:          ident.ID,
		Code:            req.Code,
		ShippingAddress: address,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   req.PaymentStatus,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "order placed",
		"data":    order,
	})
}

// resolveAddress picks the shipping address: an address book entry, an
// inline address, or the caller's default address.
func (h *OrderHandler) resolveAddress(userID uuid.UUID, req placeOrderRequest) (models.ShippingAddress, error) {
	if req.AddressID != "" {
		var address models.UserAddress
		if err := h.db.First(&address, "id = ? AND user_id = ?", req.AddressID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ShippingAddress{}, fiber.NewError(fiber.StatusNotFound, "address not found")
			}
			return models.ShippingAddress{}, err
		}
		return address.Snapshot(), nil
	}

	if a := req.ShippingAddress; a != nil {
		return models.ShippingAddress{
			FullName:   a.FullName,
			Phone:      a.Phone,
			Line1:      a.Line1,
			Line2:      a.Line2,
			City:       a.City,
			State:      a.State,
			PostalCode: a.PostalCode,
			Country:    a.Country,
		}, nil
	}

	var address models.UserAddress
	err := h.db.Where("user_id = ? AND is_default = ?", userID, true).First(&address).Error
	switch {
	case err == nil:
		return address.Snapshot(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ShippingAddress{}, nil
	default:
		return models.ShippingAddress{}, err
	}
}

// ListMyOrders returns the caller's orders, newest first.
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}
	return h.list(c, h.db.Where("user_id = ?", ident.ID))
}

// ListOrders returns every order, optionally filtered by status.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	query := h.db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		if !models.ValidOrderStatus(status) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}
	return h.list(c, query)
}

func (h *OrderHandler) list(c *fiber.Ctx, query *gorm.DB) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := query.Model(&models.Order{}).Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns one order to its owner or an admin.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	ident, err := currentUser(c)
	if err != nil {
		return err
	}

	order, err := h.find(c)
	if err != nil {
		return err
	}
	if order.UserID != ident.ID && ident.RoleType != models.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "not allowed to view this order")
	}
	return respond(c, fiber.StatusOK, order)
}

// UpdateOrder changes fulfilment or payment status.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	var req updateOrderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == nil && req.PaymentStatus == nil {
		return fiber.NewError(fiber.StatusBadRequest, "status or paymentStatus is required")
	}

	order, err := h.find(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		updates["status"] = *req.Status
		order.Status = *req.Status
	}
	if req.PaymentStatus != nil {
		updates["payment_status"] = *req.PaymentStatus
		order.PaymentStatus = *req.PaymentStatus
	}

	if err := h.db.Model(order).Updates(updates).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order)
}

// DeleteOrder removes an order and its items.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return respondMessage(c, "order deleted", nil)
}

func (h *OrderHandler) find(c *fiber.Ctx) (*models.Order, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := h.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return nil, err
	}
	return &order, nil
}
