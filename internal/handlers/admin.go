package handlers

import (
	"bytes"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/utils"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTimestamp = "2006-01-02 15:04:05"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := h.db.Model(&models.Product{}).Count(&totalProducts).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	var totalOrders int64
	ordersByStatus := make(map[string]int64, len(models.OrderStatuses))
	for _, s := range models.OrderStatuses {
		ordersByStatus[s] = 0
	}
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
		totalOrders += sc.Count
	}

	// Cancelled orders never count as revenue.
	var revenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status <> ?", models.OrderCancelled).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&revenue).Error; err != nil {
		return err
	}

	return respond(c, fiber.StatusOK, fiber.Map{
		"totalUsers":     totalUsers,
		"totalProducts":  totalProducts,
		"totalOrders":    totalOrders,
		"ordersByStatus": ordersByStatus,
		"totalRevenue":   decimal.NewFromFloat(revenue).Round(2),
	})
}

// ListUsers returns registered users with pagination and search.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.User{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(user_name) LIKE ? OR LOWER(email) LIKE ? OR phone_number LIKE ?", q, q, q)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role_type = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var users []models.User
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       users,
		"pagination": pg.Meta(total),
	})
}

// ExportProducts streams every product variant as an xlsx workbook.
func (h *AdminHandler) ExportProducts(c *fiber.Ctx) error {
	var products []models.Product
	if err := h.db.Preload("Variants").Preload("Category").
		Order("name asc").
		Find(&products).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	addRow(sheet, "ID", "Name", "Slug", "Brand", "Category", "Unit", "Price", "Stock", "Packaging", "Available", "Featured", "CreatedAt")
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		for _, v := range p.Variants {
			addRow(sheet,
				p.ID.String(), p.Name, p.Slug, p.Brand, category,
				v.Unit, v.Price.InexactFloat64(), v.StockQty, v.Packaging,
				p.IsAvailable, p.IsFeatured, p.CreatedAt.Format(exportTimestamp),
			)
		}
	}

	return sendWorkbook(c, file, "products")
}

// ExportOrders streams orders, one row per order item, as an xlsx workbook.
func (h *AdminHandler) ExportOrders(c *fiber.Ctx) error {
	query := h.db.Preload("Items").Order("placed_at desc")
	if status := c.Query("status"); status != "" {
		if !models.ValidOrderStatus(status) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}

	addRow(sheet, "OrderNumber", "PlacedAt", "Status", "PaymentMethod", "PaymentStatus",
		"Product", "Unit", "Quantity", "UnitPrice", "LineTotal",
		"Subtotal", "Discount", "DiscountCode", "Total", "City")
	for _, o := range orders {
		for _, item := range o.Items {
			addRow(sheet,
				o.OrderNumber, o.PlacedAt.Format(exportTimestamp), o.Status, o.PaymentMethod, o.PaymentStatus,
				item.ProductName, item.Unit, item.Quantity, item.UnitPrice.InexactFloat64(), item.LineTotal.InexactFloat64(),
				o.Subtotal.InexactFloat64(), o.DiscountAmount.InexactFloat64(), o.DiscountCode, o.TotalAmount.InexactFloat64(),
				o.ShippingAddress.City,
			)
		}
	}

	return sendWorkbook(c, file, "orders")
}

func addRow(sheet *xlsx.Sheet, values ...interface{}) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}

func sendWorkbook(c *fiber.Ctx, file *xlsx.File, name string) error {
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return err
	}

	filename := name + "-" + time.Now().Format("20060102") + ".xlsx"
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(buf.Bytes())
}
