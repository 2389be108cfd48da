package handlers

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/utils"
)

const minVariantPrice = "(SELECT MIN(pv.price) FROM product_variants pv WHERE pv.product_id = products.id)"

var productSortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     minVariantPrice,
	"rating":    "rating",
}

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if v := c.Query("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}
		query = query.Where("category_id = ? OR sub_category_id = ?", id, id)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?", q, q, q)
	}

	if v := c.Query("featured"); v != "" {
		if featured, err := strconv.ParseBool(v); err == nil {
			query = query.Where("is_featured = ?", featured)
		}
	}

	if v := c.Query("available"); v != "" {
		if available, err := strconv.ParseBool(v); err == nil {
			query = query.Where("is_available = ?", available)
		}
	}

	column, ok := productSortColumns[c.Query("sortField", "createdAt")]
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "sortField must be one of createdAt, name, price, rating")
	}
	direction := "desc"
	switch strings.ToLower(c.Query("sortOrder", "desc")) {
	case "asc":
		direction = "asc"
	case "desc":
	default:
		return fiber.NewError(fiber.StatusBadRequest, "sortOrder must be asc or desc")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Variants").Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).
		Order(column + " " + direction).
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a product with its variants and category.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	return h.getBy(c, "id = ?", id)
}

// GetProductBySlug loads a product by its slug.
func (h *ProductHandler) GetProductBySlug(c *fiber.Ctx) error {
	return h.getBy(c, "slug = ?", strings.ToLower(c.Params("slug")))
}

func (h *ProductHandler) getBy(c *fiber.Ctx, where string, value interface{}) error {
	var product models.Product
	if err := h.db.Preload("Variants").Preload("Category").
		First(&product, where, value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}
	return respond(c, fiber.StatusOK, product)
}

type productRequest struct {
	Name           string           `json:"name" validate:"required,max=200"`
	Slug           string           `json:"slug"`
	ProductCode    string           `json:"productCode"`
	Category       string           `json:"category" validate:"required,uuid"`
	SubCategory    string           `json:"subCategory" validate:"omitempty,uuid"`
	Brand          string           `json:"brand"`
	Description    string           `json:"description"`
	Variants       []variantRequest `json:"variants" validate:"required,min=1,dive"`
	ActiveVariant  string           `json:"activeVariant"`
	Tags           []string         `json:"tags"`
	Images         []string         `json:"images" validate:"dive,url"`
	Discount       decimal.Decimal  `json:"discount"`
	Rating         float64          `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount    int              `json:"reviewCount" validate:"gte=0"`
	BestBeforeDays int              `json:"bestBeforeDays" validate:"gte=0"`
	IsAvailable    *bool            `json:"isAvailable"`
	IsFeatured     bool             `json:"isFeatured"`
}

type variantRequest struct {
	Unit      string          `json:"unit" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	StockQty  int             `json:"stockQty" validate:"gte=0"`
	Packaging string          `json:"packaging"`
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product := models.Product{IsAvailable: true}
	if err := h.buildProduct(&product, req); err != nil {
		return err
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, product)
}

// UpdateProduct replaces a product and its variants.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var existing models.Product
	if err := h.db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.buildProduct(&existing, req); err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", existing.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Omit("Variants", "Category").Save(&existing).Error; err != nil {
			return err
		}
		return tx.Create(&existing.Variants).Error
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, existing)
}

// DeleteProduct removes a product and its variants.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return nil
	})
	if err != nil {
		return err
	}
	return respondMessage(c, "product deleted", nil)
}

// buildProduct validates req against the catalog and copies it onto product.
func (h *ProductHandler) buildProduct(product *models.Product, req productRequest) error {
	fields := make(map[string]string)
	switch len(req.Images) {
	case 0, 1, 3:
	default:
		fields["images"] = "must contain 0, 1 or 3 images"
	}
	for i, v := range req.Variants {
		if !v.Price.IsPositive() {
			fields["variants["+strconv.Itoa(i)+"].price"] = "must be greater than 0"
		}
	}
	if req.Discount.IsNegative() {
		fields["discount"] = "must be at least 0"
	}
	if len(fields) > 0 {
		return &utils.ValidationError{Fields: fields}
	}

	categoryID := uuid.MustParse(req.Category)
	if err := h.requireCategory(categoryID, "category"); err != nil {
		return err
	}
	product.CategoryID = &categoryID

	product.SubCategoryID = nil
	if req.SubCategory != "" {
		subID := uuid.MustParse(req.SubCategory)
		if err := h.requireCategory(subID, "subCategory"); err != nil {
			return err
		}
		product.SubCategoryID = &subID
	}

	product.Name = strings.TrimSpace(req.Name)
	product.ProductCode = req.ProductCode
	product.Brand = strings.TrimSpace(req.Brand)
	if product.Brand == "" {
		product.Brand = models.DefaultBrand
	}
	product.Description = req.Description
	product.Tags = pq.StringArray(req.Tags)
	product.Images = pq.StringArray(req.Images)
	product.Discount = req.Discount
	product.Rating = req.Rating
	product.ReviewCount = req.ReviewCount
	product.BestBeforeDays = req.BestBeforeDays
	product.IsFeatured = req.IsFeatured
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}

	product.Variants = make([]models.ProductVariant, 0, len(req.Variants))
	for _, v := range req.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			ProductID: product.ID,
			Unit:      strings.TrimSpace(v.Unit),
			Price:     v.Price,
			StockQty:  v.StockQty,
			Packaging: v.Packaging,
		})
	}
	product.ActiveVariant = req.ActiveVariant
	if _, ok := product.VariantByUnit(product.ActiveVariant); !ok {
		product.ActiveVariant = product.Variants[0].Unit
	}

	source := req.Slug
	if strings.TrimSpace(source) == "" {
		source = product.Name
	}
	if product.Slug != "" && utils.Slugify(source) == product.Slug {
		return nil
	}
	slug, err := utils.UniqueSlug(source, func(s string) (bool, error) {
		var count int64
		err := h.db.Model(&models.Product{}).Where("slug = ? AND id <> ?", s, product.ID).Count(&count).Error
		return count > 0, err
	})
	if err != nil {
		return err
	}
	product.Slug = slug
	return nil
}

func (h *ProductHandler) requireCategory(id uuid.UUID, field string) error {
	var count int64
	if err := h.db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &utils.ValidationError{Fields: map[string]string{field: "category does not exist"}}
	}
	return nil
}
