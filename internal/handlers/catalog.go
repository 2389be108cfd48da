package handlers

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
	"github.com/example/grocer/internal/utils"
)

// CatalogHandler manages the category tree.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

type categoryRequest struct {
	Name           string  `json:"name" validate:"required,max=120"`
	Slug           string  `json:"slug"`
	Description    string  `json:"description"`
	ParentCategory *string `json:"parentCategory" validate:"omitempty,uuid"`
	Type           string  `json:"type" validate:"omitempty,oneof=Main Sub"`
	DisplayOrder   int     `json:"displayOrder" validate:"gte=0"`
	Image          string  `json:"image" validate:"required,url"`
	PublicID       string  `json:"publicId"`
	IsActive       *bool   `json:"isActive"`
}

// ListCategories returns categories ordered by DisplayOrder. Optional
// filters: active, type, parent.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	query := h.db.Model(&models.Category{})

	if v := c.Query("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "active must be true or false")
		}
		query = query.Where("is_active = ?", active)
	}
	if v := c.Query("type"); v != "" {
		query = query.Where("type = ?", v)
	}
	if v := c.Query("parent"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid parent id")
		}
		query = query.Where("parent_id = ?", id)
	}

	var categories []models.Category
	if err := query.Order("display_order asc, name asc").Find(&categories).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, categories)
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	category, err := h.find(c)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, category)
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	category := models.Category{IsActive: true}
	if err := h.apply(&category, req); err != nil {
		return err
	}

	if err := h.db.Create(&category).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, category)
}

// UpdateCategory replaces an existing category's fields.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	category, err := h.find(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.apply(category, req); err != nil {
		return err
	}
	if category.ParentID != nil && *category.ParentID == category.ID {
		return fiber.NewError(fiber.StatusBadRequest, "category cannot be its own parent")
	}

	if err := h.db.Save(category).Error; err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, category)
}

// DeleteCategory removes a category and detaches its products and
// sub-categories.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	category, err := h.find(c)
	if err != nil {
		return err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Product{}).Where("sub_category_id = ?", category.ID).
			Update("sub_category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", category.ID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return err
	}
	return respondMessage(c, "category deleted", nil)
}

func (h *CatalogHandler) find(c *fiber.Ctx) (*models.Category, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return nil, err
	}
	return &category, nil
}

// apply copies req onto category, resolving the parent and a unique slug.
func (h *CatalogHandler) apply(category *models.Category, req categoryRequest) error {
	name := strings.TrimSpace(req.Name)

	var dup int64
	if err := h.db.Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?) AND id <> ?", name, category.ID).
		Count(&dup).Error; err != nil {
		return err
	}
	if dup > 0 {
		return fiber.NewError(fiber.StatusConflict, "category with this name already exists")
	}

	category.Name = name
	category.Description = req.Description
	category.DisplayOrder = req.DisplayOrder
	category.Image = req.Image
	category.PublicID = req.PublicID
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	category.ParentID = nil
	category.Type = models.CategoryMain
	if req.ParentCategory != nil && *req.ParentCategory != "" {
		parentID := uuid.MustParse(*req.ParentCategory)
		var count int64
		if err := h.db.Model(&models.Category{}).Where("id = ?", parentID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "parent category does not exist")
		}
		category.ParentID = &parentID
		category.Type = models.CategorySub
	} else if req.Type == models.CategorySub {
		return fiber.NewError(fiber.StatusBadRequest, "sub-category requires parentCategory")
	}

	source := req.Slug
	if strings.TrimSpace(source) == "" {
		source = name
	}
	if utils.Slugify(source) == category.Slug && category.Slug != "" {
		return nil
	}
	slug, err := utils.UniqueSlug(source, func(s string) (bool, error) {
		var count int64
		err := h.db.Model(&models.Category{}).Where("slug = ? AND id <> ?", s, category.ID).Count(&count).Error
		return count > 0, err
	})
	if err != nil {
		return err
	}
	category.Slug = slug
	return nil
}
