package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
)

// ProductRepository reads products for cart and order flows.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository constructs a ProductRepository.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// FindWithVariants loads a product and its variants.
func (r *ProductRepository) FindWithVariants(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).Preload("Variants").First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// FindByIDs loads the products that still exist among ids.
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
