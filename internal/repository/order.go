package repository

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
)

// OrderRepository persists placed orders.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository constructs an OrderRepository.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order together with its item rows.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := conn(ctx, r.db).Omit("User").Create(order).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	return nil
}
