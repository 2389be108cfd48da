package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/grocer/internal/models"
)

// CartRepository stores carts and their lines in Postgres.
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository constructs a CartRepository.
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Load returns the user's cart with its lines in insertion order.
func (r *CartRepository) Load(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

// Save writes the cart and replaces its lines. A cart with Version 0 is
// inserted; otherwise the write only succeeds if the stored version still
// matches, and Version is advanced.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	fn := func(tx *gorm.DB) error {
		now := time.Now()
		if cart.Version == 0 {
			cart.Version = 1
			if err := tx.Omit(clause.Associations).Create(cart).Error; err != nil {
				cart.Version = 0
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrStaleCart
				}
				return errors.Wrap(err, "create cart")
			}
		} else {
			res := tx.Model(&models.Cart{}).
				Where("id = ? AND version = ?", cart.ID, cart.Version).
				Updates(map[string]interface{}{
					"version":    cart.Version + 1,
					"updated_at": now,
				})
			if res.Error != nil {
				return errors.Wrap(res.Error, "update cart")
			}
			if res.RowsAffected == 0 {
				return ErrStaleCart
			}
			cart.Version++
			cart.UpdatedAt = now

			if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
				return errors.Wrap(err, "delete cart items")
			}
		}

		if len(cart.Items) == 0 {
			return nil
		}
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
			cart.Items[i].Product = nil
		}
		if err := tx.Omit(clause.Associations).Create(&cart.Items).Error; err != nil {
			return errors.Wrap(err, "insert cart items")
		}
		return nil
	}

	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(tx)
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// Clear removes every line from the user's cart. A missing cart is not an
// error.
func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	db := conn(ctx, r.db)

	var cart models.Cart
	if err := db.Select("id").First(&cart, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.Wrap(err, "find cart")
	}

	if err := db.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return errors.Wrap(err, "delete cart items")
	}
	return db.Model(&models.Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}).Error
}
