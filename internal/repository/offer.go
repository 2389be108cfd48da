package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/grocer/internal/models"
)

// OfferRepository reads offers for discount evaluation.
type OfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository constructs an OfferRepository.
func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// FindByCode returns the offer with the given normalized code.
func (r *OfferRepository) FindByCode(ctx context.Context, code string) (*models.Offer, error) {
	var offer models.Offer
	if err := conn(ctx, r.db).First(&offer, "code = ?", code).Error; err != nil {
		return nil, notFound(err)
	}
	return &offer, nil
}

// IncrementUsage bumps the redemption counter. With withinLimit set the
// update only applies while UsageCount is below a positive MaxUsageCount,
// and ErrUsageLimit is returned otherwise.
func (r *OfferRepository) IncrementUsage(ctx context.Context, id uuid.UUID, withinLimit bool) error {
	db := conn(ctx, r.db)

	query := db.Model(&models.Offer{}).Where("id = ?", id)
	if withinLimit {
		query = query.Where("max_usage_count <= 0 OR usage_count < max_usage_count")
	}
	res := query.UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return errors.Wrap(res.Error, "increment usage")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Offer{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrap(err, "count offer")
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrUsageLimit
}
