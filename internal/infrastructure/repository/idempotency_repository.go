package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

// GetByKey looks up a stored response for the (key, tenant, user) triple.
// Keys are scoped that tightly so one tenant's retries can never replay
// another tenant's refund response.
func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, tenantID, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where("key = ? AND tenant_id = ? AND user_id = ?", key, tenantID, userID).
		First(&ikey).Error
	return firstOrNil(&ikey, err)
}

func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	return r.db.WithContext(ctx).Create(ikey).Error
}

// DeleteExpired purges keys past their retention window. Run from the
// background sweeper, not per request.
func (r *idempotencyRepository) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&entity.IdempotencyKey{}).Error
}
