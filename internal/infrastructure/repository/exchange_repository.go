package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"github.com/sangkips/refundify-api/pkg/pagination"
	"gorm.io/gorm"
)

type exchangeRepository struct {
	db *gorm.DB
}

// NewExchangeRepository creates a new exchange session repository
func NewExchangeRepository(db *gorm.DB) domainRepo.ExchangeRepository {
	return &exchangeRepository{db: db}
}

func (r *exchangeRepository) Create(ctx context.Context, session *entity.ExchangeSession) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(session).Error
}

func (r *exchangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.ExchangeSession, error) {
	var session entity.ExchangeSession
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Scopes(TenantScope(ctx)).
		First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

func (r *exchangeRepository) Update(ctx context.Context, session *entity.ExchangeSession) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(session).Error
}

func (r *exchangeRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.ExchangeSession, int64, error) {
	var sessions []entity.ExchangeSession
	var total int64

	query := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&entity.ExchangeSession{}).
		Scopes(TenantScope(ctx))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&sessions).Error

	return sessions, total, err
}
