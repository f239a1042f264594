package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// ExchangeRepository defines the interface for exchange session data operations
type ExchangeRepository interface {
	Create(ctx context.Context, session *entity.ExchangeSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ExchangeSession, error)
	Update(ctx context.Context, session *entity.ExchangeSession) error
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.ExchangeSession, int64, error)
}
