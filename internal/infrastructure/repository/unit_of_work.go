package repository

import (
	"context"

	domainRepo "github.com/sangkips/refundify-api/internal/domain/repository"
	"gorm.io/gorm"
)

const txKey ctxKey = "gorm_tx"

// unitOfWork implements repository.UnitOfWork on top of gorm transactions.
// The open transaction handle travels in the context; repositories created
// with the same *gorm.DB pick it up through dbFromContext.
type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a gorm-backed unit of work
func NewUnitOfWork(db *gorm.DB) domainRepo.UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	// Join an already-open transaction instead of opening a nested one, so
	// composed operations (exchange initiate driving the refund path) share
	// a single atomic boundary.
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok && tx != nil {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// dbFromContext returns the transaction handle carried by the context, or the
// repository's own connection when no transaction is open.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return fallback
}
