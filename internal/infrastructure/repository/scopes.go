package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

const (
	// TenantIDKey carries the tenant the request is scoped to.
	TenantIDKey ctxKey = "tenant_id"
	// SkipTenantScopeKey lifts the scope for super admin reads.
	SkipTenantScopeKey ctxKey = "skip_tenant_scope"
)

// TenantScope returns a GORM scope that filters by the tenant carried in ctx.
// Applied to every query on tenant-scoped entities; refund and exchange rows
// from one tenant must never be readable or mutable from another.
// If SkipTenantScopeKey is true in context (super admin), returns all records.
func TenantScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if skipScope, ok := ctx.Value(SkipTenantScopeKey).(bool); ok && skipScope {
			return db
		}

		tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
		if !ok {
			// Missing tenant context matches nothing rather than
			// everything
			return db.Where("1 = 0")
		}
		return db.Where("tenant_id = ?", tenantID)
	}
}

// WithSkipTenantScope marks ctx so TenantScope passes rows from every
// tenant. Only the super admin paths set it.
func WithSkipTenantScope(ctx context.Context, skip bool) context.Context {
	return context.WithValue(ctx, SkipTenantScopeKey, skip)
}

// WithTenant binds queries made under ctx to one tenant.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantID reports the tenant bound to ctx, if any.
func GetTenantID(ctx context.Context) (uuid.UUID, bool) {
	tenantID, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return tenantID, ok
}
