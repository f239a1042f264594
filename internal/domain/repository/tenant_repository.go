package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
)

// TenantRepository persists the stores and their memberships. Every
// scoped row in the system hangs off a tenant created here, and the
// tenant's settings carry the refund policy the money flows enforce.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
	// GetBySlug resolves the subdomain identifier requests arrive under.
	GetBySlug(ctx context.Context, slug string) (*entity.Tenant, error)
	Update(ctx context.Context, tenant *entity.Tenant) error
	// Delete soft-deletes a tenant
	Delete(ctx context.Context, id uuid.UUID) error

	// GetUserTenants retrieves all tenants a user belongs to
	GetUserTenants(ctx context.Context, userID uuid.UUID) ([]entity.Tenant, error)
	AddMember(ctx context.Context, membership *entity.TenantMembership) error
	RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error
	GetMembers(ctx context.Context, tenantID uuid.UUID) ([]entity.TenantMembership, error)
	IsMember(ctx context.Context, tenantID, userID uuid.UUID) (bool, error)
	UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error

	// ListAll retrieves all tenants (for super admin use)
	ListAll(ctx context.Context) ([]entity.Tenant, error)
}
