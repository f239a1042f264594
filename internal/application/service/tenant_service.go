package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
)

// TenantSettingsSource is the narrow read the money flows use to load
// per-tenant policy (refund window, feature flags) without depending on
// the full tenant repository.
type TenantSettingsSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Tenant, error)
}

// TenantService manages stores and their memberships. Settings changes
// made here take effect on the next refund or exchange request; nothing
// is cached.
type TenantService struct {
	tenantRepo repository.TenantRepository
}

func NewTenantService(tenantRepo repository.TenantRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo}
}

// normalizeSettings applies the currency convention and rejects policy
// values the refund flows cannot honor.
func normalizeSettings(settings *entity.TenantSettings) error {
	settings.Currency = normalizeCurrency(settings.Currency)
	if settings.RefundWindow < 0 {
		return apperror.NewBadRequestError("Refund window cannot be negative")
	}
	return nil
}

type CreateTenantInput struct {
	Name     string
	Slug     string
	OwnerID  uuid.UUID
	Settings *entity.TenantSettings
}

// CreateTenant registers a store and enrolls the owner as its first
// member.
func (s *TenantService) CreateTenant(ctx context.Context, input *CreateTenantInput) (*entity.Tenant, error) {
	existing, err := s.tenantRepo.GetBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Tenant slug already exists")
	}

	settings := entity.DefaultTenantSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}
	if err := normalizeSettings(&settings); err != nil {
		return nil, err
	}

	tenant := &entity.Tenant{
		Name:     input.Name,
		Slug:     input.Slug,
		OwnerID:  input.OwnerID,
		Settings: settings,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	// The owner's membership is what routes their requests to this
	// tenant, so its creation cannot be best-effort.
	membership := &entity.TenantMembership{
		TenantID: tenant.ID,
		UserID:   input.OwnerID,
		Role:     "owner",
	}
	if err := s.tenantRepo.AddMember(ctx, membership); err != nil {
		return nil, err
	}

	return tenant, nil
}

func (s *TenantService) GetTenant(ctx context.Context, id uuid.UUID) (*entity.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.ErrNotFound
	}
	return tenant, nil
}

// GetUserTenants lists the stores a staff account belongs to.
func (s *TenantService) GetUserTenants(ctx context.Context, userID uuid.UUID) ([]entity.Tenant, error) {
	return s.tenantRepo.GetUserTenants(ctx, userID)
}

type UpdateTenantInput struct {
	ID       uuid.UUID
	Name     string
	Settings *entity.TenantSettings
}

// UpdateTenant renames a store or replaces its settings. Settings are
// replaced as a whole, not merged.
func (s *TenantService) UpdateTenant(ctx context.Context, input *UpdateTenantInput) (*entity.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, apperror.ErrNotFound
	}

	if input.Name != "" {
		tenant.Name = input.Name
	}
	if input.Settings != nil {
		settings := *input.Settings
		if err := normalizeSettings(&settings); err != nil {
			return nil, err
		}
		tenant.Settings = settings
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}

	return tenant, nil
}

// addMember enrolls a user after checking they are not already in.
func (s *TenantService) addMember(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	isMember, _ := s.tenantRepo.IsMember(ctx, tenantID, userID)
	if isMember {
		return apperror.NewConflictError("User is already a member of this tenant")
	}
	if role == "" {
		role = "member"
	}
	return s.tenantRepo.AddMember(ctx, &entity.TenantMembership{
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
	})
}

type InviteMemberInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// InviteMember adds a staff account to a store.
func (s *TenantService) InviteMember(ctx context.Context, input *InviteMemberInput) error {
	return s.addMember(ctx, input.TenantID, input.UserID, input.Role)
}

// RemoveMember removes a user from a tenant. The owner cannot be
// removed; ownership has to be transferred first.
func (s *TenantService) RemoveMember(ctx context.Context, tenantID, userID uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return apperror.ErrNotFound
	}
	if tenant.OwnerID == userID {
		return apperror.NewConflictError("Cannot remove the tenant owner")
	}
	return s.tenantRepo.RemoveMember(ctx, tenantID, userID)
}

func (s *TenantService) GetTenantMembers(ctx context.Context, tenantID uuid.UUID) ([]entity.TenantMembership, error) {
	members, err := s.tenantRepo.GetMembers(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range members {
		members[i].PopulateUserDetails()
	}
	return members, nil
}

func (s *TenantService) UpdateMemberRole(ctx context.Context, tenantID, userID uuid.UUID, role string) error {
	return s.tenantRepo.UpdateMemberRole(ctx, tenantID, userID, role)
}

// ListAllTenants is the super admin view across every store.
func (s *TenantService) ListAllTenants(ctx context.Context) ([]entity.Tenant, error) {
	return s.tenantRepo.ListAll(ctx)
}

type AssignUserToTenantInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// AssignUserToTenant is the super admin path for enrolling a user into
// any store. Unlike InviteMember it verifies the store exists first,
// since the caller is not acting from inside it.
func (s *TenantService) AssignUserToTenant(ctx context.Context, input *AssignUserToTenantInput) error {
	tenant, err := s.tenantRepo.GetByID(ctx, input.TenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return apperror.ErrNotFound
	}
	return s.addMember(ctx, input.TenantID, input.UserID, input.Role)
}
