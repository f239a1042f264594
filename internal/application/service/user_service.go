package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/pagination"
)

// UserService administers staff accounts and the role assignments that
// gate refund approval.
type UserService struct {
	userRepo       repository.UserRepository
	roleRepo       repository.RoleRepository
	permissionRepo repository.PermissionRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	permissionRepo repository.PermissionRepository,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
	}
}

// ListUsersInput selects a page of staff accounts.
type ListUsersInput struct {
	Page    int
	PerPage int
	Search  string
}

// ListUsersOutput is a page of staff accounts with role preloads.
type ListUsersOutput struct {
	Users      []entity.User
	Total      int64
	Page       int
	PerPage    int
	TotalPages int
}

// ListUsers pages through staff accounts, optionally filtered by name
// or email.
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	params := &pagination.PaginationParams{
		Page:    input.Page,
		PerPage: input.PerPage,
	}
	params.Validate()

	users, total, err := s.userRepo.List(ctx, params, input.Search)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)

	return &ListUsersOutput{
		Users:      users,
		Total:      total,
		Page:       pag.CurrentPage,
		PerPage:    pag.PerPage,
		TotalPages: pag.TotalPages,
	}, nil
}

// GetUser loads one account with its roles and permissions.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return user, nil
}

// UpdateUserRolesInput names the full set of roles the user should end
// up with.
type UpdateUserRolesInput struct {
	UserID  uuid.UUID
	RoleIDs []uint
}

// UpdateUserRoles reconciles the roles assigned to a user against the
// desired set. Roles carry the refund and exchange permissions, so the
// assignment is a diff, not a wholesale replace: removing and re-adding
// a role a user already holds would churn the join table for nothing.
func (s *UserService) UpdateUserRoles(ctx context.Context, input *UpdateUserRolesInput) (*entity.User, error) {
	user, err := s.userRepo.GetWithRoles(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}

	desiredRoles := make(map[uint]bool)
	for _, roleID := range input.RoleIDs {
		desiredRoles[roleID] = true
	}

	currentRoles := make(map[uint]bool)
	for _, role := range user.Roles {
		currentRoles[role.ID] = true
	}

	// Remove roles that are no longer desired
	for _, role := range user.Roles {
		if !desiredRoles[role.ID] {
			if err := s.userRepo.RemoveRole(ctx, input.UserID, role.ID); err != nil {
				return nil, err
			}
		}
	}

	// Add new roles, skipping IDs that don't resolve to a real role
	for roleID := range desiredRoles {
		if currentRoles[roleID] {
			continue
		}
		role, err := s.roleRepo.GetByID(ctx, roleID)
		if err != nil {
			return nil, err
		}
		if role == nil {
			continue
		}
		if err := s.userRepo.AssignRole(ctx, input.UserID, roleID); err != nil {
			return nil, err
		}
	}

	return s.userRepo.GetWithRoles(ctx, input.UserID)
}

// DeleteUser soft deletes an account. Its past refunds keep their
// audit trail; only the login goes away.
func (s *UserService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrNotFound
	}

	return s.userRepo.Delete(ctx, userID)
}

// ListRoles returns the seeded role catalog.
func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.roleRepo.List(ctx)
}

// ListPermissions returns the seeded permission catalog.
func (s *UserService) ListPermissions(ctx context.Context) ([]entity.Permission, error) {
	return s.permissionRepo.List(ctx)
}
