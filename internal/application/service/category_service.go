package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/pkg/apperror"
	"github.com/sangkips/refundify-api/pkg/pagination"
	"github.com/sangkips/refundify-api/pkg/utils"
)

// CategoryService maintains the category taxonomy products hang off.
type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CreateCategoryInput represents the create category input
type CreateCategoryInput struct {
	UserID uuid.UUID
	Name   string
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(ctx context.Context, input *CreateCategoryInput) (*entity.Category, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	// Slugs double as lookup keys, so names must slugify uniquely
	slug := utils.Slugify(input.Name)
	existing, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Category with this name already exists")
	}

	category := &entity.Category{
		TenantID: tenantID,
		UserID:   input.UserID,
		Name:     input.Name,
		Slug:     slug,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperror.NewNotFoundError("Category")
	}
	return category, nil
}

// ListCategories lists categories. If isSuperAdmin is true, returns all categories.
func (s *CategoryService) ListCategories(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams, search string, isSuperAdmin bool) (*pagination.PaginatedResult[entity.Category], error) {
	categories, total, err := s.categoryRepo.List(ctx, userID, params, search, isSuperAdmin)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(categories, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// UpdateCategoryInput represents the update category input
type UpdateCategoryInput struct {
	UserID       uuid.UUID
	ID           uuid.UUID
	IsSuperAdmin bool
	Name         string
}

// UpdateCategory renames a category, reslugging it when the name changes.
func (s *CategoryService) UpdateCategory(ctx context.Context, input *UpdateCategoryInput) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperror.NewNotFoundError("Category")
	}

	// Super-admin can update any category, regular users only their own
	if !input.IsSuperAdmin && category.UserID != input.UserID {
		return nil, apperror.ErrForbidden
	}

	if newSlug := utils.Slugify(input.Name); newSlug != category.Slug {
		existing, err := s.categoryRepo.GetBySlug(ctx, newSlug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != category.ID {
			return nil, apperror.NewConflictError("Category with this name already exists")
		}
		category.Slug = newSlug
	}
	category.Name = input.Name

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory deletes a category
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id uuid.UUID, isSuperAdmin bool) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return apperror.NewNotFoundError("Category")
	}

	if !isSuperAdmin && category.UserID != userID {
		return apperror.ErrForbidden
	}

	// Refuse to delete a category that products still reference. Order
	// lines keep product references for the life of the return window,
	// so the catalog rows behind them have to stay resolvable.
	inUse, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperror.NewConflictError("Category still has products assigned")
	}

	return s.categoryRepo.Delete(ctx, id)
}

// UnitService maintains the units of measure products are sold in.
type UnitService struct {
	unitRepo repository.UnitRepository
}

// NewUnitService creates a new unit service
func NewUnitService(unitRepo repository.UnitRepository) *UnitService {
	return &UnitService{unitRepo: unitRepo}
}

// CreateUnitInput represents the create unit input
type CreateUnitInput struct {
	UserID    uuid.UUID
	Name      string
	ShortCode string
}

// CreateUnit creates a new unit
func (s *UnitService) CreateUnit(ctx context.Context, input *CreateUnitInput) (*entity.Unit, error) {
	tenantID, ok := infraRepo.GetTenantID(ctx)
	if !ok {
		return nil, apperror.NewBadRequestError("Tenant context required")
	}

	slug := utils.Slugify(input.Name)
	existing, err := s.unitRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Unit with this name already exists")
	}

	unit := &entity.Unit{
		TenantID:  tenantID,
		UserID:    input.UserID,
		Name:      input.Name,
		Slug:      slug,
		ShortCode: input.ShortCode,
	}

	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// GetUnit retrieves a unit by ID
func (s *UnitService) GetUnit(ctx context.Context, id uuid.UUID) (*entity.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, apperror.NewNotFoundError("Unit")
	}
	return unit, nil
}

// ListUnits lists units. If isSuperAdmin is true, returns all units.
func (s *UnitService) ListUnits(ctx context.Context, userID uuid.UUID, params *pagination.PaginationParams, search string, isSuperAdmin bool) (*pagination.PaginatedResult[entity.Unit], error) {
	units, total, err := s.unitRepo.List(ctx, userID, params, search, isSuperAdmin)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(units, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// UpdateUnitInput represents the update unit input
type UpdateUnitInput struct {
	UserID       uuid.UUID
	ID           uuid.UUID
	IsSuperAdmin bool
	Name         string
	ShortCode    string
}

// UpdateUnit updates a unit
func (s *UnitService) UpdateUnit(ctx context.Context, input *UpdateUnitInput) (*entity.Unit, error) {
	unit, err := s.unitRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, apperror.NewNotFoundError("Unit")
	}

	if !input.IsSuperAdmin && unit.UserID != input.UserID {
		return nil, apperror.ErrForbidden
	}

	if newSlug := utils.Slugify(input.Name); newSlug != unit.Slug {
		existing, err := s.unitRepo.GetBySlug(ctx, newSlug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != unit.ID {
			return nil, apperror.NewConflictError("Unit with this name already exists")
		}
		unit.Slug = newSlug
	}
	unit.Name = input.Name
	unit.ShortCode = input.ShortCode

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// DeleteUnit deletes a unit, refusing while products still reference it.
func (s *UnitService) DeleteUnit(ctx context.Context, userID, id uuid.UUID, isSuperAdmin bool) error {
	unit, err := s.unitRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if unit == nil {
		return apperror.NewNotFoundError("Unit")
	}

	if !isSuperAdmin && unit.UserID != userID {
		return apperror.ErrForbidden
	}

	inUse, err := s.unitRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperror.NewConflictError("Unit still has products assigned")
	}

	return s.unitRepo.Delete(ctx, id)
}
