package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
)

type fakeTenantRepo struct {
	repository.TenantRepository

	tenants     map[uuid.UUID]*entity.Tenant
	slugs       map[string]uuid.UUID
	memberships map[uuid.UUID][]entity.TenantMembership
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{
		tenants:     make(map[uuid.UUID]*entity.Tenant),
		slugs:       make(map[string]uuid.UUID),
		memberships: make(map[uuid.UUID][]entity.TenantMembership),
	}
}

func (r *fakeTenantRepo) Create(_ context.Context, tenant *entity.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	r.tenants[tenant.ID] = tenant
	r.slugs[tenant.Slug] = tenant.ID
	return nil
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Tenant, error) {
	return r.tenants[id], nil
}

func (r *fakeTenantRepo) GetBySlug(_ context.Context, slug string) (*entity.Tenant, error) {
	if id, ok := r.slugs[slug]; ok {
		return r.tenants[id], nil
	}
	return nil, nil
}

func (r *fakeTenantRepo) Update(_ context.Context, tenant *entity.Tenant) error {
	r.tenants[tenant.ID] = tenant
	return nil
}

func (r *fakeTenantRepo) AddMember(_ context.Context, m *entity.TenantMembership) error {
	r.memberships[m.TenantID] = append(r.memberships[m.TenantID], *m)
	return nil
}

func (r *fakeTenantRepo) IsMember(_ context.Context, tenantID, userID uuid.UUID) (bool, error) {
	for _, m := range r.memberships[tenantID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func TestCreateTenant(t *testing.T) {
	ownerID := uuid.New()

	t.Run("enrolls the owner and applies default settings", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)

		tenant, err := svc.CreateTenant(testCtx(), &CreateTenantInput{
			Name:    "Acme Outlet",
			Slug:    "acme-outlet",
			OwnerID: ownerID,
		})
		if err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}
		if tenant.Settings.RefundWindow != 30 {
			t.Errorf("refund window = %d, want default 30", tenant.Settings.RefundWindow)
		}
		members := repo.memberships[tenant.ID]
		if len(members) != 1 || members[0].UserID != ownerID || members[0].Role != "owner" {
			t.Errorf("owner membership not created: %+v", members)
		}
	})

	t.Run("normalizes the settings currency", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)

		settings := entity.DefaultTenantSettings()
		settings.Currency = " usd "
		tenant, err := svc.CreateTenant(testCtx(), &CreateTenantInput{
			Name:     "Acme Outlet",
			Slug:     "acme-outlet",
			OwnerID:  ownerID,
			Settings: &settings,
		})
		if err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}
		if tenant.Settings.Currency != "USD" {
			t.Errorf("currency = %q, want USD", tenant.Settings.Currency)
		}
	})

	t.Run("rejects a negative refund window", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)

		settings := entity.DefaultTenantSettings()
		settings.RefundWindow = -7
		_, err := svc.CreateTenant(testCtx(), &CreateTenantInput{
			Name:     "Acme Outlet",
			Slug:     "acme-outlet",
			OwnerID:  ownerID,
			Settings: &settings,
		})
		if err == nil || !strings.Contains(err.Error(), "negative") {
			t.Fatalf("err = %v, want negative refund window rejection", err)
		}
	})

	t.Run("refuses a duplicate slug", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)

		if _, err := svc.CreateTenant(testCtx(), &CreateTenantInput{Name: "A", Slug: "acme", OwnerID: ownerID}); err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}
		_, err := svc.CreateTenant(testCtx(), &CreateTenantInput{Name: "B", Slug: "acme", OwnerID: ownerID})
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("err = %v, want slug conflict", err)
		}
	})
}

func TestUpdateTenant(t *testing.T) {
	ownerID := uuid.New()

	t.Run("replaces settings as a whole", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)
		tenant, err := svc.CreateTenant(testCtx(), &CreateTenantInput{Name: "Acme", Slug: "acme", OwnerID: ownerID})
		if err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}

		settings := entity.DefaultTenantSettings()
		settings.RefundWindow = 14
		settings.Features.EnableExchanges = false
		updated, err := svc.UpdateTenant(testCtx(), &UpdateTenantInput{ID: tenant.ID, Settings: &settings})
		if err != nil {
			t.Fatalf("UpdateTenant: %v", err)
		}
		if updated.Settings.RefundWindow != 14 || updated.Settings.Features.EnableExchanges {
			t.Errorf("settings not replaced: %+v", updated.Settings)
		}
	})

	t.Run("rejects a negative refund window", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)
		tenant, err := svc.CreateTenant(testCtx(), &CreateTenantInput{Name: "Acme", Slug: "acme", OwnerID: ownerID})
		if err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}

		settings := entity.DefaultTenantSettings()
		settings.RefundWindow = -1
		if _, err := svc.UpdateTenant(testCtx(), &UpdateTenantInput{ID: tenant.ID, Settings: &settings}); err == nil {
			t.Fatal("want negative refund window rejection")
		}
	})
}

func TestAssignUserToTenant(t *testing.T) {
	ownerID := uuid.New()
	userID := uuid.New()

	t.Run("defaults the role to member", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)
		tenant, err := svc.CreateTenant(testCtx(), &CreateTenantInput{Name: "Acme", Slug: "acme", OwnerID: ownerID})
		if err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}

		if err := svc.AssignUserToTenant(testCtx(), &AssignUserToTenantInput{TenantID: tenant.ID, UserID: userID}); err != nil {
			t.Fatalf("AssignUserToTenant: %v", err)
		}
		members := repo.memberships[tenant.ID]
		if len(members) != 2 || members[1].Role != "member" {
			t.Errorf("memberships = %+v, want member role default", members)
		}
	})

	t.Run("refuses to enroll an existing member", func(t *testing.T) {
		repo := newFakeTenantRepo()
		svc := NewTenantService(repo)
		tenant, err := svc.CreateTenant(testCtx(), &CreateTenantInput{Name: "Acme", Slug: "acme", OwnerID: ownerID})
		if err != nil {
			t.Fatalf("CreateTenant: %v", err)
		}

		err = svc.AssignUserToTenant(testCtx(), &AssignUserToTenantInput{TenantID: tenant.ID, UserID: ownerID})
		if err == nil || !strings.Contains(err.Error(), "already a member") {
			t.Fatalf("err = %v, want membership conflict", err)
		}
	})
}
