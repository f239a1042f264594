package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
)

type fakeTenantRepo struct {
	repository.TenantRepository

	tenant  *entity.Tenant
	members map[uuid.UUID]bool
}

func (r *fakeTenantRepo) GetBySlug(_ context.Context, slug string) (*entity.Tenant, error) {
	if r.tenant != nil && r.tenant.Slug == slug {
		return r.tenant, nil
	}
	return nil, nil
}

func (r *fakeTenantRepo) GetUserTenants(_ context.Context, userID uuid.UUID) ([]entity.Tenant, error) {
	if r.members[userID] {
		return []entity.Tenant{*r.tenant}, nil
	}
	return nil, nil
}

func (r *fakeTenantRepo) IsMember(_ context.Context, tenantID, userID uuid.UUID) (bool, error) {
	return tenantID == r.tenant.ID && r.members[userID], nil
}

func newTenantRouter(repo *fakeTenantRepo, userID uuid.UUID, captured *uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set("user_id", userID)
			c.Set("user_roles", []string{"admin"})
		}
	})
	router.Use(TenantMiddleware(repo))
	router.GET("/scoped", RequireTenant(), func(c *gin.Context) {
		if id, ok := infraRepo.GetTenantID(c.Request.Context()); ok {
			*captured = id
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New()
	memberID := uuid.New()
	strangerID := uuid.New()
	repo := &fakeTenantRepo{
		tenant:  &entity.Tenant{ID: tenantID, Slug: "acme"},
		members: map[uuid.UUID]bool{memberID: true},
	}

	t.Run("header slug scopes the request context", func(t *testing.T) {
		var got uuid.UUID
		router := newTenantRouter(repo, memberID, &got)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
		req.Header.Set(TenantHeader, "acme")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if got != tenantID {
			t.Errorf("request context tenant = %s, want %s", got, tenantID)
		}
	})

	t.Run("single membership binds without a header", func(t *testing.T) {
		var got uuid.UUID
		router := newTenantRouter(repo, memberID, &got)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scoped", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
		if got != tenantID {
			t.Errorf("request context tenant = %s, want %s", got, tenantID)
		}
	})

	t.Run("non-members are refused", func(t *testing.T) {
		var got uuid.UUID
		router := newTenantRouter(repo, strangerID, &got)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
		req.Header.Set(TenantHeader, "acme")
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
	})

	t.Run("unresolved tenant is rejected by RequireTenant", func(t *testing.T) {
		var got uuid.UUID
		router := newTenantRouter(repo, strangerID, &got)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/scoped", nil))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})
}
