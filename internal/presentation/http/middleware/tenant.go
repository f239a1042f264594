package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/domain/repository"
	infraRepo "github.com/sangkips/refundify-api/internal/infrastructure/repository"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
)

// TenantHeader selects a tenant explicitly when the user belongs to more
// than one. Its value is the tenant slug.
const TenantHeader = "X-Tenant"

// ExtractTenantFromHost extracts tenant slug from subdomain
// e.g., "acme.refundify.com" -> "acme"
func ExtractTenantFromHost(host string) (string, error) {
	// Remove port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return "", errors.New("invalid subdomain")
	}
	return parts[0], nil
}

// TenantMiddleware resolves the tenant for the authenticated request and
// stores it in both the gin context and the request context, so services
// and repositories downstream see a scoped context.
//
// Resolution order: subdomain slug, then the X-Tenant header, then the
// user's own membership when they belong to exactly one tenant. Requests
// that resolve no tenant continue with a nil tenant id; groups that move
// money additionally register RequireTenant to reject those.
func TenantMiddleware(tenantRepo repository.TenantRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, authenticated := authenticatedUser(c)

		tenant, err := resolveTenant(c, tenantRepo, userID, authenticated)
		if err != nil {
			response.NotFound(c, "Tenant not found")
			c.Abort()
			return
		}

		if tenant == nil {
			c.Set("tenant_id", uuid.Nil)
			c.Next()
			return
		}

		// Members only, unless the user is a platform operator
		if authenticated && !hasRole(c, "super-admin") {
			isMember, err := tenantRepo.IsMember(c.Request.Context(), tenant.ID, userID)
			if err != nil || !isMember {
				response.Forbidden(c, "Access denied to this tenant")
				c.Abort()
				return
			}
		}

		c.Set("tenant_id", tenant.ID)
		c.Set("tenant", tenant)

		ctx := infraRepo.WithTenant(c.Request.Context(), tenant.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func resolveTenant(c *gin.Context, tenantRepo repository.TenantRepository, userID uuid.UUID, authenticated bool) (*entity.Tenant, error) {
	if slug, err := ExtractTenantFromHost(c.Request.Host); err == nil {
		return lookupBySlug(c, tenantRepo, slug)
	}

	if slug := c.GetHeader(TenantHeader); slug != "" {
		return lookupBySlug(c, tenantRepo, slug)
	}

	if !authenticated {
		return nil, nil
	}

	// Single-membership fallback: most operators work in one store
	tenants, err := tenantRepo.GetUserTenants(c.Request.Context(), userID)
	if err != nil || len(tenants) != 1 {
		return nil, nil
	}
	return &tenants[0], nil
}

func lookupBySlug(c *gin.Context, tenantRepo repository.TenantRepository, slug string) (*entity.Tenant, error) {
	tenant, err := tenantRepo.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, errors.New("unknown tenant")
	}
	return tenant, nil
}

func authenticatedUser(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireTenant ensures a valid tenant context exists
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, exists := c.Get("tenant_id")
		if !exists {
			response.BadRequest(c, "Tenant context required")
			c.Abort()
			return
		}

		id, ok := tenantID.(uuid.UUID)
		if !ok || id == uuid.Nil {
			response.BadRequest(c, "Tenant context required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) uuid.UUID {
	tenantID, exists := c.Get("tenant_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := tenantID.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
