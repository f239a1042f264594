package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/application/service"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
	"github.com/sangkips/refundify-api/internal/presentation/http/middleware"
)

// TenantHandler exposes store management: registration, settings (which
// carry the refund policy) and staff memberships.
type TenantHandler struct {
	tenantService *service.TenantService
}

func NewTenantHandler(tenantService *service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// activeTenant resolves the tenant the request is acting on. A zero ID
// means the middleware could not bind one; the caller must bail out.
func activeTenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID := middleware.GetTenantID(c)
	if tenantID == uuid.Nil {
		response.BadRequest(c, "No active tenant")
		return uuid.Nil, false
	}
	return tenantID, true
}

// pathUserID parses the user_id path parameter.
func pathUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}

// Create registers a new store owned by the authenticated user.
func (h *TenantHandler) Create(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Name     string                 `json:"name" binding:"required"`
		Slug     string                 `json:"slug" binding:"required,alphanum,lowercase"`
		Settings *entity.TenantSettings `json:"settings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenantService.CreateTenant(c.Request.Context(), &service.CreateTenantInput{
		Name:     req.Name,
		Slug:     req.Slug,
		OwnerID:  *userID,
		Settings: req.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Tenant created successfully", gin.H{
		"tenant": tenant,
	})
}

// GetCurrentTenant returns the store the request is scoped to.
func (h *TenantHandler) GetCurrentTenant(c *gin.Context) {
	tenantID, ok := activeTenant(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.GetTenant(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tenant retrieved successfully", gin.H{
		"tenant": tenant,
	})
}

// ListTenants returns the stores the user belongs to. Super admins see
// every store on the platform.
func (h *TenantHandler) ListTenants(c *gin.Context) {
	userID := GetUserID(c)
	if userID == nil {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	var tenants []entity.Tenant
	var err error
	if IsSuperAdmin(c) {
		tenants, err = h.tenantService.ListAllTenants(c.Request.Context())
	} else {
		tenants, err = h.tenantService.GetUserTenants(c.Request.Context(), *userID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tenants retrieved successfully", gin.H{
		"tenants": tenants,
	})
}

// UpdateTenant renames the current store or replaces its settings.
// Settings changes, including the refund window and the exchanges
// flag, apply to the next money request.
func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	tenantID, ok := activeTenant(c)
	if !ok {
		return
	}

	var req struct {
		Name     string                 `json:"name"`
		Settings *entity.TenantSettings `json:"settings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	tenant, err := h.tenantService.UpdateTenant(c.Request.Context(), &service.UpdateTenantInput{
		ID:       tenantID,
		Name:     req.Name,
		Settings: req.Settings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Tenant updated successfully", gin.H{
		"tenant": tenant,
	})
}

// ListMembers returns the current store's staff.
func (h *TenantHandler) ListMembers(c *gin.Context) {
	tenantID, ok := activeTenant(c)
	if !ok {
		return
	}

	members, err := h.tenantService.GetTenantMembers(c.Request.Context(), tenantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Members retrieved successfully", gin.H{
		"members": members,
	})
}

// InviteMember adds a staff account to the current store.
func (h *TenantHandler) InviteMember(c *gin.Context) {
	tenantID, ok := activeTenant(c)
	if !ok {
		return
	}

	var req struct {
		UserID uuid.UUID `json:"user_id" binding:"required"`
		Role   string    `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	err := h.tenantService.InviteMember(c.Request.Context(), &service.InviteMemberInput{
		TenantID: tenantID,
		UserID:   req.UserID,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Member invited successfully", nil)
}

// RemoveMember removes a staff account from the current store.
func (h *TenantHandler) RemoveMember(c *gin.Context) {
	tenantID, ok := activeTenant(c)
	if !ok {
		return
	}
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	if err := h.tenantService.RemoveMember(c.Request.Context(), tenantID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Member removed successfully", nil)
}

// UpdateMemberRole changes a member's store role.
func (h *TenantHandler) UpdateMemberRole(c *gin.Context) {
	tenantID, ok := activeTenant(c)
	if !ok {
		return
	}
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.tenantService.UpdateMemberRole(c.Request.Context(), tenantID, userID, req.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Member role updated successfully", nil)
}

// ListAllTenants is the super admin listing of every store.
func (h *TenantHandler) ListAllTenants(c *gin.Context) {
	tenants, err := h.tenantService.ListAllTenants(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "All tenants retrieved successfully", gin.H{
		"tenants": tenants,
	})
}

// AssignUserToTenant enrolls a user into any store (super admin only).
// The role defaults to member in the service.
func (h *TenantHandler) AssignUserToTenant(c *gin.Context) {
	var req struct {
		TenantID uuid.UUID `json:"tenant_id" binding:"required"`
		UserID   uuid.UUID `json:"user_id" binding:"required"`
		Role     string    `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	err := h.tenantService.AssignUserToTenant(c.Request.Context(), &service.AssignUserToTenantInput{
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "User assigned to tenant successfully", nil)
}
