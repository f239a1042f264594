package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/presentation/http/dto/response"
)

// pathID parses the id path parameter, responding 400 with the resource
// name on a malformed value.
func pathID(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid "+resource+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// Accessors for the identity the auth middleware stows in the Gin
// context. A failed assertion reads the same as an absent value.

func GetUserID(c *gin.Context) *uuid.UUID {
	if userID, ok := c.Value("user_id").(uuid.UUID); ok {
		return &userID
	}
	return nil
}

func GetUserEmail(c *gin.Context) string {
	email, _ := c.Value("user_email").(string)
	return email
}

func GetUserRoles(c *gin.Context) []string {
	roles, _ := c.Value("user_roles").([]string)
	return roles
}

func GetUserPermissions(c *gin.Context) []string {
	permissions, _ := c.Value("user_permissions").([]string)
	return permissions
}

// IsSuperAdmin reports whether the request may cross tenant boundaries.
func IsSuperAdmin(c *gin.Context) bool {
	for _, role := range GetUserRoles(c) {
		if role == "super-admin" {
			return true
		}
	}
	return false
}
