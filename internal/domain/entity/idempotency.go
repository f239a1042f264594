package entity

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyKey stores processed requests so retried money-moving calls
// (refunds, exchanges, captures) replay the original response instead of
// running twice. Keys are unique per tenant and user; reusing a key with a
// different request body is rejected.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idem_tenant_user_key;size:255;not null"`
	TenantID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_idem_tenant_user_key;index"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_idem_tenant_user_key;not null"`
	Endpoint     string    `gorm:"size:255;not null"` // API endpoint (e.g., "POST /refunds")
	RequestHash  string    `gorm:"size:64"`           // SHA256 of the request body
	ResponseCode int       `gorm:"not null"`          // HTTP status code of original response
	ResponseBody string    `gorm:"type:text"`         // JSON response body (cached)
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"` // Keys expire after 24 hours
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
