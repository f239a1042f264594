package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant is a store on the platform. Every order, refund and exchange
// hangs off exactly one tenant, and the tenant's Settings carry the
// refund policy the money flows enforce.
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	Settings  TenantSettings `gorm:"type:jsonb;serializer:json" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Owner   User               `gorm:"foreignKey:OwnerID" json:"-"`
	Members []TenantMembership `gorm:"foreignKey:TenantID" json:"-"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (Tenant) TableName() string {
	return "tenants"
}

// TenantMembership links a staff account to a store. The Role here is
// the membership role (owner, admin, member), separate from the RBAC
// roles that gate individual refund operations.
type TenantMembership struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tenant_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      string    `gorm:"size:50;default:'member'" json:"role"`
	CreatedAt time.Time `json:"created_at"`

	Tenant Tenant `gorm:"foreignKey:TenantID" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// Filled by PopulateUserDetails for membership listings.
	MemberUser *MemberUser `gorm:"-" json:"user,omitempty"`
}

// MemberUser is the slice of user fields exposed in membership responses.
type MemberUser struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}

func (tm *TenantMembership) PopulateUserDetails() {
	if tm.User.ID != uuid.Nil {
		tm.MemberUser = &MemberUser{
			ID:        tm.User.ID,
			FirstName: tm.User.FirstName,
			LastName:  tm.User.LastName,
			Email:     tm.User.Email,
		}
	}
}

func (TenantMembership) TableName() string {
	return "tenant_memberships"
}

// TenantSettings is the per-store configuration blob, stored as jsonb.
// RefundWindow and Features.EnableExchanges are read on every refund
// and exchange request; the rest is presentation and tax metadata.
type TenantSettings struct {
	// Branding
	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`

	// Localization. Currency is the tenant default; each order and
	// customer row denormalizes its own currency at creation time.
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Locale   string `json:"locale,omitempty"`

	// Tax and document numbering
	TaxRate      float64 `json:"tax_rate,omitempty"`
	TaxLabel     string  `json:"tax_label,omitempty"`
	RefundPrefix string  `json:"refund_prefix,omitempty"`

	// RefundWindow is the number of days after an order is placed during
	// which it still accepts refunds. Zero means no window is enforced.
	RefundWindow int `json:"refund_window_days,omitempty"`

	// Notifications
	EmailNotifications bool   `json:"email_notifications,omitempty"`
	WebhookURL         string `json:"webhook_url,omitempty"`

	Features TenantFeatures `json:"features,omitempty"`
}

// TenantFeatures gates optional flows per store.
type TenantFeatures struct {
	EnableExchanges bool `json:"exchanges"`
}

// Scan implements sql.Scanner so settings round-trip through jsonb.
func (ts *TenantSettings) Scan(value interface{}) error {
	if value == nil {
		*ts = TenantSettings{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan TenantSettings: unsupported type")
	}

	return json.Unmarshal(bytes, ts)
}

// Value implements driver.Valuer for TenantSettings.
func (ts TenantSettings) Value() (driver.Value, error) {
	return json.Marshal(ts)
}

// DefaultTenantSettings is applied to new stores that register without
// an explicit settings payload.
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		Currency:           "KES",
		Timezone:           "Africa/Nairobi",
		Locale:             "en-KE",
		TaxRate:            16.0,
		TaxLabel:           "VAT",
		RefundPrefix:       "RFD-",
		RefundWindow:       30,
		EmailNotifications: true,
		Features: TenantFeatures{
			EnableExchanges: true,
		},
	}
}
