package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/refundify-api/internal/config"
	"github.com/sangkips/refundify-api/internal/domain/entity"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Accounts and authorization
		&entity.User{},
		&entity.Role{},
		&entity.Permission{},

		// Tenancy
		&entity.Tenant{},

		// Catalog
		&entity.Category{},
		&entity.Unit{},
		&entity.Product{},

		// Purchasers
		&entity.Customer{},

		// Sales
		&entity.Order{},
		&entity.OrderItem{},
		&entity.Payment{},
		&entity.PaymentTransaction{},

		// Refunds and exchanges
		&entity.RefundItem{},
		&entity.RefundAuditLog{},
		&entity.ExchangeSession{},

		// Request replay protection
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// pickPermissions selects the named subset from the seeded permission set.
func pickPermissions(all []entity.Permission, names ...string) []entity.Permission {
	var picked []entity.Permission
	for _, name := range names {
		for _, p := range all {
			if p.Name == name {
				picked = append(picked, p)
				break
			}
		}
	}
	return picked
}

// ensureRole creates the role with the given permissions unless a role of
// that name already exists. Seeding never mutates existing roles.
func ensureRole(db *gorm.DB, name string, perms []entity.Permission) {
	var existing entity.Role
	if err := db.Where("name = ?", name).First(&existing).Error; err == nil {
		return
	}
	role := entity.Role{
		Name:        name,
		GuardName:   "web",
		Permissions: perms,
	}
	if err := db.Create(&role).Error; err != nil {
		log.Printf("Warning: failed to create %s role: %v", name, err)
	}
}

// SeedDefaultData seeds the database with default data (roles, permissions, admin user)
func SeedDefaultData(db *gorm.DB) error {
	log.Println("Seeding default data...")

	permissions := []entity.Permission{
		{Name: "manage-products", GuardName: "web"},
		{Name: "manage-orders", GuardName: "web"},
		{Name: "manage-refunds", GuardName: "web"},
		{Name: "manage-customers", GuardName: "web"},
		{Name: "manage-categories", GuardName: "web"},
		{Name: "manage-units", GuardName: "web"},
		{Name: "manage-users", GuardName: "web"},
	}
	for i := range permissions {
		var existing entity.Permission
		if err := db.Where("name = ?", permissions[i].Name).First(&existing).Error; err != nil {
			if err := db.Create(&permissions[i]).Error; err != nil {
				log.Printf("Warning: failed to create permission %s: %v", permissions[i].Name, err)
			}
		}
	}

	// Reload with IDs assigned
	var allPermissions []entity.Permission
	db.Find(&allPermissions)

	ensureRole(db, "super-admin", allPermissions)
	ensureRole(db, "admin", allPermissions)

	// Staff can sell and refund but not administer the catalog or users
	ensureRole(db, "staff", pickPermissions(allPermissions,
		"manage-orders", "manage-refunds", "manage-customers"))

	// New registrants start here
	ensureRole(db, "user", pickPermissions(allPermissions,
		"manage-customers", "manage-categories", "manage-units"))

	seedSuperAdmin(db)

	log.Println("Default data seeding completed")
	return nil
}

// seedSuperAdmin creates the bootstrap operator account when configured
// through ADMIN_EMAIL and ADMIN_PASSWORD.
func seedSuperAdmin(db *gorm.DB) {
	adminEmail := viper.GetString("ADMIN_EMAIL")
	adminPassword := viper.GetString("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		return
	}

	var existing entity.User
	if err := db.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		log.Printf("Super admin user already exists: %s", adminEmail)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Warning: failed to hash admin password: %v", err)
		return
	}

	var saRole entity.Role
	if err := db.Where("name = ?", "super-admin").First(&saRole).Error; err != nil {
		return
	}

	adminName := viper.GetString("ADMIN_NAME")
	if adminName == "" {
		adminName = "Super Admin"
	}
	firstName, lastName, _ := strings.Cut(adminName, " ")

	adminUser := entity.User{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     adminEmail,
		Password:  string(hashed),
		Roles:     []entity.Role{saRole},
	}
	if err := db.Create(&adminUser).Error; err != nil {
		log.Printf("Warning: failed to create super admin user: %v", err)
		return
	}
	log.Printf("Super admin user created: %s", adminEmail)
}
