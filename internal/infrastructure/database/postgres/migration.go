// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/jewelry-storefront/internal/domain/cart"
	"github.com/your-org/jewelry-storefront/internal/domain/order"
	"github.com/your-org/jewelry-storefront/internal/domain/product"
	"github.com/your-org/jewelry-storefront/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&user.User{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional indexes...")

	indexes := []string{
		// One cart row per (user, product, variant); the merge relies
		// on add-or-increment never producing duplicates.
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_cart_items_user_product_variant ON cart_items (user_id, product_id, variant)",
		// The change-detection poller aggregates over these.
		"CREATE INDEX IF NOT EXISTS idx_orders_updated_at ON orders (updated_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)",
	}

	for _, idx := range indexes {
		if err := m.db.Exec(idx).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Indexes created successfully")
	return nil
}

// SeedInitialData seeds the database with initial development data
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	// Admin user
	var adminCount int64
	m.db.Model(&user.User{}).Where("is_admin = ?", true).Count(&adminCount)
	if adminCount == 0 {
		hashed, err := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin := user.User{
			Email:     "admin@example.com",
			Password:  string(hashed),
			FirstName: "Store",
			LastName:  "Admin",
			IsActive:  true,
			IsAdmin:   true,
		}
		if err := m.db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		log.Println("Seeded admin user admin@example.com")
	}

	// Sample products
	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount == 0 {
		products := []product.Product{
			{
				Name:        "Gold Solitaire Ring",
				Slug:        "gold-solitaire-ring",
				Description: "18k gold ring with a single brilliant-cut diamond.",
				Price:       129900,
				Image:       "/images/gold-solitaire-ring.jpg",
				Category:    "rings",
				Variants:    "5,6,7,8,9",
				IsActive:    true,
			},
			{
				Name:        "Silver Pendant Necklace",
				Slug:        "silver-pendant-necklace",
				Description: "Sterling silver chain with a teardrop pendant.",
				Price:       45900,
				Image:       "/images/silver-pendant-necklace.jpg",
				Category:    "necklaces",
				IsActive:    true,
			},
			{
				Name:        "Pearl Stud Earrings",
				Slug:        "pearl-stud-earrings",
				Description: "Freshwater pearl studs with 14k gold posts.",
				Price:       32500,
				Image:       "/images/pearl-stud-earrings.jpg",
				Category:    "earrings",
				IsActive:    true,
			},
		}
		for _, p := range products {
			if err := m.db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
			}
		}
		log.Printf("Seeded %d products", len(products))
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}
