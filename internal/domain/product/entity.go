// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a storefront product
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"not null;size:255" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null" json:"price"` // In cents
	Image       string `gorm:"size:500" json:"image"`
	Category    string `gorm:"size:100;index" json:"category"`
	// Variants lists the selectable options for this product,
	// e.g. ring sizes ("5,6,7,8"). Empty means no variants.
	Variants  string         `gorm:"size:255" json:"variants"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}
