// internal/domain/cart/catalog.go
package cart

import (
	"context"
	"fmt"

	"github.com/your-org/jewelry-storefront/internal/domain/product"
	"gorm.io/gorm"
)

// Catalog resolves product display data. The anonymous cart uses it
// to fill line snapshots for optimistic rendering; the HTTP layer
// uses it to decorate authenticated lines that carry only a product
// reference.
type Catalog interface {
	DisplayData(ctx context.Context, productID uint) (*Snapshot, error)
}

// GormCatalog reads display data from the products table.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a database-backed catalog.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// DisplayData returns the snapshot for an active product.
func (c *GormCatalog) DisplayData(ctx context.Context, productID uint) (*Snapshot, error) {
	var prod product.Product
	err := c.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&prod).Error
	if err != nil {
		return nil, fmt.Errorf("product not found or inactive: %w", err)
	}

	return &Snapshot{
		Name:  prod.Name,
		Price: prod.Price,
		Image: prod.Image,
	}, nil
}
