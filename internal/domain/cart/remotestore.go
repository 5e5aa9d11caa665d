// internal/domain/cart/remotestore.go
package cart

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

// RemoteStore is the persistence collaborator for authenticated
// carts. The engine only talks to the remote cart through this
// interface.
type RemoteStore interface {
	ListLines(ctx context.Context, userID uint) ([]Line, error)
	AddOrIncrement(ctx context.Context, userID uint, productID uint, variant string, quantity int) error
	SetQuantity(ctx context.Context, userID uint, lineID string, quantity int) error
	DeleteLine(ctx context.Context, userID uint, lineID string) error
}

// GormStore implements RemoteStore over the cart_items table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed remote cart store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ListLines returns the user's cart rows in insertion order.
func (s *GormStore) ListLines(ctx context.Context, userID uint) ([]Line, error) {
	var items []CartItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}

	lines := make([]Line, len(items))
	for i, item := range items {
		lines[i] = Line{
			ID:        strconv.FormatUint(uint64(item.ID), 10),
			ProductID: item.ProductID,
			Variant:   item.Variant,
			Quantity:  item.Quantity,
			AddedAt:   item.CreatedAt,
		}
	}
	return lines, nil
}

// AddOrIncrement creates a row for the (product, variant) pair or
// bumps the quantity of the existing one. At most one row per pair
// exists for a user.
func (s *GormStore) AddOrIncrement(ctx context.Context, userID uint, productID uint, variant string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing CartItem
		result := tx.Where("user_id = ? AND product_id = ? AND variant = ?",
			userID, productID, variant).First(&existing)

		if result.Error == gorm.ErrRecordNotFound {
			item := CartItem{
				UserID:    userID,
				ProductID: productID,
				Variant:   variant,
				Quantity:  quantity,
			}
			return tx.Create(&item).Error
		} else if result.Error != nil {
			return result.Error
		}

		existing.Quantity += quantity
		return tx.Save(&existing).Error
	})
}

// SetQuantity sets the quantity of an existing row. A row id the user
// does not own is a no-op.
func (s *GormStore) SetQuantity(ctx context.Context, userID uint, lineID string, quantity int) error {
	id, err := parseRowID(lineID)
	if err != nil {
		return err
	}
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	return s.db.WithContext(ctx).Model(&CartItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("quantity", quantity).Error
}

// DeleteLine removes a row. A row id the user does not own is a
// no-op.
func (s *GormStore) DeleteLine(ctx context.Context, userID uint, lineID string) error {
	id, err := parseRowID(lineID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&CartItem{}).Error
}

func parseRowID(lineID string) (uint, error) {
	id, err := strconv.ParseUint(lineID, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid cart line id %q", lineID)
	}
	return uint(id), nil
}
