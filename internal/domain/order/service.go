// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"

	"github.com/your-org/jewelry-storefront/internal/config"
	"github.com/your-org/jewelry-storefront/internal/domain/cart"
	"github.com/your-org/jewelry-storefront/internal/domain/product"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ListResponse is a page of orders with the total count.
type ListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// List returns orders for the admin view, newest first.
func (s *Service) List(ctx context.Context, page, limit int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Order{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ListResponse{
		Orders: orders,
		Total:  total,
		Page:   page,
		Limit:  limit,
	}, nil
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	var ord Order
	err := s.db.WithContext(ctx).Preload("Items").First(&ord, id).Error
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}
	return &ord, nil
}

// PlaceFromCart creates an order from the given cart lines. Prices
// are taken from the product table at placement time, not from cart
// snapshots.
func (s *Service) PlaceFromCart(ctx context.Context, userID uint, email string, lines []cart.Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("cannot place an order from an empty cart")
	}

	var ord Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subtotal int64
		items := make([]OrderItem, 0, len(lines))

		for _, line := range lines {
			var prod product.Product
			if err := tx.Where("id = ? AND is_active = ?", line.ProductID, true).First(&prod).Error; err != nil {
				return fmt.Errorf("product %d not available: %w", line.ProductID, err)
			}

			total := prod.Price * int64(line.Quantity)
			subtotal += total
			items = append(items, OrderItem{
				ProductID:  line.ProductID,
				Name:       prod.Name,
				Variant:    line.Variant,
				Quantity:   line.Quantity,
				Price:      prod.Price,
				TotalPrice: total,
			})
		}

		ord = Order{
			UserID:         &userID,
			Email:          email,
			Status:         OrderStatusPending,
			SubtotalAmount: subtotal,
			TotalAmount:    subtotal,
			Currency:       "USD",
			Items:          items,
		}
		if err := tx.Create(&ord).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		// Order number embeds the row id, so it is set after create.
		ord.OrderNumber = ord.GenerateOrderNumber()
		return tx.Model(&Order{}).Where("id = ?", ord.ID).
			Update("order_number", ord.OrderNumber).Error
	})
	if err != nil {
		return nil, err
	}

	return &ord, nil
}

// UpdateStatus moves an order to a new status. Touching the row also
// advances updated_at, which is what the change-detection poller
// observes.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status OrderStatus) (*Order, error) {
	var ord Order
	if err := s.db.WithContext(ctx).First(&ord, id).Error; err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}

	if status == OrderStatusCancelled && !ord.CanBeCancelled() {
		return nil, fmt.Errorf("order %s cannot be cancelled in status %s", ord.OrderNumber, ord.Status)
	}

	ord.Status = status
	if err := s.db.WithContext(ctx).Save(&ord).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &ord, nil
}
