// internal/domain/order/signal.go
package order

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Signal is the lightweight aggregate sampled to infer order-table
// mutations without a push channel. Only the newest sample and the
// one before it are ever held; there is no history.
type Signal struct {
	// LatestID is the id of the most recently created order.
	LatestID uint
	// LatestUpdatedAt is the last-modified time across all orders. It
	// may belong to a different order than LatestID when an older
	// order was touched.
	LatestUpdatedAt time.Time
	// TotalCount counts all orders visible to the admin.
	TotalCount int64
}

// SignalSource samples the current order signal.
type SignalSource interface {
	Sample(ctx context.Context) (Signal, error)
}

// GormSignalSource samples the orders table with a single aggregate
// query.
type GormSignalSource struct {
	db *gorm.DB
}

// NewGormSignalSource creates a database-backed signal source.
func NewGormSignalSource(db *gorm.DB) *GormSignalSource {
	return &GormSignalSource{db: db}
}

// Sample reads max(id), max(updated_at) and count(*) over orders.
func (s *GormSignalSource) Sample(ctx context.Context) (Signal, error) {
	var row struct {
		LatestID        uint
		LatestUpdatedAt time.Time
		TotalCount      int64
	}

	err := s.db.WithContext(ctx).Model(&Order{}).
		Select("COALESCE(MAX(id), 0) AS latest_id, COALESCE(MAX(updated_at), to_timestamp(0)) AS latest_updated_at, COUNT(*) AS total_count").
		Scan(&row).Error
	if err != nil {
		return Signal{}, fmt.Errorf("failed to sample order signal: %w", err)
	}

	return Signal{
		LatestID:        row.LatestID,
		LatestUpdatedAt: row.LatestUpdatedAt,
		TotalCount:      row.TotalCount,
	}, nil
}
