// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncMetricsProvider implements SyncMetricsProvider using GORM.
// It queries the marketplace tables directly for aggregated backlog metrics.
type GormSyncMetricsProvider struct {
	db *gorm.DB
}

// NewGormSyncMetricsProvider creates a new GormSyncMetricsProvider.
func NewGormSyncMetricsProvider(db *gorm.DB) *GormSyncMetricsProvider {
	return &GormSyncMetricsProvider{db: db}
}

// GetPendingListingCounts returns the number of sync-pending listings per shop.
func (p *GormSyncMetricsProvider) GetPendingListingCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		ShopID  uuid.UUID `gorm:"column:shop_id"`
		Pending int64     `gorm:"column:pending"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("marketplace_listings").
		Select("shop_id, COUNT(*) as pending").
		Where("sync_status = ?", "pending").
		Group("shop_id").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.ShopID] = r.Pending
	}

	return m, nil
}

// GetSuspendedConnectionCount returns the number of connections whose failure
// circuit has tripped.
func (p *GormSyncMetricsProvider) GetSuspendedConnectionCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("marketplace_connections").
		Where("status = ? AND is_active = ?", "error", true).
		Count(&count).Error

	return count, err
}

// Ensure GormSyncMetricsProvider implements SyncMetricsProvider
var _ SyncMetricsProvider = (*GormSyncMetricsProvider)(nil)
