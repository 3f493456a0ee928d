package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultBacklogInterval = 5 * time.Minute

// SyncMetricsProvider supplies sync backlog data for periodic collection.
// The indirection keeps the telemetry layer from importing the marketplace
// domain.
type SyncMetricsProvider interface {
	// GetPendingListingCounts returns the number of sync-pending listings per shop.
	GetPendingListingCounts(ctx context.Context) (map[uuid.UUID]int64, error)

	// GetSuspendedConnectionCount returns the number of connections whose
	// failure circuit has tripped.
	GetSuspendedConnectionCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // default 5 minutes
	SyncProvider    SyncMetricsProvider
}

// BusinessMetrics tracks listing sync outcomes, order ingestion and webhook
// activity, plus backlog gauges sampled from a SyncMetricsProvider.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	listingSyncTotal   *Counter
	orderPulledTotal   *Counter
	webhookEventsTotal *Counter

	listingsPendingCount      *Gauge
	connectionsSuspendedCount *Gauge

	syncProvider SyncMetricsProvider

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// NewBusinessMetrics creates the business metric instruments on the given meter.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:        cfg.Meter,
		logger:       logger,
		stopChan:     make(chan struct{}),
		syncProvider: cfg.SyncProvider,
	}

	var err error
	counter := func(name, desc, unit string) *Counter {
		if err != nil {
			return nil
		}
		var c *Counter
		c, err = NewCounter(cfg.Meter, name, desc, unit)
		return c
	}
	gauge := func(name, desc, unit string) *Gauge {
		if err != nil {
			return nil
		}
		var g *Gauge
		g, err = NewGauge(cfg.Meter, name, desc, unit)
		return g
	}

	bm.listingSyncTotal = counter("channelsync_listing_sync_total", "Total number of listing sync attempts", "{syncs}")
	bm.orderPulledTotal = counter("channelsync_order_pulled_total", "Total number of marketplace orders pulled", "{orders}")
	bm.webhookEventsTotal = counter("channelsync_webhook_events_total", "Total number of inbound webhook events", "{events}")
	bm.listingsPendingCount = gauge("channelsync_listings_pending_count", "Number of listings waiting for a sync", "{listings}")
	bm.connectionsSuspendedCount = gauge("channelsync_connections_suspended_count", "Number of connections suspended by the failure circuit", "{connections}")
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// SyncOutcome labels how a listing sync attempt ended for metrics.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeRetry   SyncOutcome = "retry"
	SyncOutcomeError   SyncOutcome = "error"
)

// RecordListingSync records one listing sync attempt. Called from the
// application layer after each sync.
func (bm *BusinessMetrics) RecordListingSync(ctx context.Context, shopID uuid.UUID, marketplaceName string, outcome SyncOutcome) {
	bm.listingSyncTotal.Inc(ctx,
		AttrShopID.String(shopID.String()),
		AttrMarketplace.String(marketplaceName),
		AttrSyncOutcome.String(string(outcome)),
	)
}

// PullOutcome labels what happened to one pulled order snapshot.
type PullOutcome string

const (
	PullOutcomeCreated   PullOutcome = "created"
	PullOutcomeUpdated   PullOutcome = "updated"
	PullOutcomeDiscarded PullOutcome = "discarded"
	PullOutcomeFailed    PullOutcome = "failed"
)

// RecordOrderPulled records a pulled marketplace order snapshot.
func (bm *BusinessMetrics) RecordOrderPulled(ctx context.Context, shopID uuid.UUID, marketplaceName string, outcome PullOutcome) {
	bm.orderPulledTotal.Inc(ctx,
		AttrShopID.String(shopID.String()),
		AttrMarketplace.String(marketplaceName),
		AttrPullOutcome.String(string(outcome)),
	)
}

// RecordOrderPullCounts records a full pull result in one call. Zero counts
// are skipped.
func (bm *BusinessMetrics) RecordOrderPullCounts(ctx context.Context, shopID uuid.UUID, marketplaceName string, created, updated, discarded, failed int) {
	record := func(outcome PullOutcome, n int) {
		if n <= 0 {
			return
		}
		bm.orderPulledTotal.Add(ctx, int64(n),
			AttrShopID.String(shopID.String()),
			AttrMarketplace.String(marketplaceName),
			AttrPullOutcome.String(string(outcome)),
		)
	}
	record(PullOutcomeCreated, created)
	record(PullOutcomeUpdated, updated)
	record(PullOutcomeDiscarded, discarded)
	record(PullOutcomeFailed, failed)
}

// WebhookResult labels the outcome of webhook ingestion.
type WebhookResult string

const (
	WebhookResultAccepted WebhookResult = "accepted"
	WebhookResultRejected WebhookResult = "rejected"
	WebhookResultFailed   WebhookResult = "failed"
)

// RecordWebhookEvent records an inbound webhook event.
func (bm *BusinessMetrics) RecordWebhookEvent(ctx context.Context, topic string, result WebhookResult) {
	bm.webhookEventsTotal.Inc(ctx,
		AttrWebhookTopic.String(topic),
		AttrWebhookResult.String(string(result)),
	)
}

// RecordPendingListings records the current sync-pending listing count for a shop.
func (bm *BusinessMetrics) RecordPendingListings(ctx context.Context, shopID uuid.UUID, count int64) {
	bm.listingsPendingCount.Record(ctx, count, AttrShopID.String(shopID.String()))
}

// RecordSuspendedConnections records the current suspended connection count.
func (bm *BusinessMetrics) RecordSuspendedConnections(ctx context.Context, count int64) {
	bm.connectionsSuspendedCount.Record(ctx, count)
}

// StartPeriodicCollection samples the backlog gauges every interval until
// Stop is called or the context is cancelled. Subsequent calls are no-ops.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = defaultBacklogInterval
		}
		go bm.collectLoop(ctx, interval)
	})
}

func (bm *BusinessMetrics) collectLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First sample right away, the ticker only covers steady state.
	bm.collectBacklogMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("stopping business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("context cancelled, stopping business metrics collection")
			return
		case <-ticker.C:
			bm.collectBacklogMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectBacklogMetrics(ctx context.Context) {
	if bm.syncProvider == nil {
		bm.logger.Debug("no sync provider configured, backlog gauges not collected")
		return
	}

	pendingByShop, err := bm.syncProvider.GetPendingListingCounts(ctx)
	if err != nil {
		bm.logger.Error("failed to get pending listing counts", zap.Error(err))
	} else {
		for shopID, count := range pendingByShop {
			bm.RecordPendingListings(ctx, shopID, count)
		}
	}

	suspended, err := bm.syncProvider.GetSuspendedConnectionCount(ctx)
	if err != nil {
		bm.logger.Error("failed to get suspended connection count", zap.Error(err))
		return
	}
	bm.RecordSuspendedConnections(ctx, suspended)
}

// Stop stops the periodic collection. Safe to call more than once.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when the config carries no meter.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Attribute keys for business metrics not already defined in metrics.go.
var (
	AttrSyncOutcome   = attribute.Key("sync_outcome")
	AttrPullOutcome   = attribute.Key("pull_outcome")
	AttrWebhookTopic  = attribute.Key("webhook_topic")
	AttrWebhookResult = attribute.Key("webhook_result")
)
