package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/channelsync/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// newDisabledMeterProvider builds a disabled provider. Instruments on it
// are no-ops but must still construct and record without error.
func newDisabledMeterProvider(t *testing.T) *telemetry.MeterProvider {
	t.Helper()

	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "channelsync-backend",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)
	return mp
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp := newDisabledMeterProvider(t)

	assert.False(t, mp.IsEnabled())

	cfg := mp.GetConfig()
	assert.Equal(t, "channelsync-backend", cfg.ServiceName)
	assert.False(t, cfg.Enabled)

	// Meter still works, backed by the global no-op provider.
	assert.NotNil(t, mp.Meter("listing.sync"))

	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestMeterProvider_ShutdownCancelledContext(t *testing.T) {
	mp := newDisabledMeterProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A disabled provider has nothing to flush, so even a dead context
	// shuts down cleanly.
	assert.NoError(t, mp.Shutdown(ctx))
}

// Needs a collector listening on localhost:14317 (make otel-up).
func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    1 * time.Second,
		ServiceName:       "channelsync-backend",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.True(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("listing.sync"))
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_ZeroExportInterval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    0,
		ServiceName:       "channelsync-backend",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	_ = mp.Shutdown(ctx)
}

func TestNewMeterProvider_InvalidEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The gRPC exporter connects lazily, so construction can succeed even
	// with an unreachable endpoint.
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "invalid-host:99999",
		ExportInterval:    1 * time.Second,
		ServiceName:       "channelsync-backend",
	}, logger)
	if err != nil {
		t.Logf("connection error: %v", err)
		return
	}
	_ = mp.Shutdown(context.Background())
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("listing.sync")

	counter, err := telemetry.NewCounter(meter, "listing_sync_total", "Total listing sync attempts", "{sync}")
	require.NoError(t, err)
	require.NotNil(t, counter)

	counter.Add(ctx, 5, telemetry.AttrMarketplace.String("amazon"))
	counter.Add(ctx, 10, telemetry.AttrMarketplace.String("ebay"))
	counter.Inc(ctx)
	counter.Inc(ctx, attribute.String("status", "failed"))
}

func TestHistogram(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("listing.sync")

	t.Run("record with boundaries", func(t *testing.T) {
		hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "adapter_publish_duration_seconds",
			Description: "Marketplace publish latency",
			Unit:        "s",
			Boundaries:  telemetry.HTTPDurationBuckets,
		})
		require.NoError(t, err)
		require.NotNil(t, hist)

		hist.Record(ctx, 0.005, telemetry.AttrMarketplace.String("amazon"))
		hist.Record(ctx, 0.5, telemetry.AttrMarketplace.String("ebay"))
		hist.Record(ctx, 5.0)
	})

	t.Run("record durations", func(t *testing.T) {
		hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "order_pull_duration_seconds",
			Description: "Order pull latency",
			Unit:        "s",
			Boundaries:  telemetry.DBDurationBuckets,
		})
		require.NoError(t, err)

		hist.RecordDuration(ctx, 5*time.Millisecond)
		hist.RecordDuration(ctx, 100*time.Millisecond, telemetry.AttrDBOperation.String("SELECT"))
		hist.RecordDuration(ctx, 1*time.Second, telemetry.AttrDBOperation.String("INSERT"))
	})

	t.Run("custom boundaries", func(t *testing.T) {
		hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "webhook_dispatch_duration_seconds",
			Description: "Webhook dispatch latency",
			Unit:        "s",
			Boundaries:  []float64{0.1, 0.5, 1.0, 5.0, 10.0},
		})
		require.NoError(t, err)
		require.NotNil(t, hist)

		hist.Record(ctx, 0.25)
	})

	t.Run("SDK default boundaries", func(t *testing.T) {
		hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
			Name:        "catalog_resolve_duration_seconds",
			Description: "Catalog resolution latency",
			Unit:        "s",
		})
		require.NoError(t, err)
		require.NotNil(t, hist)

		hist.Record(ctx, 1.5)
	})
}

func TestGauge(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("listing.sync")

	gauge, err := telemetry.NewGauge(meter, "active_connections", "Active marketplace connections", "{connection}")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 10)
	gauge.Record(ctx, 15, telemetry.AttrMarketplace.String("amazon"))
	gauge.Record(ctx, 5, telemetry.AttrMarketplace.String("ebay"))
}

func TestFloatGauge(t *testing.T) {
	ctx := context.Background()
	meter := newDisabledMeterProvider(t).Meter("listing.sync")

	gauge, err := telemetry.NewFloatGauge(meter, "sync_backlog_ratio", "Pending syncs over capacity", "1")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 0.45)
	gauge.Record(ctx, 0.78, telemetry.AttrMarketplace.String("amazon"))
}

func TestAttributeKeys(t *testing.T) {
	keys := map[attribute.Key]string{
		telemetry.AttrShopID:         "shop_id",
		telemetry.AttrUserID:         "user_id",
		telemetry.AttrHTTPMethod:     "http.method",
		telemetry.AttrHTTPStatusCode: "http.status_code",
		telemetry.AttrHTTPRoute:      "http.route",
		telemetry.AttrDBOperation:    "db.operation",
		telemetry.AttrDBTable:        "db.table",
		telemetry.AttrDBState:        "db.pool.state",
		telemetry.AttrMarketplace:    "marketplace",
		telemetry.AttrConnectionID:   "connection_id",
		telemetry.AttrListingID:      "listing_id",
		telemetry.AttrProductID:      "product_id",
	}

	for key, want := range keys {
		assert.Equal(t, want, string(key))
	}
}

func TestBucketBoundaries(t *testing.T) {
	assert.Equal(t, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, telemetry.HTTPDurationBuckets)
	assert.Equal(t, []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, telemetry.DBDurationBuckets)
	assert.Equal(t, []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}, telemetry.SmallDurationBuckets)
}
