package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newLogsProvider(t *testing.T, cfg LogsConfig) *LoggerProvider {
	t.Helper()

	provider, err := NewLoggerProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, provider)

	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	return provider
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	provider := newLogsProvider(t, LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "channelsync-backend",
		Insecure:          true,
	})

	assert.False(t, provider.IsEnabled())
	assert.Nil(t, provider.GetLoggerProvider())
	assert.NoError(t, provider.ForceFlush(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

// An enabled provider does not need a reachable collector at construction
// time. The exporter buffers until the endpoint comes up.
func TestNewLoggerProvider_EnabledWithoutCollector(t *testing.T) {
	provider := newLogsProvider(t, LogsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:19999",
		ServiceName:       "channelsync-backend",
		Insecure:          true,
	})

	assert.True(t, provider.IsEnabled())
	assert.NotNil(t, provider.GetLoggerProvider())
}

func TestLoggerProvider_GetConfig(t *testing.T) {
	cfg := LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "channelsync-backend",
		Insecure:          true,
	}

	provider := newLogsProvider(t, cfg)
	assert.Equal(t, cfg, provider.GetConfig())
}

func TestLoggerProvider_ShutdownIdempotent(t *testing.T) {
	provider := newLogsProvider(t, LogsConfig{Enabled: false})

	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewZapOTELCore(t *testing.T) {
	t.Run("nil provider yields nop core", func(t *testing.T) {
		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "channelsync-backend",
			LoggerProvider: nil,
			Level:          zapcore.InfoLevel,
		})

		require.NotNil(t, core)
		assert.False(t, core.Enabled(zapcore.InfoLevel))
	})

	t.Run("disabled provider yields nop core", func(t *testing.T) {
		provider := newLogsProvider(t, LogsConfig{Enabled: false})

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "channelsync-backend",
			LoggerProvider: provider,
			Level:          zapcore.InfoLevel,
		})

		require.NotNil(t, core)
		assert.False(t, core.Enabled(zapcore.InfoLevel))
	})

	t.Run("debug level passes everything through", func(t *testing.T) {
		provider := newLogsProvider(t, LogsConfig{
			Enabled:           true,
			CollectorEndpoint: "localhost:19999",
			ServiceName:       "channelsync-backend",
			Insecure:          true,
		})

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "channelsync-backend",
			LoggerProvider: provider,
			Level:          zapcore.DebugLevel,
		})

		require.NotNil(t, core)
		for _, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
			assert.True(t, core.Enabled(lvl), "level %s", lvl)
		}
	})

	t.Run("warn level wraps with filter", func(t *testing.T) {
		provider := newLogsProvider(t, LogsConfig{
			Enabled:           true,
			CollectorEndpoint: "localhost:19999",
			ServiceName:       "channelsync-backend",
			Insecure:          true,
		})

		core := NewZapOTELCore(ZapBridgeConfig{
			ServiceName:    "channelsync-backend",
			LoggerProvider: provider,
			Level:          zapcore.WarnLevel,
		})

		require.NotNil(t, core)
		_, isFiltered := core.(*levelFilterCore)
		assert.True(t, isFiltered, "core should be wrapped with levelFilterCore")

		assert.False(t, core.Enabled(zapcore.DebugLevel))
		assert.False(t, core.Enabled(zapcore.InfoLevel))
		assert.True(t, core.Enabled(zapcore.WarnLevel))
		assert.True(t, core.Enabled(zapcore.ErrorLevel))
	})
}

func TestNewBridgedLogger(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)

	logger := NewBridgedLogger(observedCore, zapcore.NewNopCore(), zap.AddCaller())

	logger.Info("sync started", zap.String("marketplace", "amazon"))
	logger.Debug("payload dump")
	logger.Warn("rate limited")

	logs := observedLogs.All()
	require.Len(t, logs, 2)

	assert.Equal(t, "sync started", logs[0].Message)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Contains(t, logs[0].Context, zap.String("marketplace", "amazon"))

	assert.Equal(t, "rate limited", logs[1].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
}

func TestCreateBridgedLoggerFromConfig(t *testing.T) {
	provider := newLogsProvider(t, LogsConfig{Enabled: false})

	logger, err := CreateBridgedLoggerFromConfig(&BaseLoggerConfig{
		Level:      "debug",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, provider, "channelsync-backend")
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Console side receives the record; the OTEL core is a nop here.
	logger.Info("listing published",
		zap.String("shop_id", "shop-42"),
		zap.String("listing_id", "lst-7"),
		zap.String("marketplace", "ebay"),
	)
	_ = logger.Sync()
}

func TestDefaultBaseLoggerConfig(t *testing.T) {
	cfg := DefaultBaseLoggerConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "input %q", tt.input)
	}
}

func TestCreateLogEncoder(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "order imported"}

	t.Run("json", func(t *testing.T) {
		encoder := createLogEncoder(&BaseLoggerConfig{
			Format:     "json",
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		require.NotNil(t, encoder)

		buf, err := encoder.EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), `"level":"info"`)
		assert.Contains(t, buf.String(), `"msg":"order imported"`)
	})

	t.Run("console", func(t *testing.T) {
		encoder := createLogEncoder(&BaseLoggerConfig{
			Format:     "console",
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		require.NotNil(t, encoder)

		buf, err := encoder.EncodeEntry(entry, nil)
		require.NoError(t, err)
		assert.NotContains(t, buf.String(), `"level"`)
	})
}

func TestCreateLogWriter(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "/tmp/channelsync.log"} {
		assert.NotNil(t, createLogWriter(output), "output %q", output)
	}
}

func TestCreateBaseCore(t *testing.T) {
	core := createBaseCore(&BaseLoggerConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	require.NotNil(t, core)

	assert.True(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.False(t, core.Enabled(zapcore.DebugLevel))
}

func TestLevelFilterCore(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observedCore, minLevel: zapcore.WarnLevel}

	assert.False(t, filtered.Enabled(zapcore.DebugLevel))
	assert.False(t, filtered.Enabled(zapcore.InfoLevel))
	assert.True(t, filtered.Enabled(zapcore.WarnLevel))
	assert.True(t, filtered.Enabled(zapcore.ErrorLevel))

	logger := zap.New(filtered)
	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")

	logs := observedLogs.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warn", logs[0].Message)
	assert.Equal(t, "error", logs[1].Message)
}

func TestLevelFilterCore_With(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observedCore, minLevel: zapcore.WarnLevel}

	child := filtered.With([]zapcore.Field{zap.String("component", "webhook")})
	require.NotNil(t, child)

	// With must preserve the filtering wrapper.
	lfCore, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lfCore.minLevel)

	zap.New(child).Warn("delivery failed")

	logs := observedLogs.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "delivery failed", logs[0].Message)
	assert.Contains(t, logs[0].Context, zap.String("component", "webhook"))
}

func TestBridgedFieldEncoding(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&buf),
		zapcore.DebugLevel,
	)

	zap.New(core).Info("listing synced",
		zap.String("sku", "SKU-RED-M"),
		zap.Int("quantity", 42),
		zap.Float64("price", 19.99),
		zap.Bool("published", true),
		zap.Strings("marketplaces", []string{"amazon", "ebay"}),
	)

	output := buf.String()
	assert.Contains(t, output, `"sku":"SKU-RED-M"`)
	assert.Contains(t, output, `"quantity":42`)
	assert.True(t, strings.Contains(output, `"price":19.99`) || strings.Contains(output, `"price":19.9`))
	assert.Contains(t, output, `"published":true`)
	assert.Contains(t, output, `"marketplaces":["amazon","ebay"]`)
}
