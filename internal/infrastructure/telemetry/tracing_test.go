package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/channelsync/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs an in-memory span recorder as the global tracer
// provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

// onlySpan asserts exactly one span was ended and returns it.
func onlySpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()
	spans := sr.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func attrsToMap(attrs []attribute.KeyValue) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		m[string(attr.Key)] = attr.Value.AsInterface()
	}
	return m
}

func TestStartSpan(t *testing.T) {
	t.Run("defaults to an internal span", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		require.NotNil(t, span)
		span.End()

		got := onlySpan(t, sr)
		assert.Equal(t, "listing.sync", got.Name())
		assert.Equal(t, trace.SpanKindInternal, got.SpanKind())
	})

	t.Run("applies kind and attribute options", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "adapter.publish",
			telemetry.WithAttribute(telemetry.SpanAttrMarketplace, "amazon"),
			telemetry.WithSpanKind(trace.SpanKindClient),
		)
		span.End()

		got := onlySpan(t, sr)
		assert.Equal(t, trace.SpanKindClient, got.SpanKind())
		assert.Equal(t, "amazon", attrsToMap(got.Attributes())[telemetry.SpanAttrMarketplace])
	})

	t.Run("child inherits trace from parent context", func(t *testing.T) {
		sr := recordSpans(t)

		ctx, parent := telemetry.StartSpan(context.Background(), "webhook.process")
		_, child := telemetry.StartSpan(ctx, "listing.sync")
		child.End()
		parent.End()

		spans := sr.Ended()
		require.Len(t, spans, 2)

		byName := make(map[string]sdktrace.ReadOnlySpan)
		for _, s := range spans {
			byName[s.Name()] = s
		}
		parentSpan := byName["webhook.process"]
		childSpan := byName["listing.sync"]
		require.NotNil(t, parentSpan)
		require.NotNil(t, childSpan)

		assert.Equal(t, parentSpan.SpanContext().TraceID(), childSpan.SpanContext().TraceID())
		assert.Equal(t, parentSpan.SpanContext().SpanID(), childSpan.Parent().SpanID())
	})
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "listing", "sync")
	span.End()

	assert.Equal(t, "listing.sync", onlySpan(t, sr).Name())
}

func TestSetAttributes(t *testing.T) {
	t.Run("sets pairs by type", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "order.pull")
		telemetry.SetAttributes(span,
			telemetry.SpanAttrShopID, "shop-42",
			telemetry.SpanAttrQuantity, 3,
			"cancelled", false,
		)
		span.End()

		m := attrsToMap(onlySpan(t, sr).Attributes())
		assert.Equal(t, "shop-42", m[telemetry.SpanAttrShopID])
		assert.Equal(t, int64(3), m[telemetry.SpanAttrQuantity])
		assert.Equal(t, false, m["cancelled"])
	})

	t.Run("covers all supported value types", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		telemetry.SetAttributes(span,
			"string", "value",
			"int", 42,
			"int64", int64(100),
			"float64", 3.14,
			"bool", true,
			"string_slice", []string{"a", "b"},
			"int_slice", []int{1, 2, 3},
			"int64_slice", []int64{10, 20},
			"float64_slice", []float64{1.1, 2.2},
			"bool_slice", []bool{true, false},
		)
		span.End()

		assert.GreaterOrEqual(t, len(onlySpan(t, sr).Attributes()), 10)
	})

	t.Run("drops a trailing key without a value", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		telemetry.SetAttributes(span,
			"key1", "value1",
			"key2", "value2",
			"orphan_key",
		)
		span.End()

		assert.Len(t, onlySpan(t, sr).Attributes(), 2)
	})

	t.Run("skips pairs with non-string keys", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		telemetry.SetAttributes(span,
			"valid_key", "value",
			123, "ignored",
		)
		span.End()

		assert.Len(t, onlySpan(t, sr).Attributes(), 1)
	})
}

func TestSetAttribute(t *testing.T) {
	t.Run("string value", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "order.pull")
		telemetry.SetAttribute(span, telemetry.SpanAttrExternalOrderID, "114-0001")
		span.End()

		assert.Equal(t, "114-0001", attrsToMap(onlySpan(t, sr).Attributes())[telemetry.SpanAttrExternalOrderID])
	})

	t.Run("uuid renders through Stringer", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "order.pull")
		orderID := uuid.New()
		telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID)
		span.End()

		assert.Equal(t, orderID.String(), attrsToMap(onlySpan(t, sr).Attributes())[telemetry.SpanAttrOrderID])
	})
}

func TestRecordError(t *testing.T) {
	t.Run("records the error and flips the status", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		telemetry.RecordError(span, errors.New("rate limited"))
		span.End()

		got := onlySpan(t, sr)
		assert.Equal(t, codes.Error, got.Status().Code)
		assert.Equal(t, "rate limited", got.Status().Description)

		events := got.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "exception", events[0].Name)
	})

	t.Run("nil error leaves the status alone", func(t *testing.T) {
		sr := recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		telemetry.RecordError(span, nil)
		span.End()

		assert.NotEqual(t, codes.Error, onlySpan(t, sr).Status().Code)
	})

	t.Run("nil span is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() {
			telemetry.RecordError(nil, errors.New("rate limited"))
		})
	})
}

func TestSetOK(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "listing.sync")
	telemetry.SetOK(span)
	span.End()

	assert.Equal(t, codes.Ok, onlySpan(t, sr).Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "listing.sync")
	telemetry.AddEvent(span, "listing_published",
		telemetry.SpanAttrSKU, "SKU-RED-M",
		telemetry.SpanAttrQuantity, 10,
	)
	span.End()

	events := onlySpan(t, sr).Events()
	require.Len(t, events, 1)
	assert.Equal(t, "listing_published", events[0].Name)

	m := attrsToMap(events[0].Attributes)
	assert.Equal(t, "SKU-RED-M", m[telemetry.SpanAttrSKU])
	assert.Equal(t, int64(10), m[telemetry.SpanAttrQuantity])
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "key", "value")
		telemetry.SetAttribute(nil, "key", "value")
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "event_name", "key", "value")
	})
}

func TestSpanContextHelpers(t *testing.T) {
	t.Run("SpanFromContext", func(t *testing.T) {
		recordSpans(t)

		// No span yields a no-op span, not nil.
		assert.NotNil(t, telemetry.SpanFromContext(context.Background()))

		ctx, created := telemetry.StartSpan(context.Background(), "listing.sync")
		defer created.End()

		retrieved := telemetry.SpanFromContext(ctx)
		assert.Equal(t, created.SpanContext().SpanID(), retrieved.SpanContext().SpanID())
	})

	t.Run("ContextWithSpan", func(t *testing.T) {
		recordSpans(t)

		_, span := telemetry.StartSpan(context.Background(), "listing.sync")
		defer span.End()

		newCtx := telemetry.ContextWithSpan(context.Background(), span)
		retrieved := telemetry.SpanFromContext(newCtx)
		assert.Equal(t, span.SpanContext().SpanID(), retrieved.SpanContext().SpanID())
	})

	t.Run("trace and span IDs", func(t *testing.T) {
		recordSpans(t)

		assert.Empty(t, telemetry.GetTraceID(context.Background()))
		assert.Empty(t, telemetry.GetSpanID(context.Background()))

		ctx, span := telemetry.StartSpan(context.Background(), "listing.sync")
		defer span.End()

		assert.Len(t, telemetry.GetTraceID(ctx), 32)
		assert.Len(t, telemetry.GetSpanID(ctx), 16)
	})
}
