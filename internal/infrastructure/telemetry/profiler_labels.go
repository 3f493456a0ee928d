package telemetry

import (
	"context"
	"maps"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys used when tagging profile samples.
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelShopID     = "shop_id"
	ProfilingLabelOperation  = "operation"
	// ProfilingLabelRegion tags code regions such as "db_query" or "marketplace_api".
	ProfilingLabelRegion = "region"
)

// MaxLabelValueLength caps label values before they reach Pyroscope.
const MaxLabelValueLength = 128

// HighCardinalityLabels lists label keys that sanitizeLabels drops
// outright: per-request and per-user identifiers explode series counts
// in Pyroscope. Do not modify at runtime.
//
// shop_id is deliberately absent. Shops are low-to-medium cardinality;
// installations with thousands of shops should disable shop labeling
// instead.
var HighCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"order_id":   true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the given Pyroscope labels attached,
// so the enclosed work can be sliced by label in the Pyroscope UI.
//
//	telemetry.WithProfilingLabels(ctx, map[string]string{
//	    "controller": "ListingHandler",
//	    "operation":  "PublishListing",
//	}, func(c context.Context) {
//	    syncListings(c)
//	})
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// WithPprofLabels does the same through Go's native pprof label API.
// pyroscope.TagWrapper and pprof.Do produce identical label behavior;
// use this variant when only standard Go profiling tools are in play.
func WithPprofLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pprof.Do(ctx, pprof.Labels(pairs...), fn)
}

// sanitizeLabels turns a label map into a flat, deterministic key-value
// slice. Empty entries and high-cardinality keys are dropped, values are
// truncated to MaxLabelValueLength and keys normalized to snake_case.
// The caller's map is read, never retained.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		// High-cardinality keys are dropped silently; this runs on hot paths.
		if value == "" || HighCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		if cleanKey := sanitizeLabelKey(key); cleanKey != "" {
			pairs = append(pairs, cleanKey, value)
		}
	}
	return pairs
}

// sanitizeLabelKey normalizes a key to lowercase snake_case, keeping
// only alphanumerics and underscores.
func sanitizeLabelKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-':
			return '_'
		}
		return -1
	}, key)
}

// ProfilingScope accumulates labels before running a function under them.
type ProfilingScope struct {
	labels map[string]string
}

// NewProfilingScope creates a ProfilingScope seeded with the given labels.
func NewProfilingScope(labels map[string]string) *ProfilingScope {
	scope := &ProfilingScope{labels: make(map[string]string, len(labels))}
	maps.Copy(scope.labels, labels)
	return scope
}

// WithLabel adds a single label to the scope.
func (s *ProfilingScope) WithLabel(key, value string) *ProfilingScope {
	s.labels[key] = value
	return s
}

// WithController adds the controller label.
func (s *ProfilingScope) WithController(controller string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelController, controller)
}

// WithRoute adds the route label.
func (s *ProfilingScope) WithRoute(route string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRoute, route)
}

// WithMethod adds the method label.
func (s *ProfilingScope) WithMethod(method string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelMethod, method)
}

// WithShopID adds the shop_id label.
func (s *ProfilingScope) WithShopID(shopID string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelShopID, shopID)
}

// WithOperation adds the operation label.
func (s *ProfilingScope) WithOperation(operation string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelOperation, operation)
}

// WithRegion adds the region label.
func (s *ProfilingScope) WithRegion(region string) *ProfilingScope {
	return s.WithLabel(ProfilingLabelRegion, region)
}

// Labels returns a copy of the accumulated labels.
func (s *ProfilingScope) Labels() map[string]string {
	result := make(map[string]string, len(s.labels))
	maps.Copy(result, s.labels)
	return result
}

// Run executes fn with the accumulated labels.
func (s *ProfilingScope) Run(ctx context.Context, fn func(context.Context)) {
	WithProfilingLabels(ctx, s.labels, fn)
}

// HTTPRequestLabels builds the standard label set for HTTP handler profiling.
func HTTPRequestLabels(controller, route, method, shopID string) map[string]string {
	labels := make(map[string]string, 4)
	set := func(key, value string) {
		if value != "" {
			labels[key] = value
		}
	}
	set(ProfilingLabelController, controller)
	set(ProfilingLabelRoute, route)
	set(ProfilingLabelMethod, method)
	set(ProfilingLabelShopID, shopID)
	return labels
}

// OperationLabels builds labels for a named operation.
func OperationLabels(operation string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelOperation] = operation
	maps.Copy(labels, extraLabels)
	return labels
}

// RegionLabels builds labels for a code region.
func RegionLabels(region string, extraLabels map[string]string) map[string]string {
	labels := make(map[string]string, len(extraLabels)+1)
	labels[ProfilingLabelRegion] = region
	maps.Copy(labels, extraLabels)
	return labels
}
