package observe

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records query, cache and upstream metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordQuery records a public query with duration and error status.
	RecordQuery(ctx context.Context, meta QueryMeta, duration time.Duration, err error)

	// RecordCacheLookup records a cache hit or miss for a query kind.
	RecordCacheLookup(ctx context.Context, kind string, hit bool)

	// RecordUpstreamRequest records one HTTP attempt against the upstream.
	// status is 0 when no response was received.
	RecordUpstreamRequest(ctx context.Context, endpoint string, status int, duration time.Duration)

	// RecordRetry records a retry scheduled after a failed attempt.
	RecordRetry(ctx context.Context, endpoint string, throttled bool)
}

type metricsImpl struct {
	queryTotal    metric.Int64Counter
	queryErrors   metric.Int64Counter
	queryDuration metric.Float64Histogram
	cacheLookups  metric.Int64Counter
	upstreamReqs  metric.Int64Counter
	upstreamDur   metric.Float64Histogram
	retries       metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	return newMetrics(meter)
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	m := &metricsImpl{}
	var err error

	if m.queryTotal, err = meter.Int64Counter(
		"jikan.query.total",
		metric.WithDescription("Total number of public queries"),
		metric.WithUnit("{query}"),
	); err != nil {
		return nil, err
	}

	if m.queryErrors, err = meter.Int64Counter(
		"jikan.query.errors",
		metric.WithDescription("Total number of failed public queries"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.queryDuration, err = meter.Float64Histogram(
		"jikan.query.duration_ms",
		metric.WithDescription("Public query duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.cacheLookups, err = meter.Int64Counter(
		"jikan.cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.upstreamReqs, err = meter.Int64Counter(
		"jikan.upstream.requests",
		metric.WithDescription("HTTP attempts against the upstream API"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}

	if m.upstreamDur, err = meter.Float64Histogram(
		"jikan.upstream.duration_ms",
		metric.WithDescription("Upstream attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.retries, err = meter.Int64Counter(
		"jikan.upstream.retries",
		metric.WithDescription("Retries scheduled after failed upstream attempts"),
		metric.WithUnit("{retry}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordQuery(ctx context.Context, meta QueryMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("query.kind", meta.Kind))

	m.queryTotal.Add(ctx, 1, opt)
	if err != nil {
		m.queryErrors.Add(ctx, 1, opt)
	}
	m.queryDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, kind string, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("query.kind", kind),
		attribute.Bool("hit", hit),
	))
}

func (m *metricsImpl) RecordUpstreamRequest(ctx context.Context, endpoint string, status int, duration time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.upstreamReqs.Add(ctx, 1, opt)
	m.upstreamDur.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRetry(ctx context.Context, endpoint string, throttled bool) {
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Bool("throttled", throttled),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordQuery(context.Context, QueryMeta, time.Duration, error)      {}
func (noopMetrics) RecordCacheLookup(context.Context, string, bool)                   {}
func (noopMetrics) RecordUpstreamRequest(context.Context, string, int, time.Duration) {}
func (noopMetrics) RecordRetry(context.Context, string, bool)                         {}
