package observe

import (
	"context"
	"time"
)

// QueryFunc is the unit of work a Middleware observes.
type QueryFunc func(ctx context.Context) error

// Middleware wraps public queries with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: the span is carried on the context passed to fn.
//   - Errors: errors from fn are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Observe runs fn inside a span for meta and records its outcome.
func (m *Middleware) Observe(ctx context.Context, meta QueryMeta, fn QueryFunc) error {
	if meta.Kind == "" {
		return ErrMissingQueryKind
	}

	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := m.now()

	err := fn(ctx)

	duration := m.now().Sub(start)
	m.tracer.EndSpan(span, err)
	m.metrics.RecordQuery(ctx, meta, duration, err)

	log := m.logger.WithQuery(meta)
	fields := []Field{{Key: "duration_ms", Value: duration.Milliseconds()}}
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err.Error()})
		log.Error(ctx, "query failed", fields...)
	} else {
		log.Debug(ctx, "query completed", fields...)
	}

	return err
}

// Metrics returns the metrics sink used by the middleware.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Logger returns the logger used by the middleware.
func (m *Middleware) Logger() Logger {
	return m.logger
}
