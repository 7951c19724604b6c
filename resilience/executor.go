package resilience

import (
	"context"
	"time"
)

// Executor composes multiple resilience patterns around one logical call.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order is:
// 1. Circuit Breaker (if configured) - one logical call is one outcome
// 2. Retry (if configured) - bounded attempts with backoff
// 3. Rate Limiter (if configured) - paces every attempt
// 4. Bulkhead (if configured) - limits in-flight attempts
// 5. Timeout (if configured) - bounds each attempt
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := op

	if e.timeout != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	execute := attempt
	if e.retry != nil {
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, attempt)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// CircuitBreaker returns the configured circuit breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Retry returns the configured retry handler, or nil.
func (e *Executor) Retry() *Retry {
	return e.retry
}
