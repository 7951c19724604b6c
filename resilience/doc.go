// Package resilience provides resilience patterns for calls to rate-limited upstreams.
//
// The patterns help a client absorb throttling and transient failures of a
// third-party API without surfacing them to its callers, while keeping every
// call bounded in time. They can be used independently or composed.
//
// # Patterns
//
//   - Retry: retries failed attempts with exponential, linear or constant
//     backoff. The delay before retry i is min(InitialDelay*Multiplier^i,
//     MaxDelay). Sleeping goes through an injectable Sleeper so tests never
//     wait on real timers.
//
//   - Rate Limiter: a token bucket that paces attempts before the upstream
//     has to refuse them.
//
//   - Bulkhead: limits in-flight attempts.
//
//   - Circuit Breaker: fails fast after repeated fully-retried failures.
//
//   - Timeout: bounds a single attempt.
//
// # Usage
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: time.Second,
//	    MaxDelay:     4 * time.Second,
//	})
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetry(retry),
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
//	        Rate: 3, Burst: 3, WaitOnLimit: true,
//	    })),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callUpstream(ctx)
//	})
package resilience
