package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear increases delay linearly.
	BackoffLinear
	// BackoffConstant uses the same delay for all retries.
	BackoffConstant
)

// Sleeper waits for d or until ctx is done, whichever comes first.
// Tests substitute a zero-delay or recording implementation.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper backed by a real timer.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryState describes the retry loop of a single request. It lives only
// for the duration of one Execute call.
type RetryState struct {
	// Attempt is the 1-based number of the attempt that just failed.
	Attempt int
	// MaxAttempts is the attempt budget, including the initial attempt.
	MaxAttempts int
	// LastDelay is the delay about to be slept before the next attempt.
	LastDelay time.Duration
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	// Default: 1s
	InitialDelay time.Duration

	// MaxDelay caps the maximum delay between retries.
	// Default: 4s
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier for exponential backoff.
	// Default: 2.0
	Multiplier float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter adds up to 25% randomness on top of each delay.
	// Default: false
	Jitter bool

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry sleep.
	OnRetry func(state RetryState, err error)

	// Sleep waits between attempts.
	// Default: SleepContext
	Sleep Sleeper
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 4 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	if config.Sleep == nil {
		config.Sleep = SleepContext
	}

	return &Retry{config: config}
}

// Execute runs the operation with retry logic. It returns nil on the first
// success, ctx.Err() if the context ends while waiting, and otherwise the
// error of the last attempt.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !r.config.RetryIf(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt - 1)
		if r.config.OnRetry != nil {
			r.config.OnRetry(RetryState{
				Attempt:     attempt,
				MaxAttempts: r.config.MaxAttempts,
				LastDelay:   delay,
			}, err)
		}

		if err := r.config.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// Backoff returns the un-jittered delay before retry number retry (0-based):
// min(InitialDelay * Multiplier^retry, MaxDelay) for exponential backoff.
// The sequence is non-decreasing.
func (r *Retry) Backoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}

	var delay float64
	switch r.config.Strategy {
	case BackoffConstant:
		delay = float64(r.config.InitialDelay)
	case BackoffLinear:
		delay = float64(r.config.InitialDelay) * float64(retry+1)
	default:
		delay = float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(retry))
	}

	// Compare in float space so huge exponents cannot overflow Duration.
	if delay > float64(r.config.MaxDelay) || math.IsInf(delay, 0) || math.IsNaN(delay) {
		return r.config.MaxDelay
	}
	return time.Duration(delay)
}

func (r *Retry) calculateDelay(retry int) time.Duration {
	delay := r.Backoff(retry)

	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
