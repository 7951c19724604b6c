package resilience

import (
	"context"
	"math"
	"sync"
	"time"
)

// RateLimiterConfig configures the rate limiter.
type RateLimiterConfig struct {
	// Rate is the number of operations allowed per second.
	// Default: 3
	Rate float64

	// Burst is the maximum burst size.
	// Default: 3
	Burst int

	// WaitOnLimit waits for a token instead of returning ErrThrottled.
	// Default: false
	WaitOnLimit bool

	// MaxWait bounds the total time spent waiting for a token.
	// Zero means wait for as long as the context allows.
	MaxWait time.Duration

	// Now is the time source. Default: time.Now
	Now func() time.Time

	// Sleep waits for tokens to refill. Default: SleepContext
	Sleep Sleeper
}

// RateLimiter implements a token bucket that paces outgoing calls before the
// upstream has to throttle them.
type RateLimiter struct {
	config RateLimiterConfig

	mu          sync.Mutex
	tokens      float64
	lastRefresh time.Time
}

// NewRateLimiter creates a new rate limiter with a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 3
	}
	if config.Burst <= 0 {
		config.Burst = 3
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Sleep == nil {
		config.Sleep = SleepContext
	}

	return &RateLimiter{
		config:      config,
		tokens:      float64(config.Burst),
		lastRefresh: config.Now(),
	}
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	_, ok := rl.reserve()
	return ok
}

// Wait blocks until a token is taken, the context ends, or MaxWait is spent.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait, ok := rl.reserve()
		if ok {
			return nil
		}

		if rl.config.MaxWait > 0 {
			if waited >= rl.config.MaxWait {
				return ErrThrottled
			}
			if waited+wait > rl.config.MaxWait {
				wait = rl.config.MaxWait - waited
			}
		}

		before := rl.config.Now()
		if err := rl.config.Sleep(ctx, wait); err != nil {
			return err
		}
		rl.credit(wait, before)
		waited += wait
	}
}

// credit refills for the part of a completed sleep that the clock did not
// observe, so a Sleep that returns early without advancing Now still makes
// progress.
func (rl *RateLimiter) credit(slept time.Duration, since time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	missing := slept - rl.config.Now().Sub(since)
	if missing <= 0 {
		return
	}
	rl.tokens += missing.Seconds() * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Execute runs the operation if allowed by the rate limit.
func (rl *RateLimiter) Execute(ctx context.Context, op func(context.Context) error) error {
	if rl.config.WaitOnLimit {
		if err := rl.Wait(ctx); err != nil {
			return err
		}
	} else if !rl.Allow() {
		return ErrThrottled
	}

	return op(ctx)
}

// reserve takes a token or reports how long until one is available.
func (rl *RateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}

	missing := 1 - rl.tokens
	wait := time.Duration(math.Ceil(missing / rl.config.Rate * float64(time.Second)))
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (rl *RateLimiter) refillLocked() {
	now := rl.config.Now()
	elapsed := now.Sub(rl.lastRefresh)
	if elapsed <= 0 {
		return
	}
	rl.lastRefresh = now

	rl.tokens += elapsed.Seconds() * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// Tokens returns the current number of available tokens.
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// Reset resets the rate limiter to full capacity.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = float64(rl.config.Burst)
	rl.lastRefresh = rl.config.Now()
}
