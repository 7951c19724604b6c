package jikan

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Jikan v4 endpoint.
const DefaultBaseURL = "https://api.jikan.moe/v4"

// CompositeStrategy selects how the three parts of an anime record are fetched.
type CompositeStrategy string

const (
	// StrategySequential fetches details, characters and staff in that order,
	// pausing InterCallDelay between upstream calls.
	StrategySequential CompositeStrategy = "sequential"

	// StrategyParallel fetches all parts concurrently. The first failure
	// cancels the others.
	StrategyParallel CompositeStrategy = "parallel"
)

// PagePlaceholder is replaced by the page number in NewsEndpoints.
const PagePlaceholder = "{page}"

// DefaultNewsEndpoints lists news candidates in priority order.
var DefaultNewsEndpoints = []string{
	"/anime/21/news?page={page}",
	"/manga/13/news?page={page}",
	"/watch/promos?page={page}",
}

// Config configures a Client.
type Config struct {
	// BaseURL is the API root. Relative endpoint paths are appended to it.
	BaseURL string `yaml:"base_url"`

	// CacheTTL bounds staleness of cached results. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// MaxAttempts is the total number of attempts per request, first included.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration `yaml:"backoff_base"`

	// BackoffCap caps every retry delay.
	BackoffCap time.Duration `yaml:"backoff_cap"`

	// Jitter adds up to 25% random delay on top of each backoff.
	Jitter bool `yaml:"jitter"`

	// InterCallDelay is inserted before every non-first upstream call of a
	// multi-call sequence.
	InterCallDelay time.Duration `yaml:"inter_call_delay"`

	// RequestTimeout bounds a single attempt. Zero means no per-attempt bound.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// RequestsPerSecond paces attempts with a token bucket. Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the token bucket capacity.
	Burst int `yaml:"burst"`

	// MaxConcurrent bounds in-flight upstream attempts. Zero means unbounded.
	MaxConcurrent int `yaml:"max_concurrent"`

	// BreakerMaxFailures opens the circuit after this many consecutive failed
	// requests. Zero disables the breaker.
	BreakerMaxFailures int `yaml:"breaker_max_failures"`

	// BreakerResetTimeout is how long the circuit stays open.
	BreakerResetTimeout time.Duration `yaml:"breaker_reset_timeout"`

	// CompositeStrategy selects sequential or parallel composite fetching.
	CompositeStrategy CompositeStrategy `yaml:"composite_strategy"`

	// NewsEndpoints are news candidates in priority order. Each may contain
	// the {page} placeholder and may be absolute or relative to BaseURL.
	NewsEndpoints []string `yaml:"news_endpoints"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		CacheTTL:            5 * time.Minute,
		MaxAttempts:         3,
		BackoffBase:         time.Second,
		BackoffCap:          4 * time.Second,
		InterCallDelay:      400 * time.Millisecond,
		RequestTimeout:      10 * time.Second,
		RequestsPerSecond:   3,
		Burst:               3,
		BreakerResetTimeout: 30 * time.Second,
		CompositeStrategy:   StrategySequential,
		NewsEndpoints:       append([]string(nil), DefaultNewsEndpoints...),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute URL", ErrInvalidConfig, c.BaseURL)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must not be negative", ErrInvalidConfig)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidConfig)
	}
	if c.BackoffBase <= 0 || c.BackoffCap <= 0 {
		return fmt.Errorf("%w: backoff_base and backoff_cap must be positive", ErrInvalidConfig)
	}
	if c.BackoffCap < c.BackoffBase {
		return fmt.Errorf("%w: backoff_cap %s is below backoff_base %s", ErrInvalidConfig, c.BackoffCap, c.BackoffBase)
	}
	if c.InterCallDelay < 0 || c.RequestTimeout < 0 || c.BreakerResetTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidConfig)
	}
	if c.RequestsPerSecond < 0 || c.Burst < 0 || c.MaxConcurrent < 0 || c.BreakerMaxFailures < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if c.RequestsPerSecond > 0 && c.Burst == 0 {
		return fmt.Errorf("%w: burst must be at least 1 when requests_per_second is set", ErrInvalidConfig)
	}
	if c.BreakerMaxFailures > 0 && c.BreakerResetTimeout == 0 {
		return fmt.Errorf("%w: breaker_reset_timeout is required when the breaker is enabled", ErrInvalidConfig)
	}
	switch c.CompositeStrategy {
	case StrategySequential, StrategyParallel:
	default:
		return fmt.Errorf("%w: unknown composite_strategy %q", ErrInvalidConfig, c.CompositeStrategy)
	}
	if len(c.NewsEndpoints) == 0 {
		return fmt.Errorf("%w: news_endpoints must not be empty", ErrInvalidConfig)
	}
	for _, ep := range c.NewsEndpoints {
		if strings.TrimSpace(ep) == "" {
			return fmt.Errorf("%w: news_endpoints contains an empty entry", ErrInvalidConfig)
		}
	}
	return nil
}
