package health

import (
	"context"
	"fmt"
)

// Sizer reports how many entries a cache currently stores.
type Sizer interface {
	Len() int
}

// CacheCheckerConfig configures the cache checker.
type CacheCheckerConfig struct {
	// Name overrides the checker name.
	// Default: "cache"
	Name string

	// WarningEntries marks the cache degraded once it stores at least this
	// many entries. Zero disables the warning level.
	WarningEntries int

	// CriticalEntries marks the cache unhealthy once it stores at least this
	// many entries. Zero disables the critical level.
	CriticalEntries int
}

// CacheChecker reports on the size of the response cache.
//
// Entries expire lazily and are only replaced by a refetch of the same key,
// so a long-running process accumulates one entry per distinct query. The
// thresholds flag that growth.
type CacheChecker struct {
	config CacheCheckerConfig
	sizer  Sizer
}

// NewCacheChecker creates a checker over sizer.
func NewCacheChecker(sizer Sizer, config CacheCheckerConfig) *CacheChecker {
	if config.Name == "" {
		config.Name = "cache"
	}
	return &CacheChecker{config: config, sizer: sizer}
}

// Name returns the checker name.
func (c *CacheChecker) Name() string {
	return c.config.Name
}

// Check compares the entry count against the thresholds.
func (c *CacheChecker) Check(_ context.Context) Result {
	if c.sizer == nil {
		return Healthy("cache size not reported")
	}

	entries := c.sizer.Len()
	details := map[string]any{"entries": entries}

	switch {
	case c.config.CriticalEntries > 0 && entries >= c.config.CriticalEntries:
		details["critical_entries"] = c.config.CriticalEntries
		return Unhealthy(
			fmt.Sprintf("cache holds %d entries", entries),
			ErrCacheSaturated,
		).WithDetails(details)
	case c.config.WarningEntries > 0 && entries >= c.config.WarningEntries:
		details["warning_entries"] = c.config.WarningEntries
		return Degraded(fmt.Sprintf("cache holds %d entries", entries)).WithDetails(details)
	default:
		return Healthy("cache ok").WithDetails(details)
	}
}
