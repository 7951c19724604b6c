package cache

import "time"

// DefaultEntryTTL is how long a query result stays valid by default.
const DefaultEntryTTL = 5 * time.Minute

// Policy configures how long query results stay valid.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 5 minutes, MaxTTL: 1 hour
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: DefaultEntryTTL,
		MaxTTL:     1 * time.Hour,
	}
}

// FixedTTL returns a policy under which every entry lives exactly ttl.
// A non-positive ttl disables caching.
func FixedTTL(ttl time.Duration) Policy {
	if ttl <= 0 {
		return NoCachePolicy()
	}
	return Policy{DefaultTTL: ttl, MaxTTL: ttl}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
