package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// LoadFunc produces the payload for a key on a cache miss.
type LoadFunc func(ctx context.Context) ([]byte, error)

// LookupHook observes cache lookups. It is called once per Load with the
// outcome of the initial Get.
type LookupHook func(ctx context.Context, key string, hit bool)

// StoreErrorHook observes failures to store a loaded payload. The payload is
// still returned to the caller.
type StoreErrorHook func(ctx context.Context, key string, err error)

// Loader wraps a Cache with read-through semantics.
type Loader struct {
	cache   Cache
	policy  Policy
	group   singleflight.Group
	onLook  LookupHook
	onStore StoreErrorHook
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLookupHook registers a hook that sees every hit and miss.
func WithLookupHook(hook LookupHook) LoaderOption {
	return func(l *Loader) {
		l.onLook = hook
	}
}

// WithStoreErrorHook registers a hook that sees every failed Set.
func WithStoreErrorHook(hook StoreErrorHook) LoaderOption {
	return func(l *Loader) {
		l.onStore = hook
	}
}

// NewLoader creates a read-through loader over c.
func NewLoader(c Cache, policy Policy, opts ...LoaderOption) *Loader {
	l := &Loader{
		cache:  c,
		policy: policy,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the cached payload for key, or calls fn on a miss.
//
// Concurrent misses for the same key share a single fn call. That call runs
// detached from the caller's cancellation, so one caller giving up never
// fails the others; each caller still returns as soon as its own ctx is done.
// Errors are NOT cached, and neither are empty payloads: the next Load
// retries fresh.
func (l *Loader) Load(ctx context.Context, key string, fn LoadFunc) ([]byte, error) {
	if l == nil || l.cache == nil {
		return nil, ErrNilCache
	}

	if err := ValidateKey(key); err != nil || !l.policy.ShouldCache() {
		return fn(ctx)
	}

	if cached, ok := l.cache.Get(ctx, key); ok {
		l.observe(ctx, key, true)
		return cached, nil
	}
	l.observe(ctx, key, false)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		// Another caller may have populated the key while we waited.
		if cached, ok := l.cache.Get(shared, key); ok {
			return cached, nil
		}

		result, err := fn(shared)
		if err != nil {
			return nil, err
		}

		if !IsEmptyPayload(result) {
			if err := l.cache.Set(shared, key, result, l.policy.EffectiveTTL(0)); err != nil && l.onStore != nil {
				l.onStore(shared, key, err)
			}
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Peek reports whether key currently holds a valid entry without loading.
func (l *Loader) Peek(ctx context.Context, key string) ([]byte, bool) {
	if l == nil || l.cache == nil {
		return nil, false
	}
	return l.cache.Get(ctx, key)
}

// Cache returns the underlying cache.
func (l *Loader) Cache() Cache {
	return l.cache
}

func (l *Loader) observe(ctx context.Context, key string, hit bool) {
	if l.onLook != nil {
		l.onLook(ctx, key, hit)
	}
}
