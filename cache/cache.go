package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
// Longer logical keys are hashed by the keyer.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache is the interface for caching normalized upstream payloads.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get should never error; it returns (nil, false) on miss or expiry.
// - Emptiness: Set must not store empty payloads (see IsEmptyPayload).
type Cache interface {
	// Get retrieves a cached value. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL. TTL<=0 or an empty value is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// IsEmptyPayload reports whether value carries no data worth caching:
// zero bytes, or a JSON null, empty array, empty object or empty string.
func IsEmptyPayload(value []byte) bool {
	trimmed := bytes.TrimSpace(value)
	n := len(trimmed)
	if n == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return true
	}
	if n >= 2 {
		open, closing := trimmed[0], trimmed[n-1]
		if (open == '[' && closing == ']') || (open == '{' && closing == '}') {
			return len(bytes.TrimSpace(trimmed[1:n-1])) == 0
		}
	}
	return false
}
