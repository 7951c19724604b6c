package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCircuitOpen indicates the upstream circuit breaker is refusing calls.
	ErrCircuitOpen = errors.New("health: upstream circuit open")

	// ErrCacheSaturated indicates the cache holds more entries than the
	// critical threshold allows.
	ErrCacheSaturated = errors.New("health: cache saturated")
)
