// Package cache provides the TTL cache store behind the anime data client.
//
// It provides a Cache interface with an in-memory implementation, deterministic
// query key derivation, TTL policies and a read-through Loader that collapses
// concurrent misses and never stores empty payloads or errors.
package cache
