// Package observe provides observability primitives for anime data queries.
//
// It is a pure instrumentation library: no fetching, no caching, no I/O
// beyond exporter setup. The jikan client wraps every public query with a
// Middleware and reports cache lookups, upstream requests and retries
// through Metrics.
package observe
