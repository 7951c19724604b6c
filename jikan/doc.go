// Package jikan is a resilient, cached read client for the Jikan v4 anime API.
//
// A Client answers typed queries (top lists, search, seasons, schedules,
// anime records, recommendations, reviews and news). Each query derives a
// canonical cache key, serves valid cache entries without touching the
// network, and otherwise goes upstream through a Fetcher that paces,
// bounds and retries every attempt.
//
// # Errors
//
// Failures surface as typed errors that match package sentinels:
//
//   - *RateLimitError (ErrRateLimitExceeded): the upstream kept answering 429.
//   - *TransportError (ErrTransport): network failure, bad status or bad body.
//   - *IncompleteResourceError (ErrIncompleteResource): an anime record part failed.
//   - *QueryError (ErrInvalidQuery): rejected arguments; no request was sent.
//
// An empty upstream result is not an error. It is returned as an empty
// slice and is never cached, so the next call asks again.
//
// # News
//
// News has no single reliable endpoint. The client tries the configured
// candidates in order and returns the first non-empty answer. If every
// candidate is empty or failing, News returns an empty slice and no error.
package jikan
