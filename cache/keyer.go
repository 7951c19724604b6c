package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Keyer derives deterministic cache keys from a query kind and its parameters.
//
// Contract:
// - Determinism: identical logical queries must produce identical keys.
// - Injectivity: distinct parameter lists of the same kind must not collide.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for the query kind and its ordered parameters.
	Key(kind string, params ...string) string
}

// QueryKeyer builds readable keys of the form <kind>_<p1>_<p2>.
//
// Each parameter is trimmed, lower-cased and query-escaped, with "_" escaped
// as well so the separator stays unambiguous. Parameter order is the
// caller's fixed order for the kind; it is never sorted or reordered.
type QueryKeyer struct{}

// NewQueryKeyer creates a new query keyer.
func NewQueryKeyer() *QueryKeyer {
	return &QueryKeyer{}
}

// Key generates a deterministic cache key.
// Keys that would exceed MaxKeyLength become <kind>_#<hash>, where hash is
// the first 16 hex characters of SHA-256 over the normalized parameters.
func (k *QueryKeyer) Key(kind string, params ...string) string {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, kind)
	for _, p := range params {
		parts = append(parts, normalizeParam(p))
	}
	key := strings.Join(parts, "_")
	if len(key) <= MaxKeyLength {
		return key
	}

	hash := sha256.Sum256([]byte(strings.Join(parts[1:], "\x00")))
	return kind + "_#" + hex.EncodeToString(hash[:8])
}

func normalizeParam(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	p = url.QueryEscape(p)
	return strings.ReplaceAll(p, "_", "%5F")
}

// Ensure QueryKeyer implements Keyer
var _ Keyer = (*QueryKeyer)(nil)
