package cache

import (
	"strings"
	"testing"
)

func TestQueryKeyer_Format(t *testing.T) {
	keyer := NewQueryKeyer()

	tests := []struct {
		name   string
		kind   string
		params []string
		want   string
	}{
		{"page", "topAiring", []string{"1"}, "topAiring_1"},
		{"no params", "ping", nil, "ping"},
		{"search", "search", []string{"Naruto", "1"}, "search_naruto_1"},
		{"spaces escaped", "search", []string{"One Piece", "2"}, "search_one+piece_2"},
		{"underscore escaped", "search", []string{"a_b", "1"}, "search_a%5Fb_1"},
		{"trimmed", "search", []string{"  bleach ", "1"}, "search_bleach_1"},
		{"seasonal", "seasonal", []string{"2024", "Spring"}, "seasonal_2024_spring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := keyer.Key(tt.kind, tt.params...); got != tt.want {
				t.Errorf("Key(%q, %q) = %q, want %q", tt.kind, tt.params, got, tt.want)
			}
		})
	}
}

func TestQueryKeyer_Idempotent(t *testing.T) {
	keyer := NewQueryKeyer()

	first := keyer.Key("search", "Naruto", "1")
	_ = keyer.Key("search", "Bleach", "3")
	_ = keyer.Key("topAiring", "1")
	second := keyer.Key("search", "Naruto", "1")

	if first != second {
		t.Errorf("identical queries produced different keys: %q vs %q", first, second)
	}
	if again := NewQueryKeyer().Key("search", "Naruto", "1"); again != first {
		t.Errorf("fresh keyer produced %q, want %q", again, first)
	}
}

func TestQueryKeyer_CaseInsensitive(t *testing.T) {
	keyer := NewQueryKeyer()

	if keyer.Key("search", "NARUTO", "1") != keyer.Key("search", "naruto", "1") {
		t.Error("keys should not depend on parameter case")
	}
}

func TestQueryKeyer_NoCollisions(t *testing.T) {
	keyer := NewQueryKeyer()

	pairs := [][2][]string{
		{{"a_b", "1"}, {"a", "b_1"}},
		{{"a b", "1"}, {"a+b", "1"}},
		{{"1", "2"}, {"12"}},
	}

	for _, p := range pairs {
		k1 := keyer.Key("search", p[0]...)
		k2 := keyer.Key("search", p[1]...)
		if k1 == k2 {
			t.Errorf("collision: %q and %q both map to %q", p[0], p[1], k1)
		}
	}
}

func TestQueryKeyer_LongKeysHashed(t *testing.T) {
	keyer := NewQueryKeyer()

	long := strings.Repeat("x", MaxKeyLength)
	key := keyer.Key("search", long, "1")

	if len(key) > MaxKeyLength {
		t.Errorf("key length = %d, want <= %d", len(key), MaxKeyLength)
	}
	if !strings.HasPrefix(key, "search_#") {
		t.Errorf("hashed key = %q, want prefix search_#", key)
	}
	if key != keyer.Key("search", long, "1") {
		t.Error("hashed key must be deterministic")
	}
	if key == keyer.Key("search", long, "2") {
		t.Error("hashed keys must differ for different params")
	}
	if err := ValidateKey(key); err != nil {
		t.Errorf("ValidateKey(hashed) = %v", err)
	}
}
