package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

// TestCacheKey_Validation tests key validation rules.
func TestCacheKey_Validation(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"empty key", "", ErrInvalidKey},
		{"valid key", "topAiring_1", nil},
		{"too long", strings.Repeat("x", MaxKeyLength+1), ErrKeyTooLong},
		{"contains newline", "key\nwith\nnewlines", ErrInvalidKey},
		{"contains carriage return", "key\rwith\rreturns", ErrInvalidKey},
		{"whitespace only", "   ", ErrInvalidKey},
		{"max length exactly", strings.Repeat("x", MaxKeyLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if err != tt.wantErr {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestIsEmptyPayload(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"null", true},
		{"[]", true},
		{"[ ]", true},
		{"{}", true},
		{"{\n}", true},
		{`""`, true},
		{`[1]`, false},
		{`{"a":1}`, false},
		{`"x"`, false},
		{`0`, false},
	}

	for _, tt := range tests {
		if got := IsEmptyPayload([]byte(tt.value)); got != tt.want {
			t.Errorf("IsEmptyPayload(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// TestCacheInterface_CompileCheck verifies the Cache interface contract.
func TestCacheInterface_CompileCheck(t *testing.T) {
	var _ Cache = (*mockCache)(nil)
}

// mockCache is a test double that implements Cache interface.
type mockCache struct{}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	return nil, false
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return nil
}
