package cache

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.DefaultTTL != 5*time.Minute {
		t.Errorf("DefaultTTL = %v, want 5m", p.DefaultTTL)
	}
	if p.MaxTTL != time.Hour {
		t.Errorf("MaxTTL = %v, want 1h", p.MaxTTL)
	}
	if !p.ShouldCache() {
		t.Error("default policy should cache")
	}
}

func TestNoCachePolicy(t *testing.T) {
	if NoCachePolicy().ShouldCache() {
		t.Error("NoCachePolicy should not cache")
	}
}

func TestPolicy_EffectiveTTL(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		override time.Duration
		want     time.Duration
	}{
		{"default", DefaultPolicy(), 0, 5 * time.Minute},
		{"negative override uses default", DefaultPolicy(), -time.Second, 5 * time.Minute},
		{"override", DefaultPolicy(), time.Minute, time.Minute},
		{"clamped", DefaultPolicy(), 2 * time.Hour, time.Hour},
		{"no max", Policy{DefaultTTL: time.Minute}, 48 * time.Hour, 48 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.EffectiveTTL(tt.override); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.override, got, tt.want)
			}
		})
	}
}

func TestFixedTTL(t *testing.T) {
	p := FixedTTL(30 * time.Second)
	if got := p.EffectiveTTL(time.Hour); got != 30*time.Second {
		t.Errorf("EffectiveTTL(1h) = %v, want override clamped to 30s", got)
	}
	if got := p.EffectiveTTL(0); got != 30*time.Second {
		t.Errorf("EffectiveTTL(0) = %v, want 30s", got)
	}
	if FixedTTL(0).ShouldCache() || FixedTTL(-time.Second).ShouldCache() {
		t.Error("non-positive FixedTTL should disable caching")
	}
}
