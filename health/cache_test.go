package health

import (
	"context"
	"errors"
	"testing"
)

type fixedSize int

func (f fixedSize) Len() int { return int(f) }

func TestCacheChecker(t *testing.T) {
	cfg := CacheCheckerConfig{WarningEntries: 10, CriticalEntries: 20}

	tests := []struct {
		name    string
		entries int
		want    Status
	}{
		{"empty", 0, StatusHealthy},
		{"below warning", 9, StatusHealthy},
		{"at warning", 10, StatusDegraded},
		{"at critical", 20, StatusUnhealthy},
		{"past critical", 500, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewCacheChecker(fixedSize(tt.entries), cfg).Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if result.Details["entries"] != tt.entries {
				t.Errorf("Details[entries] = %v, want %d", result.Details["entries"], tt.entries)
			}
			if tt.want == StatusUnhealthy && !errors.Is(result.Error, ErrCacheSaturated) {
				t.Errorf("Error = %v, want ErrCacheSaturated", result.Error)
			}
		})
	}
}

func TestCacheChecker_NoThresholds(t *testing.T) {
	checker := NewCacheChecker(fixedSize(1_000_000), CacheCheckerConfig{})

	if checker.Name() != "cache" {
		t.Errorf("Name() = %q, want cache", checker.Name())
	}
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Status = %v, want healthy with thresholds disabled", got)
	}
}

func TestCacheChecker_NilSizer(t *testing.T) {
	checker := NewCacheChecker(nil, CacheCheckerConfig{Name: "responses"})

	if checker.Name() != "responses" {
		t.Errorf("Name() = %q, want responses", checker.Name())
	}
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Status = %v, want healthy", got)
	}
}
