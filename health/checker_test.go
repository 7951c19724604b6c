package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Status{"status": StatusDegraded})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"status":"degraded"}` {
		t.Errorf("Marshal() = %s, want status by name", data)
	}
}

func TestResultConstructors(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name    string
		result  Result
		status  Status
		message string
		err     error
	}{
		{"healthy", Healthy("upstream reachable"), StatusHealthy, "upstream reachable", nil},
		{"degraded", Degraded("upstream circuit probing"), StatusDegraded, "upstream circuit probing", nil},
		{"unhealthy", Unhealthy("query failed", refused), StatusUnhealthy, "query failed", refused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.status {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.status)
			}
			if tt.result.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.result.Message, tt.message)
			}
			if !errors.Is(tt.result.Error, tt.err) {
				t.Errorf("Error = %v, want %v", tt.result.Error, tt.err)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}
}

func TestResult_WithDetails(t *testing.T) {
	base := Healthy("cache ok")
	withDetails := base.WithDetails(map[string]any{"entries": 12})

	if withDetails.Details["entries"] != 12 {
		t.Errorf("Details[entries] = %v, want 12", withDetails.Details["entries"])
	}
	if base.Details != nil {
		t.Error("WithDetails should not modify the receiver")
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("ping", func(ctx context.Context) Result {
		if err := ctx.Err(); err != nil {
			return Unhealthy("cancelled", err)
		}
		return Healthy("query succeeded")
	})

	if checker.Name() != "ping" {
		t.Errorf("Name() = %q, want ping", checker.Name())
	}
	if got := checker.Check(context.Background()).Status; got != StatusHealthy {
		t.Errorf("Check() Status = %v, want healthy", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := checker.Check(ctx).Status; got != StatusUnhealthy {
		t.Errorf("Check() on cancelled context = %v, want unhealthy", got)
	}
}
