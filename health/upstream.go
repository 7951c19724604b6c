package health

import (
	"context"

	"github.com/jonwraymond/animedata/resilience"
)

// UpstreamChecker reports the state of the circuit breaker guarding the
// upstream API.
type UpstreamChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewUpstreamChecker creates a checker named name over breaker. A nil
// breaker means the client runs without one.
func NewUpstreamChecker(name string, breaker *resilience.CircuitBreaker) *UpstreamChecker {
	if name == "" {
		name = "upstream"
	}
	return &UpstreamChecker{name: name, breaker: breaker}
}

// Name returns the checker name.
func (u *UpstreamChecker) Name() string {
	return u.name
}

// Check maps the breaker state: closed is healthy, half-open is degraded and
// open is unhealthy.
func (u *UpstreamChecker) Check(_ context.Context) Result {
	if u.breaker == nil {
		return Healthy("circuit breaker disabled")
	}

	m := u.breaker.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}
	if !m.LastFailure.IsZero() {
		details["last_failure"] = m.LastFailure
	}

	switch m.State {
	case resilience.StateOpen:
		return Unhealthy("upstream circuit open", ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("upstream circuit probing").WithDetails(details)
	default:
		return Healthy("upstream reachable").WithDetails(details)
	}
}
