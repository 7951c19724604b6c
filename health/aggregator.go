package health

import (
	"context"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a full CheckAll run when no timeout is configured.
const DefaultCheckTimeout = 10 * time.Second

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration

	// Parallel runs health checks in parallel when true.
	// Default: true
	Parallel bool
}

// Aggregator combines the client's health checkers into a single report.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{
		Timeout:  DefaultCheckTimeout,
		Parallel: true,
	}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.Timeout <= 0 {
			cfg.Timeout = DefaultCheckTimeout
		}
	}

	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds a checker under its own name. Registering a name twice
// replaces the earlier checker but keeps its position.
func (a *Aggregator) Register(checker Checker) {
	if checker == nil {
		return
	}
	name := checker.Name()

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return runCheck(ctx, checker), nil
}

// CheckAll runs all registered health checks and returns the results keyed
// by checker name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	names, checkers := a.snapshot()
	results := make(map[string]Result, len(checkers))
	if len(checkers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	if !a.config.Parallel {
		for i, checker := range checkers {
			results[names[i]] = runCheck(ctx, checker)
		}
		return results
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			result := runCheck(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(names[i], checker)
	}
	wg.Wait()

	return results
}

// Report runs every check and returns them in registration order together
// with the overall status.
func (a *Aggregator) Report(ctx context.Context) Report {
	results := a.CheckAll(ctx)
	names, _ := a.snapshot()

	report := Report{
		Status: OverallStatus(results),
		Checks: make([]CheckReport, 0, len(results)),
	}
	for _, name := range names {
		result, ok := results[name]
		if !ok {
			continue
		}
		entry := CheckReport{
			Name:     name,
			Status:   result.Status,
			Message:  result.Message,
			Duration: result.Duration.String(),
			Details:  result.Details,
		}
		if result.Error != nil {
			entry.Error = result.Error.Error()
		}
		report.Checks = append(report.Checks, entry)
	}
	return report
}

func (a *Aggregator) snapshot() ([]string, []Checker) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = a.checkers[name]
	}
	return names, checkers
}

// Report is the JSON-friendly outcome of a full health run.
type Report struct {
	Status Status        `json:"status"`
	Checks []CheckReport `json:"checks"`
}

// CheckReport is one checker's entry in a Report.
type CheckReport struct {
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration"`
	Error    string         `json:"error,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// OverallStatus computes the overall health status from a set of results.
// Returns Unhealthy if any check is unhealthy.
// Returns Degraded if any check is degraded but none are unhealthy.
// Returns Healthy if all checks are healthy.
func OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, result := range results {
		if result.Status > overall {
			overall = result.Status
		}
	}
	return overall
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()

	resultCh := make(chan Result, 1)
	go func() {
		result := checker.Check(ctx)
		result.Duration = time.Since(start)
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
