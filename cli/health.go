package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/animedata/health"
	"github.com/jonwraymond/animedata/jikan"
)

// ErrUnhealthy is returned by the health command when any check fails.
var ErrUnhealthy = errors.New("cli: client unhealthy")

type healthOptions struct {
	live          bool
	cacheWarning  int
	cacheCritical int
}

func (a *App) newHealthCmd() *cobra.Command {
	opts := &healthOptions{}

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report client health",
		Long: `Report the health of the client as JSON.

By default a real query is sent first, so the upstream and cache checks
reflect the API's current answer. With --live=false nothing is sent and the
report only restates this process's starting state: a fresh cache and, with
the default configuration, no circuit breaker.

Examples:
  animectl health
  animectl health --live=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.health(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.live, "live", true, "Send a live query before checking")
	cmd.Flags().IntVar(&opts.cacheWarning, "cache-warning", 5000, "Cache entries that mark the cache degraded")
	cmd.Flags().IntVar(&opts.cacheCritical, "cache-critical", 20000, "Cache entries that mark the cache unhealthy")

	return cmd
}

func (a *App) health(ctx context.Context, opts *healthOptions) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	agg := health.NewAggregator(health.AggregatorConfig{
		Timeout:  queryBudget(s.cfg.Client),
		Parallel: false,
	})

	if opts.live {
		agg.Register(health.NewCheckerFunc("live_query", func(ctx context.Context) health.Result {
			if _, err := s.client.TopAnime(ctx, 1); err != nil {
				return health.Unhealthy("query failed", err)
			}
			return health.Healthy("query succeeded")
		}))
	}
	agg.Register(health.NewUpstreamChecker("upstream", s.client.Breaker()))

	sizer, _ := s.client.Cache().(health.Sizer)
	agg.Register(health.NewCacheChecker(sizer, health.CacheCheckerConfig{
		WarningEntries:  opts.cacheWarning,
		CriticalEntries: opts.cacheCritical,
	}))

	report := agg.Report(ctx)
	if err := a.printJSON(report); err != nil {
		return err
	}
	if report.Status == health.StatusUnhealthy {
		return fmt.Errorf("%w: %d checks reported", ErrUnhealthy, len(report.Checks))
	}
	return nil
}

// queryBudget covers every attempt of a retried live query and the waits between them.
func queryBudget(cfg jikan.Config) time.Duration {
	attempts := time.Duration(cfg.MaxAttempts)
	return cfg.RequestTimeout*attempts + cfg.BackoffCap*attempts
}
