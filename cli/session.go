package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/animedata/config"
	"github.com/jonwraymond/animedata/jikan"
	"github.com/jonwraymond/animedata/observe"
)

const shutdownTimeout = 5 * time.Second

// session is one command's client together with the telemetry it reports to.
type session struct {
	cfg    config.File
	client *jikan.Client
	obs    observe.Observer
}

// openSession loads the configuration, applies flag overrides and builds an
// instrumented client.
func (a *App) openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if a.opts.logLevel != "" {
		cfg.Observe.Logging.Enabled = true
		cfg.Observe.Logging.Level = a.opts.logLevel
	}
	cfg.Observe.Version = Version
	cfg.Observe.Output = a.stderr

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("failed to start telemetry: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("failed to start telemetry: %w", err)
	}

	opts := append([]jikan.Option{jikan.WithMiddleware(mw)}, a.clientOpts...)
	client, err := jikan.New(cfg.Client, opts...)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &session{cfg: cfg, client: client, obs: obs}, nil
}

// close flushes telemetry. It uses a fresh context so an interrupted command
// still exports what it recorded.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.obs.Shutdown(ctx)
}

// run opens a session, runs fn and prints its result as JSON.
func (a *App) run(ctx context.Context, fn func(context.Context, *jikan.Client) (any, error)) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	result, err := fn(ctx, s.client)
	if err != nil {
		return err
	}
	return a.printJSON(result)
}
