package jikan

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/animedata/observe"
	"github.com/jonwraymond/animedata/resilience"
)

// FallbackChain tries candidate URLs for one logical query in priority order.
//
// The first candidate that yields a non-empty result wins and later
// candidates are never called. Empty and failing candidates are skipped
// after the inter-call delay. When every candidate is empty or failing the
// chain returns an empty result and no error: callers cannot tell "nothing
// found" from "all candidates failed". Failures are logged at warn level.
// Only context cancellation is reported as an error.
type FallbackChain struct {
	fetcher *Fetcher
	sleep   resilience.Sleeper
	delay   time.Duration
	logger  observe.Logger
}

// NewFallbackChain creates a chain over fetcher.
func NewFallbackChain(fetcher *Fetcher, sleep resilience.Sleeper, interCallDelay time.Duration, logger observe.Logger) *FallbackChain {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &FallbackChain{
		fetcher: fetcher,
		sleep:   sleep,
		delay:   interCallDelay,
		logger:  logger,
	}
}

// Fetch returns the first non-empty result among candidates.
func (c *FallbackChain) Fetch(ctx context.Context, candidates []string) (FetchResult, error) {
	p := newPacer(c.sleep, c.delay)

	for i, u := range candidates {
		if err := p.wait(ctx); err != nil {
			return FetchResult{Items: []json.RawMessage{}}, err
		}

		res, err := c.fetcher.Fetch(ctx, u)
		observe.AddEvent(ctx, "fallback.candidate",
			attribute.Int("index", i),
			attribute.Int("items", len(res.Items)),
			attribute.Bool("failed", err != nil),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResult{Items: []json.RawMessage{}}, ctxErr
		}
		if err != nil {
			c.logger.Warn(ctx, "fallback candidate failed",
				observe.Field{Key: "candidate", Value: i},
				observe.Field{Key: "url", Value: u},
				observe.Field{Key: "error", Value: err},
			)
			continue
		}
		if !res.Empty() {
			return res, nil
		}
		c.logger.Debug(ctx, "fallback candidate empty",
			observe.Field{Key: "candidate", Value: i},
			observe.Field{Key: "url", Value: u},
		)
	}

	return FetchResult{Items: []json.RawMessage{}}, nil
}
