package jikan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/animedata/observe"
	"github.com/jonwraymond/animedata/resilience"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// FetchResult is the unwrapped payload of one upstream response.
// Items is never nil.
type FetchResult struct {
	Items []json.RawMessage
}

// Empty reports whether the result carries no items.
func (r FetchResult) Empty() bool {
	return len(r.Items) == 0
}

// attemptError is the outcome of a single failed HTTP attempt.
type attemptError struct {
	status    int
	throttled bool
	err       error
}

func (e *attemptError) Error() string {
	if e.throttled {
		return "upstream throttled the request"
	}
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("unexpected status %d", e.status)
}

func (e *attemptError) Unwrap() error {
	return e.err
}

// Fetcher performs logical GET requests with retry, pacing and envelope
// unwrapping. It is safe for concurrent use.
type Fetcher struct {
	http     *http.Client
	executor *resilience.Executor
	metrics  observe.Metrics
	logger   observe.Logger
	now      func() time.Time
}

// NewFetcher creates a fetcher that sends every request through executor.
func NewFetcher(httpClient *http.Client, executor *resilience.Executor, mw *observe.Middleware) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if executor == nil {
		executor = resilience.NewExecutor()
	}
	if mw == nil {
		mw = observe.NopMiddleware()
	}
	return &Fetcher{
		http:     httpClient,
		executor: executor,
		metrics:  mw.Metrics(),
		logger:   mw.Logger(),
		now:      time.Now,
	}
}

// Fetch issues a GET for rawURL and returns the unwrapped items.
//
// 429 responses and transport failures are retried by the executor. When
// attempts run out the result is a *RateLimitError if the last attempt was
// throttled and a *TransportError otherwise. Context errors are returned as is.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (FetchResult, error) {
	route := routeOf(rawURL)
	attempts := 0
	var last *attemptError
	var result FetchResult

	err := f.executor.Execute(ctx, func(ctx context.Context) error {
		attempts++
		if last != nil {
			f.metrics.RecordRetry(ctx, route, last.throttled)
		}

		items, aerr := f.attempt(ctx, rawURL, route)
		if aerr != nil {
			last = aerr
			return aerr
		}
		result = FetchResult{Items: items}
		return nil
	})
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return FetchResult{Items: []json.RawMessage{}}, ctxErr
	}

	var aerr *attemptError
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		err = &TransportError{URL: rawURL, Attempts: attempts, Cause: err}
	case errors.As(err, &aerr) && aerr.throttled:
		err = &RateLimitError{URL: rawURL, Attempts: attempts}
	case aerr != nil:
		err = &TransportError{URL: rawURL, StatusCode: aerr.status, Attempts: attempts, Cause: err}
	default:
		err = &TransportError{URL: rawURL, Attempts: attempts, Cause: err}
	}

	f.logger.Warn(ctx, "upstream request failed",
		observe.Field{Key: "route", Value: route},
		observe.Field{Key: "attempts", Value: attempts},
		observe.Field{Key: "error", Value: err},
	)
	return FetchResult{Items: []json.RawMessage{}}, err
}

func (f *Fetcher) attempt(ctx context.Context, rawURL, route string) ([]json.RawMessage, *attemptError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &attemptError{err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := f.now()
	resp, err := f.http.Do(req)
	if err != nil {
		f.metrics.RecordUpstreamRequest(ctx, route, 0, f.now().Sub(start))
		return nil, &attemptError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	f.metrics.RecordUpstreamRequest(ctx, route, resp.StatusCode, f.now().Sub(start))
	observe.AddEvent(ctx, "upstream.attempt",
		attribute.String("route", route),
		attribute.Int("status", resp.StatusCode),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &attemptError{status: resp.StatusCode, throttled: true}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &attemptError{status: resp.StatusCode}
	case err != nil:
		return nil, &attemptError{status: resp.StatusCode, err: fmt.Errorf("read body: %w", err)}
	}

	items, err := unwrapEnvelope(body)
	if err != nil {
		return nil, &attemptError{status: resp.StatusCode, err: err}
	}
	return items, nil
}

// unwrapEnvelope flattens {"data": ...} into a list. An object becomes a
// one-item list; a missing, null or empty data field becomes an empty list.
func unwrapEnvelope(body []byte) ([]json.RawMessage, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []json.RawMessage{}, nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode data list: %w", err)
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return items, nil
	case '{':
		if bytes.Equal(bytes.Join(bytes.Fields(data), nil), []byte("{}")) {
			return []json.RawMessage{}, nil
		}
		return []json.RawMessage{json.RawMessage(data)}, nil
	default:
		return nil, fmt.Errorf("decode envelope: unexpected data of kind %q", data[0])
	}
}

// routeOf reduces a URL to a low-cardinality label: its path with numeric
// segments replaced by {id}.
func routeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, s := range segs {
		if s != "" && strings.Trim(s, "0123456789") == "" {
			segs[i] = "{id}"
		}
	}
	return "/" + strings.Join(segs, "/")
}

// pacer inserts a fixed delay before every call after the first in a
// multi-call sequence. A pacer is not safe for concurrent use.
type pacer struct {
	sleep  resilience.Sleeper
	delay  time.Duration
	called bool
}

func newPacer(sleep resilience.Sleeper, delay time.Duration) *pacer {
	if sleep == nil {
		sleep = resilience.SleepContext
	}
	return &pacer{sleep: sleep, delay: delay}
}

// wait sleeps unless this is the first call of the sequence.
func (p *pacer) wait(ctx context.Context) error {
	if !p.called {
		p.called = true
		return nil
	}
	if p.delay <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, p.delay)
}
