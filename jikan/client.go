package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/animedata/cache"
	"github.com/jonwraymond/animedata/observe"
	"github.com/jonwraymond/animedata/resilience"
)

// Query kinds. They prefix cache keys and name query spans.
const (
	KindTopAiring       = "topAiring"
	KindTopAnime        = "topAnime"
	KindUpcoming        = "upcoming"
	KindAnime           = kindAnime
	KindSearch          = "search"
	KindRecommendations = "recommendations"
	KindReviews         = "reviews"
	KindSeasonal        = "seasonal"
	KindSchedule        = "schedule"
	KindNews            = "news"
)

// Seasons accepted by Seasonal.
var Seasons = []string{"winter", "spring", "summer", "fall"}

// ScheduleDays accepted by Schedule.
var ScheduleDays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"unknown", "other",
}

// Client is the typed query surface over the Jikan API.
//
// Every query derives a canonical cache key, serves valid cache entries
// without touching the network, and stores only non-empty results. Failures
// are never cached. Successful queries never return nil slices.
type Client struct {
	cfg      Config
	cache    cache.Cache
	loader   *cache.Loader
	keyer    cache.Keyer
	fetcher  *Fetcher
	executor *resilience.Executor
	compound *CompoundFetcher
	news     *FallbackChain
	mw       *observe.Middleware
	now      func() time.Time
	newID    func() string
}

type options struct {
	httpClient *http.Client
	cache      cache.Cache
	sleep      resilience.Sleeper
	now        func() time.Time
	mw         *observe.Middleware
	newID      func() string
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the HTTP client used for upstream requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithCache replaces the default in-memory cache.
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithSleep replaces the function used for every delay: retry backoff,
// inter-call pacing and rate limiter waits. The sleep need not advance the
// WithClock source; the rate limiter credits slept time it does not see.
func WithSleep(s resilience.Sleeper) Option {
	return func(o *options) { o.sleep = s }
}

// WithClock replaces the time source used by the cache, the rate limiter,
// the circuit breaker and normalization defaults.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMiddleware instruments queries with mw.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(o *options) { o.mw = mw }
}

// WithQueryID replaces the per-query correlation id generator.
func WithQueryID(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

// New creates a client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		sleep: resilience.SleepContext,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.mw == nil {
		o.mw = observe.NopMiddleware()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}

	policy := cache.FixedTTL(cfg.CacheTTL)
	if o.cache == nil {
		o.cache = cache.NewMemoryCache(policy, cache.WithClock(o.now))
	}

	c := &Client{
		cfg:   cfg,
		cache: o.cache,
		keyer: cache.NewQueryKeyer(),
		mw:    o.mw,
		now:   o.now,
		newID: o.newID,
	}
	c.cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	metrics := o.mw.Metrics()
	logger := o.mw.Logger()
	c.loader = cache.NewLoader(o.cache, policy,
		cache.WithLookupHook(func(ctx context.Context, key string, hit bool) {
			metrics.RecordCacheLookup(ctx, kindOf(key), hit)
		}),
		cache.WithStoreErrorHook(func(ctx context.Context, key string, err error) {
			logger.Warn(ctx, "cache store failed",
				observe.Field{Key: "cache.key", Value: key},
				observe.Field{Key: "error", Value: err})
		}),
	)
	c.executor = newExecutor(cfg, o.sleep, o.now, o.mw.Logger())
	c.fetcher = NewFetcher(o.httpClient, c.executor, o.mw)
	c.fetcher.now = o.now
	c.compound = NewCompoundFetcher(c.fetcher, c.loader, c.keyer, c.cfg.BaseURL,
		cfg.CompositeStrategy, o.sleep, cfg.InterCallDelay)
	c.news = NewFallbackChain(c.fetcher, o.sleep, cfg.InterCallDelay, o.mw.Logger())

	return c, nil
}

func newExecutor(cfg Config, sleep resilience.Sleeper, now func() time.Time, logger observe.Logger) *resilience.Executor {
	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  cfg.MaxAttempts,
			InitialDelay: cfg.BackoffBase,
			MaxDelay:     cfg.BackoffCap,
			Multiplier:   2,
			Strategy:     resilience.BackoffExponential,
			Jitter:       cfg.Jitter,
			Sleep:        sleep,
			OnRetry: func(state resilience.RetryState, err error) {
				logger.Debug(context.Background(), "retrying upstream request",
					observe.Field{Key: "attempt", Value: state.Attempt},
					observe.Field{Key: "max_attempts", Value: state.MaxAttempts},
					observe.Field{Key: "delay_ms", Value: state.LastDelay.Milliseconds()},
					observe.Field{Key: "error", Value: err},
				)
			},
		})),
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        cfg.RequestsPerSecond,
			Burst:       cfg.Burst,
			WaitOnLimit: true,
			Now:         now,
			Sleep:       sleep,
		})))
	}
	if cfg.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: cfg.MaxConcurrent,
		})))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, resilience.WithTimeout(cfg.RequestTimeout))
	}
	if cfg.BreakerMaxFailures > 0 {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  cfg.BreakerMaxFailures,
			ResetTimeout: cfg.BreakerResetTimeout,
			Now:          now,
			OnStateChange: func(from, to resilience.State) {
				logger.Warn(context.Background(), "circuit breaker state changed",
					observe.Field{Key: "from", Value: from.String()},
					observe.Field{Key: "to", Value: to.String()},
				)
			},
		})))
	}
	return resilience.NewExecutor(opts...)
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Cache returns the cache backing the client.
func (c *Client) Cache() cache.Cache {
	return c.cache
}

// Breaker returns the circuit breaker, or nil when it is disabled.
func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.executor.CircuitBreaker()
}

// Key derives the canonical cache key for a query kind and its parameters.
func (c *Client) Key(kind string, params ...string) string {
	return c.keyer.Key(kind, params...)
}

// TopAiring returns the top currently airing anime.
func (c *Client) TopAiring(ctx context.Context, page int) ([]Anime, error) {
	page = normalizePage(page)
	q := url.Values{"filter": {"airing"}, "page": {strconv.Itoa(page)}}
	return c.animeList(ctx, KindTopAiring, c.endpoint("/top/anime", q), strconv.Itoa(page))
}

// TopAnime returns the all-time top anime.
func (c *Client) TopAnime(ctx context.Context, page int) ([]Anime, error) {
	page = normalizePage(page)
	q := url.Values{"page": {strconv.Itoa(page)}}
	return c.animeList(ctx, KindTopAnime, c.endpoint("/top/anime", q), strconv.Itoa(page))
}

// Upcoming returns anime of upcoming seasons.
func (c *Client) Upcoming(ctx context.Context, page int) ([]Anime, error) {
	page = normalizePage(page)
	q := url.Values{"page": {strconv.Itoa(page)}}
	return c.animeList(ctx, KindUpcoming, c.endpoint("/seasons/upcoming", q), strconv.Itoa(page))
}

// Search returns safe-for-work anime matching query.
func (c *Client) Search(ctx context.Context, query string, page int) ([]Anime, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &QueryError{Kind: KindSearch, Field: "query", Reason: "must not be empty"}
	}
	page = normalizePage(page)
	q := url.Values{"q": {query}, "page": {strconv.Itoa(page)}, "sfw": {"true"}}
	return c.animeList(ctx, KindSearch, c.endpoint("/anime", q), query, strconv.Itoa(page))
}

// Seasonal returns the anime of one season.
func (c *Client) Seasonal(ctx context.Context, year int, season string) ([]Anime, error) {
	season = strings.ToLower(strings.TrimSpace(season))
	if year < 1917 {
		return nil, &QueryError{Kind: KindSeasonal, Field: "year", Reason: fmt.Sprintf("%d is out of range", year)}
	}
	if !oneOf(season, Seasons) {
		return nil, &QueryError{Kind: KindSeasonal, Field: "season", Reason: fmt.Sprintf("%q is not one of %v", season, Seasons)}
	}
	path := fmt.Sprintf("/seasons/%d/%s", year, season)
	return c.animeList(ctx, KindSeasonal, c.endpoint(path, nil), strconv.Itoa(year), season)
}

// Schedule returns the anime broadcast on day.
func (c *Client) Schedule(ctx context.Context, day string) ([]Anime, error) {
	day = strings.ToLower(strings.TrimSpace(day))
	if !oneOf(day, ScheduleDays) {
		return nil, &QueryError{Kind: KindSchedule, Field: "day", Reason: fmt.Sprintf("%q is not one of %v", day, ScheduleDays)}
	}
	return c.animeList(ctx, KindSchedule, c.endpoint("/schedules", url.Values{"filter": {day}}), day)
}

// AnimeByID returns the complete record for one anime.
func (c *Client) AnimeByID(ctx context.Context, id int) (CompositeRecord, error) {
	if id <= 0 {
		return CompositeRecord{}, &QueryError{Kind: KindAnime, Field: "id", Reason: "must be positive"}
	}

	var rec CompositeRecord
	err := c.observe(ctx, KindAnime, c.compound.Key(id), func(ctx context.Context) error {
		var err error
		rec, err = c.compound.Fetch(ctx, id)
		return err
	})
	if err != nil {
		return CompositeRecord{}, err
	}
	return rec, nil
}

// Recommendations returns anime recommended alongside id.
func (c *Client) Recommendations(ctx context.Context, id int) ([]Recommendation, error) {
	if id <= 0 {
		return nil, &QueryError{Kind: KindRecommendations, Field: "id", Reason: "must be positive"}
	}
	u := c.endpoint(fmt.Sprintf("/anime/%d/recommendations", id), nil)
	return queryList(ctx, c, KindRecommendations, []string{strconv.Itoa(id)}, func(ctx context.Context) ([]Recommendation, error) {
		res, err := c.fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		return normalizeAll(res.Items, NormalizeRecommendation), nil
	})
}

// Reviews returns one page of user reviews for id.
func (c *Client) Reviews(ctx context.Context, id, page int) ([]Review, error) {
	if id <= 0 {
		return nil, &QueryError{Kind: KindReviews, Field: "id", Reason: "must be positive"}
	}
	page = normalizePage(page)
	u := c.endpoint(fmt.Sprintf("/anime/%d/reviews", id), url.Values{"page": {strconv.Itoa(page)}})
	return queryList(ctx, c, KindReviews, []string{strconv.Itoa(id), strconv.Itoa(page)}, func(ctx context.Context) ([]Review, error) {
		res, err := c.fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		now := c.now()
		return normalizeAll(res.Items, func(raw json.RawMessage) (Review, error) {
			return NormalizeReview(raw, now)
		}), nil
	})
}

// News returns the latest news from the first candidate endpoint that has
// any. An empty list means no candidate returned items, whether because
// there was no news or because every candidate failed.
func (c *Client) News(ctx context.Context, page int) ([]NewsItem, error) {
	page = normalizePage(page)
	candidates := make([]string, 0, len(c.cfg.NewsEndpoints))
	for _, tmpl := range c.cfg.NewsEndpoints {
		candidates = append(candidates, c.resolve(strings.ReplaceAll(tmpl, PagePlaceholder, strconv.Itoa(page))))
	}

	return queryList(ctx, c, KindNews, []string{strconv.Itoa(page)}, func(ctx context.Context) ([]NewsItem, error) {
		res, err := c.news.Fetch(ctx, candidates)
		if err != nil {
			return nil, err
		}
		now := c.now()
		return normalizeAll(res.Items, func(raw json.RawMessage) (NewsItem, error) {
			return NormalizeNewsItem(raw, now)
		}), nil
	})
}

func (c *Client) animeList(ctx context.Context, kind, u string, params ...string) ([]Anime, error) {
	return queryList(ctx, c, kind, params, func(ctx context.Context) ([]Anime, error) {
		res, err := c.fetcher.Fetch(ctx, u)
		if err != nil {
			return nil, err
		}
		return normalizeAll(res.Items, NormalizeAnime), nil
	})
}

// queryList runs one observed, cached list query. Hits and misses both
// decode from the same JSON form so they return identical values.
func queryList[T any](ctx context.Context, c *Client, kind string, params []string,
	load func(ctx context.Context) ([]T, error)) ([]T, error) {
	key := c.keyer.Key(kind, params...)
	out := []T{}

	err := c.observe(ctx, kind, key, func(ctx context.Context) error {
		data, err := c.loader.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
			items, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(items)
		})
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return fmt.Errorf("jikan: decode cached %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *Client) observe(ctx context.Context, kind, key string, fn observe.QueryFunc) error {
	return c.mw.Observe(ctx, observe.QueryMeta{Kind: kind, Key: key, ID: c.newID()}, fn)
}

// endpoint joins path and query onto the base URL.
func (c *Client) endpoint(path string, q url.Values) string {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// resolve makes a configured endpoint absolute.
func (c *Client) resolve(ep string) string {
	if strings.HasPrefix(ep, "http://") || strings.HasPrefix(ep, "https://") {
		return ep
	}
	if !strings.HasPrefix(ep, "/") {
		ep = "/" + ep
	}
	return c.cfg.BaseURL + ep
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// kindOf recovers the query kind from a cache key.
func kindOf(key string) string {
	if i := strings.IndexByte(key, '_'); i > 0 {
		return key[:i]
	}
	return key
}
