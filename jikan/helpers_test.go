package jikan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type fakeResponse struct {
	status int
	body   string
}

func ok(body string) fakeResponse { return fakeResponse{status: http.StatusOK, body: body} }

var (
	throttled = fakeResponse{status: http.StatusTooManyRequests, body: `{"status":429}`}
	serverErr = fakeResponse{status: http.StatusInternalServerError, body: `{"status":500}`}
	emptyList = ok(`{"data":[]}`)
)

// fakeUpstream serves scripted responses per path. The last response of a
// script repeats. Unknown paths answer 404.
type fakeUpstream struct {
	mu      sync.Mutex
	scripts map[string][]fakeResponse
	served  map[string]int
	calls   []string
	srv     *httptest.Server
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		scripts: make(map[string][]fakeResponse),
		served:  make(map[string]int),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) on(path string, resps ...fakeResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[path] = resps
}

func (f *fakeUpstream) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.URL.RequestURI())
	script := f.scripts[r.URL.Path]
	n := f.served[r.URL.Path]
	f.served[r.URL.Path] = n + 1
	f.mu.Unlock()

	if len(script) == 0 {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":404}`))
		return
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(script[n].status)
	_, _ = w.Write([]byte(script[n].body))
}

func (f *fakeUpstream) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.served[path]
}

func (f *fakeUpstream) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeUpstream) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// virtualClock is a time source whose Sleep advances time instantly.
type virtualClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newVirtualClock() *virtualClock {
	return &virtualClock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func (c *virtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *virtualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// testConfig returns a config pointed at up with pacing disabled so that
// recorded sleeps are backoff and inter-call delays only.
func testConfig(up *fakeUpstream) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = up.srv.URL
	cfg.RequestsPerSecond = 0
	cfg.Burst = 0
	cfg.RequestTimeout = 0
	cfg.NewsEndpoints = []string{"/news/a?page={page}", "/news/b?page={page}", "/news/c?page={page}"}
	return cfg
}

func newTestClient(t *testing.T, up *fakeUpstream, mutate func(*Config)) (*Client, *virtualClock) {
	t.Helper()
	cfg := testConfig(up)
	if mutate != nil {
		mutate(&cfg)
	}
	clock := newVirtualClock()
	c, err := New(cfg,
		WithHTTPClient(up.srv.Client()),
		WithSleep(clock.Sleep),
		WithClock(clock.Now),
		WithQueryID(func() string { return "test" }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, clock
}

const (
	animeOneJSON = `{"mal_id":1,"url":"https://myanimelist.net/anime/1","title":"Cowboy Bebop",` +
		`"title_japanese":"カウボーイビバップ","images":{"jpg":{"image_url":"https://img/1.jpg","large_image_url":"https://img/1l.jpg"}},` +
		`"synopsis":"Space bounty hunters.","type":"TV","status":"Finished Airing","episodes":26,"score":8.75,` +
		`"scored_by":1000,"rank":40,"year":1998,"season":"spring","broadcast":{"string":"Saturdays at 01:00 (JST)"},` +
		`"genres":[{"mal_id":1,"name":"Action"},{"mal_id":24,"name":"Sci-Fi"}],"studios":[{"mal_id":14,"name":"Sunrise"}]}`
	charactersJSON = `{"data":[{"character":{"mal_id":1,"name":"Spiegel, Spike","images":{"jpg":{"image_url":"https://img/c1.jpg"}}},` +
		`"role":"Main","voice_actors":[{"person":{"mal_id":11,"name":"Blum, Steven"},"language":"English"},` +
		`{"person":{"mal_id":12,"name":"Yamadera, Kouichi"},"language":"Japanese"}]}]}`
	staffJSON = `{"data":[{"person":{"mal_id":40,"name":"Watanabe, Shinichirou","images":{"jpg":{"image_url":"https://img/p40.jpg"}}},` +
		`"positions":["Director","Script"]}]}`
)

func animeDetailsJSON() string { return `{"data":` + animeOneJSON + `}` }

func scriptAnimeOne(up *fakeUpstream) {
	up.on("/anime/1/full", ok(animeDetailsJSON()))
	up.on("/anime/1/characters", ok(charactersJSON))
	up.on("/anime/1/staff", ok(staffJSON))
}
