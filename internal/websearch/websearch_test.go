package websearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	name    string
	results []types.SearchResult
	err     error
	calls   int
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, _ string, _ int) ([]types.SearchResult, error) {
	m.calls++
	return m.results, m.err
}

// fakeClock drives the client's injected now/sleep so tests never block.
type fakeClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
}

func testClient(backends ...Backend) (*Client, *fakeClock) {
	return testClientCfg(types.SearchConfig{}, backends...)
}

func testClientCfg(cfg types.SearchConfig, backends ...Backend) (*Client, *fakeClock) {
	c := NewClient(backends, cfg)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.now
	c.sleep = clock.sleep
	c.rng = rand.New(rand.NewSource(1))
	return c, clock
}

func someResults(n int) []types.SearchResult {
	out := make([]types.SearchResult, n)
	for i := range out {
		out[i] = types.SearchResult{Title: fmt.Sprintf("result %d", i), URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	return out
}

// --- rate limiting ---

func TestSearchEnforcesMinInterval(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(1)}
	c, clock := testClient(backend)

	if _, err := c.Search(context.Background(), "first", 5); err != nil {
		t.Fatal(err)
	}
	// Second call 500ms later must wait out the remaining 1.5s.
	clock.t = clock.t.Add(500 * time.Millisecond)
	if _, err := c.Search(context.Background(), "second", 5); err != nil {
		t.Fatal(err)
	}

	if len(clock.sleeps) != 1 {
		t.Fatalf("sleeps = %v, want exactly one interval wait", clock.sleeps)
	}
	if clock.sleeps[0] != 1500*time.Millisecond {
		t.Errorf("interval wait = %v, want 1.5s", clock.sleeps[0])
	}
}

func TestSearchNoWaitAfterInterval(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(1)}
	c, clock := testClient(backend)

	if _, err := c.Search(context.Background(), "first", 5); err != nil {
		t.Fatal(err)
	}
	clock.t = clock.t.Add(3 * time.Second)
	if _, err := c.Search(context.Background(), "second", 5); err != nil {
		t.Fatal(err)
	}

	if len(clock.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none when interval already elapsed", clock.sleeps)
	}
}

// --- retry rotation ---

func TestSearchRotatesBackends(t *testing.T) {
	failing := &mockBackend{name: "html", err: errors.New("boom")}
	working := &mockBackend{name: "lite", results: someResults(3)}
	c, _ := testClient(failing, working)

	results, err := c.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", failing.calls, working.calls)
	}
}

func TestSearchExhaustionReturnsEmptyNotError(t *testing.T) {
	failing := &mockBackend{name: "html", err: errors.New("boom")}
	c, _ := testClient(failing)

	results, err := c.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("err = %v, want nil on exhaustion", err)
	}
	if results == nil {
		t.Fatal("results = nil, want empty non-nil slice")
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
	if failing.calls != 3 {
		t.Errorf("calls = %d, want 3 attempts", failing.calls)
	}
}

func TestSearchTruncatesToMaxResults(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(10)}
	c, _ := testClient(backend)

	results, err := c.Search(context.Background(), "q", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Errorf("len(results) = %d, want 4", len(results))
	}
}

func TestSearchQuotaFallsBackToConfig(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(10)}
	c, _ := testClientCfg(types.SearchConfig{MaxResults: 2}, backend)

	results, err := c.Search(context.Background(), "q", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want configured quota of 2", len(results))
	}
	if got := c.History()[0].Requested; got != 2 {
		t.Errorf("recorded quota = %d, want 2", got)
	}
}

func TestSearchCancelledContext(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(1)}
	c, _ := testClient(backend)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := c.Search(ctx, "q", 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if results == nil {
		t.Error("results = nil, want empty non-nil slice")
	}
	if backend.calls != 0 {
		t.Errorf("backend called %d times after cancellation", backend.calls)
	}
}

// --- history ---

func TestSearchHistory(t *testing.T) {
	working := &mockBackend{name: "html", results: someResults(2)}
	c, clock := testClient(working)

	c.Search(context.Background(), "good", 5)
	clock.t = clock.t.Add(time.Minute)

	c.backends = []Backend{&mockBackend{name: "html", err: errors.New("boom")}}
	c.Search(context.Background(), "bad", 5)

	history := c.History()
	if len(history) != 2 {
		t.Fatalf("len(history) = %d, want 2", len(history))
	}
	if !history[0].Succeeded || history[0].Returned != 2 {
		t.Errorf("first record = %+v, want success with 2 results", history[0])
	}
	if history[1].Succeeded {
		t.Errorf("second record = %+v, want failure", history[1])
	}
	if got := c.SuccessRate(); got != 0.5 {
		t.Errorf("SuccessRate() = %f, want 0.5", got)
	}
}

// --- failure classification ---

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"rate limit sentinel", errRateLimited, FailureRateLimit},
		{"wrapped rate limit", fmt.Errorf("html: %w", errRateLimited), FailureRateLimit},
		{"dns", &net.DNSError{Err: "no such host", Name: "example.com"}, FailureDNS},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"message timeout", errors.New("request timeout exceeded"), FailureTimeout},
		{"message dns", errors.New("lookup failed: no such host"), FailureDNS},
		{"message 429", errors.New("unexpected status 429"), FailureRateLimit},
		{"other", errors.New("boom"), FailureOther},
		{"nil", nil, FailureOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryWaitFixedKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := retryWait(FailureDNS, rng); got != 5*time.Second {
		t.Errorf("dns wait = %v, want 5s", got)
	}
	if got := retryWait(FailureRateLimit, rng); got != 60*time.Second {
		t.Errorf("rate limit wait = %v, want 60s", got)
	}
}

func TestRetryWaitWindowedKinds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		if got := retryWait(FailureTimeout, rng); got < 3*time.Second || got > 7*time.Second {
			t.Fatalf("timeout wait = %v, want within [3s, 7s]", got)
		}
		if got := retryWait(FailureOther, rng); got < time.Second || got > 3*time.Second {
			t.Fatalf("other wait = %v, want within [1s, 3s]", got)
		}
	}
}

func TestSearchRateLimitBackoff(t *testing.T) {
	limited := &mockBackend{name: "html", err: errRateLimited}
	c, clock := testClient(limited)

	c.Search(context.Background(), "q", 5)

	// Two inter-attempt waits of 60s each, plus interval waits.
	long := 0
	for _, d := range clock.sleeps {
		if d == 60*time.Second {
			long++
		}
	}
	if long != 2 {
		t.Errorf("60s backoffs = %d (sleeps %v), want 2", long, clock.sleeps)
	}
}

// --- batch search ---

func TestBatchSearch(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(2)}
	c, _ := testClient(backend)

	var buf bytes.Buffer
	out, err := c.BatchSearch(context.Background(), []string{"a", "b", "c"}, 5, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if out.Attempted != 3 || out.Succeeded != 3 {
		t.Errorf("attempted/succeeded = %d/%d, want 3/3", out.Attempted, out.Succeeded)
	}
	if out.TotalItems() != 6 {
		t.Errorf("TotalItems() = %d, want 6", out.TotalItems())
	}
	if out.SuccessRate() != 1.0 {
		t.Errorf("SuccessRate() = %f, want 1.0", out.SuccessRate())
	}
	if buf.Len() == 0 {
		t.Error("no progress output written")
	}
}

func TestBatchSearchSpacing(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(1)}
	c, clock := testClient(backend)

	c.BatchSearch(context.Background(), []string{"a", "b"}, 5, bytes.NewBuffer(nil))

	// One inter-query spacing within [2s, 4s).
	spaced := 0
	for _, d := range clock.sleeps {
		if d >= 2*time.Second && d < 4*time.Second {
			spaced++
		}
	}
	if spaced == 0 {
		t.Errorf("sleeps = %v, want an inter-query spacing in [2s, 4s)", clock.sleeps)
	}
}

func TestBatchSearchCapsQueries(t *testing.T) {
	backend := &mockBackend{name: "html", results: someResults(1)}
	c, _ := testClientCfg(types.SearchConfig{MaxQueries: 2}, backend)

	out, err := c.BatchSearch(context.Background(), []string{"a", "b", "c", "d"}, 5, bytes.NewBuffer(nil))
	if err != nil {
		t.Fatal(err)
	}
	if out.Attempted != 2 {
		t.Errorf("Attempted = %d, want batch capped at 2 queries", out.Attempted)
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2", backend.calls)
	}
}

func TestBatchSearchPartialFailure(t *testing.T) {
	c, _ := testClient(&mockBackend{name: "html", err: errors.New("boom")})

	out, err := c.BatchSearch(context.Background(), []string{"a", "b"}, 5, bytes.NewBuffer(nil))
	if err != nil {
		t.Fatal(err)
	}
	if out.Attempted != 2 || out.Succeeded != 0 {
		t.Errorf("attempted/succeeded = %d/%d, want 2/0", out.Attempted, out.Succeeded)
	}
	if out.SuccessRate() != 0 {
		t.Errorf("SuccessRate() = %f, want 0", out.SuccessRate())
	}
}
