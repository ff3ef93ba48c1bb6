// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch issues rate-limited, retrying queries to a web search
// provider and returns flat lists of result records. Failures are classified
// to pick the retry wait; exhausting all attempts yields an empty result
// list, which callers must treat as legitimate data rather than an error.
package websearch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// Backend searches a single provider surface. Each strategy ("html", "lite",
// "api") implements this interface; retries rotate through them in order.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// CallRecord is one entry in the client's search history log.
type CallRecord struct {
	Query     string    `json:"query" yaml:"query"`
	Requested int       `json:"requested" yaml:"requested"`
	Returned  int       `json:"returned" yaml:"returned"`
	Succeeded bool      `json:"succeeded" yaml:"succeeded"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Client coordinates rate-limited access to the search provider. It is owned
// by a single pipeline session and is not safe for concurrent use.
type Client struct {
	backends    []Backend
	minInterval time.Duration
	maxAttempts int
	maxResults  int
	maxQueries  int

	lastCall time.Time
	history  []CallRecord

	// sleep, now, and rng are injection points for tests.
	sleep func(time.Duration)
	now   func() time.Time
	rng   *rand.Rand
}

// NewClient builds a Client over the given backends. Zero config values fall
// back to defaults (2s interval, 3 attempts, 10 results per query, 20
// queries per batch).
func NewClient(backends []Backend, cfg types.SearchConfig) *Client {
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	maxQueries := cfg.MaxQueries
	if maxQueries <= 0 {
		maxQueries = 20
	}
	return &Client{
		backends:    backends,
		minInterval: minInterval,
		maxAttempts: maxAttempts,
		maxResults:  maxResults,
		maxQueries:  maxQueries,
		sleep:       time.Sleep,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Search performs one rate-limited query. It blocks until the minimum
// interval since the previous provider call has elapsed, then tries up to
// maxAttempts backends in rotation, waiting a classified backoff between
// attempts. A non-positive maxResults falls back to the configured per-query
// quota. Exhausting all attempts returns an empty, non-nil slice and a nil
// error: zero results is a valid outcome. Every call is appended to the
// history log.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	if len(c.backends) == 0 {
		c.record(query, maxResults, 0, false)
		return []types.SearchResult{}, nil
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			c.record(query, maxResults, 0, false)
			return []types.SearchResult{}, err
		}

		c.waitInterval()

		backend := c.backends[attempt%len(c.backends)]
		results, err := backend.Search(ctx, query, maxResults)
		if err == nil {
			if results == nil {
				results = []types.SearchResult{}
			}
			if len(results) > maxResults {
				results = results[:maxResults]
			}
			c.record(query, maxResults, len(results), true)
			return results, nil
		}

		if attempt < c.maxAttempts-1 {
			c.sleep(retryWait(Classify(err), c.rng))
		}
	}

	c.record(query, maxResults, 0, false)
	return []types.SearchResult{}, nil
}

// waitInterval blocks until minInterval has passed since the last provider
// call, then stamps the call time.
func (c *Client) waitInterval() {
	if !c.lastCall.IsZero() {
		if elapsed := c.now().Sub(c.lastCall); elapsed < c.minInterval {
			c.sleep(c.minInterval - elapsed)
		}
	}
	c.lastCall = c.now()
}

func (c *Client) record(query string, requested, returned int, ok bool) {
	c.history = append(c.history, CallRecord{
		Query:     query,
		Requested: requested,
		Returned:  returned,
		Succeeded: ok,
		Timestamp: c.now(),
	})
}

// History returns the call log in chronological order.
func (c *Client) History() []CallRecord {
	return c.history
}

// SuccessRate reports the fraction of logged calls that returned results.
func (c *Client) SuccessRate() float64 {
	if len(c.history) == 0 {
		return 0
	}
	ok := 0
	for _, r := range c.history {
		if r.Succeeded {
			ok++
		}
	}
	return float64(ok) / float64(len(c.history))
}

// BatchOutput summarizes a batch search run.
type BatchOutput struct {
	Results   []types.SearchResult
	Attempted int
	Succeeded int
}

// TotalItems returns the number of results gathered.
func (o BatchOutput) TotalItems() int { return len(o.Results) }

// SuccessRate reports the fraction of queries that returned results.
func (o BatchOutput) SuccessRate() float64 {
	if o.Attempted == 0 {
		return 0
	}
	return float64(o.Succeeded) / float64(o.Attempted)
}

// BatchSearch runs Search for each query in order, applying the per-query
// result quota and a randomized 2-4s spacing between queries. Queries beyond
// the configured batch cap are dropped. Per-query progress is written to w.
// Individual query failures do not stop the batch.
func (c *Client) BatchSearch(ctx context.Context, queries []string, perQuery int, w io.Writer) (BatchOutput, error) {
	if len(queries) > c.maxQueries {
		queries = queries[:c.maxQueries]
	}
	var out BatchOutput
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if i > 0 {
			c.sleep(2*time.Second + time.Duration(c.rng.Int63n(int64(2*time.Second))))
		}

		results, err := c.Search(ctx, q, perQuery)
		if err != nil {
			return out, err
		}

		out.Attempted++
		if len(results) > 0 {
			out.Succeeded++
		}
		out.Results = append(out.Results, results...)

		fmt.Fprintf(w, "search %d/%d: %q -> %d results\n", i+1, len(queries), q, len(results))
	}

	fmt.Fprintf(w, "\nbatch done: %d/%d queries returned results, %d items\n",
		out.Succeeded, out.Attempted, out.TotalItems())
	return out, nil
}
