package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/insight-engine/pkg/types"
)

const htmlPage = `<html><body>
<div class="result">
  <a class="result__a" href="https://example.com/one">First Result</a>
  <div class="result__snippet">Snippet for the first result.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/two">Second Result</a>
  <div class="result__snippet">Snippet for the second result.</div>
</div>
<a class="nav-link" href="/next">Next</a>
</body></html>`

const litePage = `<html><body><table>
<tr><td><a class="result-link" href="https://example.com/a">Lite A</a></td></tr>
<tr><td class="result-snippet">Lite snippet A</td></tr>
<tr><td><a class="result-link" href="https://example.com/b">Lite B</a></td></tr>
</table></body></html>`

func serveEndpoint(t *testing.T, endpoint *string, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	old := *endpoint
	*endpoint = server.URL + "/"
	t.Cleanup(func() { *endpoint = old })
}

// --- HTML backend ---

func TestHTMLBackendParsesResults(t *testing.T) {
	serveEndpoint(t, &htmlEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang" {
			t.Errorf("query = %q, want golang", got)
		}
		fmt.Fprint(w, htmlPage)
	})

	b := &HTMLBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	results, err := b.Search(context.Background(), "golang", 10)
	if err != nil {
		t.Fatal(err)
	}

	want := []types.SearchResult{
		{Title: "First Result", Snippet: "Snippet for the first result.", URL: "https://example.com/one", Source: "html"},
		{Title: "Second Result", Snippet: "Snippet for the second result.", URL: "https://example.com/two", Source: "html"},
	}
	if len(results) != len(want) {
		t.Fatalf("len(results) = %d, want %d: %+v", len(results), len(want), results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}
}

func TestHTMLBackendMaxResults(t *testing.T) {
	serveEndpoint(t, &htmlEndpoint, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, htmlPage)
	})

	b := &HTMLBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	results, err := b.Search(context.Background(), "golang", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("len(results) = %d, want 1", len(results))
	}
}

func TestHTMLBackendRateLimited(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusAccepted} {
		serveEndpoint(t, &htmlEndpoint, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		b := &HTMLBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
		_, err := b.Search(context.Background(), "golang", 10)
		if !errors.Is(err, errRateLimited) {
			t.Errorf("status %d: err = %v, want errRateLimited", status, err)
		}
		if Classify(err) != FailureRateLimit {
			t.Errorf("status %d: Classify(err) = %v, want rate_limit", status, Classify(err))
		}
	}
}

// --- Lite backend ---

func TestLiteBackendParsesResults(t *testing.T) {
	serveEndpoint(t, &liteEndpoint, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, litePage)
	})

	b := &LiteBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	results, err := b.Search(context.Background(), "golang", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}
	if results[0].Snippet != "Lite snippet A" {
		t.Errorf("snippet = %q, want %q", results[0].Snippet, "Lite snippet A")
	}
	if results[1].Snippet != "" {
		t.Errorf("snippet = %q, want empty for result without one", results[1].Snippet)
	}
}

// --- API backend ---

func TestAPIBackendParsesInstantAnswer(t *testing.T) {
	serveEndpoint(t, &apiEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q, want json", got)
		}
		fmt.Fprint(w, `{
			"Heading": "Go",
			"AbstractText": "Go is a programming language.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Go",
			"RelatedTopics": [
				{"Text": "Gopher - The Go mascot.", "FirstURL": "https://example.com/gopher"},
				{"Text": "", "FirstURL": "https://example.com/skip"}
			]
		}`)
	})

	b := &APIBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	results, err := b.Search(context.Background(), "go", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2: %+v", len(results), results)
	}
	if results[0].Title != "Go" || results[0].Source != "api" {
		t.Errorf("abstract result = %+v", results[0])
	}
	if results[1].Title != "Gopher" {
		t.Errorf("topic title = %q, want %q", results[1].Title, "Gopher")
	}
}

func TestAPIBackendEmptyAnswer(t *testing.T) {
	serveEndpoint(t, &apiEndpoint, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Heading": "", "AbstractText": "", "RelatedTopics": []}`)
	})

	b := &APIBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	results, err := b.Search(context.Background(), "nothing", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}
