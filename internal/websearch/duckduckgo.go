// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// Endpoint bases are package vars so tests can substitute httptest servers.
var (
	htmlEndpoint = "https://html.duckduckgo.com/html/"
	liteEndpoint = "https://lite.duckduckgo.com/lite/"
	apiEndpoint  = "https://api.duckduckgo.com/"
)

// NewBackends returns the backend strategies in rotation order: html, lite, api.
func NewBackends(client *http.Client, cfg types.SearchConfig) []Backend {
	return []Backend{
		&HTMLBackend{Client: client, UserAgent: cfg.UserAgent},
		&LiteBackend{Client: client, UserAgent: cfg.UserAgent},
		&APIBackend{Client: client, UserAgent: cfg.UserAgent},
	}
}

// fetch issues a GET with the query encoded and returns the response body
// reader. HTTP 429 and 202 map to errRateLimited so the retry wait is the
// rate-limit window.
func fetch(ctx context.Context, client *http.Client, base, userAgent string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusTooManyRequests, http.StatusAccepted:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", base, errRateLimited)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned HTTP %d", base, resp.StatusCode)
	}
}

// HTMLBackend scrapes the full HTML results page.
type HTMLBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *HTMLBackend) Name() string { return "html" }

// Search queries the HTML endpoint and parses result anchors and snippets.
func (b *HTMLBackend) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	resp, err := fetch(ctx, b.Client, htmlEndpoint, b.UserAgent, url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html results: %w", err)
	}

	return parseResultPage(doc, "result__a", "result__snippet", "html", maxResults), nil
}

// LiteBackend scrapes the lightweight results page.
type LiteBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *LiteBackend) Name() string { return "lite" }

// Search queries the lite endpoint and parses result rows.
func (b *LiteBackend) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	resp, err := fetch(ctx, b.Client, liteEndpoint, b.UserAgent, url.Values{"q": {query}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing lite results: %w", err)
	}

	return parseResultPage(doc, "result-link", "result-snippet", "lite", maxResults), nil
}

// parseResultPage walks the parsed document collecting anchors whose class
// contains linkClass as titled links and elements whose class contains
// snippetClass as the following snippet text.
func parseResultPage(doc *html.Node, linkClass, snippetClass, source string, maxResults int) []types.SearchResult {
	var results []types.SearchResult

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults && maxResults > 0 {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, linkClass):
				results = append(results, types.SearchResult{
					Title:  strings.TrimSpace(textContent(n)),
					URL:    attrValue(n, "href"),
					Source: source,
				})
			case hasClass(n, snippetClass):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = strings.TrimSpace(textContent(n))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	// Drop entries without a link target; navigation anchors can match.
	kept := results[:0]
	for _, r := range results {
		if r.URL != "" && r.Title != "" {
			kept = append(kept, r)
		}
	}
	return kept
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// APIBackend queries the Instant Answer JSON API. It returns related-topic
// entries, which are shallower than the scraped pages but immune to markup
// drift.
type APIBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *APIBackend) Name() string { return "api" }

// instantAnswer is the subset of the Instant Answer response we consume.
type instantAnswer struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Search queries the JSON API and maps the abstract plus related topics to
// search results.
func (b *APIBackend) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	params := url.Values{
		"q":             {query},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}
	resp, err := fetch(ctx, b.Client, apiEndpoint, b.UserAgent, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ia instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&ia); err != nil {
		return nil, fmt.Errorf("parsing instant answer response: %w", err)
	}

	var results []types.SearchResult
	if ia.AbstractText != "" {
		results = append(results, types.SearchResult{
			Title:   ia.Heading,
			Snippet: ia.AbstractText,
			URL:     ia.AbstractURL,
			Source:  "api",
		})
	}
	for _, topic := range ia.RelatedTopics {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		results = append(results, types.SearchResult{
			Title:   topicTitle(topic.Text),
			Snippet: topic.Text,
			URL:     topic.FirstURL,
			Source:  "api",
		})
	}
	return results, nil
}

// topicTitle takes the leading clause of a related-topic text as the title.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	return text
}
