// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the insight-engine pipeline:
// search results, reports, validation outcomes, quality history records, and
// per-stage configuration.
package types

// SearchResult is one web search hit returned by an acquisition backend.
// Results are ephemeral: they live for the duration of one analysis run and
// are embedded verbatim in the report's detail payload.
type SearchResult struct {
	// Title is the result title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Snippet is the provider's short description of the page.
	Snippet string `json:"snippet" yaml:"snippet"`

	// URL is the target link.
	URL string `json:"url" yaml:"url"`

	// Source identifies which backend strategy produced this result
	// (e.g. "html", "lite", "api").
	Source string `json:"source" yaml:"source"`
}
