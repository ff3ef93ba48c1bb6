// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles the structured report record from the integrated
// analysis text and the raw batch data. Text mining is behind a pluggable
// extraction strategy so a schema-constrained completion call can replace
// the pattern matching without touching the assembler's contract.
package report

import (
	"time"

	"github.com/pdiddy/insight-engine/internal/analysis"
	"github.com/pdiddy/insight-engine/pkg/types"
)

const (
	maxInsights = 7
	maxTopics   = 5
)

// Extractor mines structure out of free-form analysis text.
type Extractor interface {
	// Insights returns up to max key-insight lines.
	Insights(text string, max int) []string

	// RelatedTopics returns up to max follow-up topic lines.
	RelatedTopics(text string, max int) []string

	// Categories splits the text into named category sections.
	Categories(text string) map[string]string
}

// Assembler builds reports from analysis output.
type Assembler struct {
	extractor Extractor

	now func() time.Time
}

// NewAssembler builds an Assembler. A nil extractor selects the default
// pattern-based strategy.
func NewAssembler(extractor Extractor) *Assembler {
	if extractor == nil {
		extractor = NewPatternExtractor()
	}
	return &Assembler{extractor: extractor, now: time.Now}
}

// Assemble builds the report for one run. The caller assigns reportID
// monotonically within the session. Empty search input produces the distinct
// empty-data variant with zero data quality and fixed explanatory insights.
func (a *Assembler) Assemble(prompt string, results []types.SearchResult, ar analysis.Result, reportID int) *types.Report {
	r := &types.Report{
		ReportID:    reportID,
		Timestamp:   a.now().UTC().Format(time.RFC3339),
		UserPrompt:  prompt,
		SearchCount: len(results),
		Cost:        ar.TotalCost,
		Detail: &types.ReportDetail{
			SearchResults:  results,
			BatchSummaries: ar.BatchSummaries,
		},
	}

	if len(results) == 0 {
		r.EmptyDataReport = true
		r.AnalysisSummary = ar.AnalysisText
		r.DataQuality = 0
		r.KeyInsights = []string{
			"No search results could be retrieved for this topic.",
			"Try rephrasing the topic or broadening the query terms.",
			"The search provider may be rate limiting; retry later.",
		}
		r.Categories = map[string]string{}
		r.RelatedTopics = []string{}
		return r
	}

	r.AnalysisSummary = ar.AnalysisText
	r.KeyInsights = a.extractor.Insights(ar.AnalysisText, maxInsights)
	r.RelatedTopics = a.extractor.RelatedTopics(ar.AnalysisText, maxTopics)
	r.Categories = a.extractor.Categories(ar.AnalysisText)
	r.DataQuality = dataQuality(len(results))

	return r
}

// dataQuality is a cheap volume-based proxy: more results, higher assumed
// quality, capped at 0.95. Advisory only; the validator treats deviations
// from this curve as soft signals, never hard errors.
func dataQuality(searchCount int) float64 {
	q := 0.5 + float64(searchCount)/200
	if q > 0.95 {
		return 0.95
	}
	return q
}
