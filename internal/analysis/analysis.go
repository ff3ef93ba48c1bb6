// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis batches search results through an LLM completion service
// and integrates the per-batch summaries into one analysis text, accounting
// tokens and monetary cost throughout. Missing providers and per-batch
// failures degrade to valid results instead of aborting the run.
package analysis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// CompletionBackend abstracts the LLM completion service so tests can supply
// a mock.
type CompletionBackend interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
}

const (
	defaultBatchSize   = 10
	defaultMaxTokens   = 1500
	defaultTemperature = 0.7
)

const batchSystemPrompt = `You are a research analyst. Summarize the following web search results as they relate to the user's research topic. Capture concrete facts, named entities, and trends. Write a dense prose summary.`

const integrationSystemPrompt = `You are a research analyst. You are given partial summaries of batches of search results for one research topic. Integrate them into a single coherent analysis with sections for technology, market, applications, and challenges, a numbered list of key insights, and suggested topics for further investigation.`

// Result is the outcome of one pipeline run.
type Result struct {
	// AnalysisText is the integrated analysis (or the degraded fallback).
	AnalysisText string

	// BatchSummaries holds one summary per chunk, index matching chunk position.
	BatchSummaries []string

	// TotalCost is the accumulated completion cost in USD.
	TotalCost float64

	// ProcessedCount is the number of search results summarized.
	ProcessedCount int

	// BatchLatencies records wall-clock duration per completion call,
	// integration pass included.
	BatchLatencies []time.Duration

	// Degraded marks results produced without any completion call.
	Degraded bool
}

// Pipeline runs batch summarization and integration. It is owned by a single
// session and is not safe for concurrent use.
type Pipeline struct {
	backend     CompletionBackend
	tokenizer   Tokenizer
	pricing     Pricing
	batchSize   int
	maxTokens   int
	temperature float64

	now func() time.Time
}

// NewPipeline builds a Pipeline. A nil backend is allowed and produces
// degraded results. Zero config values fall back to defaults.
func NewPipeline(backend CompletionBackend, tokenizer Tokenizer, cfg types.AnalysisConfig) *Pipeline {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	pricing := Pricing{InputPer1K: cfg.InputCostPer1K, OutputPer1K: cfg.OutputCostPer1K}
	if pricing.InputPer1K <= 0 {
		pricing.InputPer1K = DefaultPricing.InputPer1K
	}
	if pricing.OutputPer1K <= 0 {
		pricing.OutputPer1K = DefaultPricing.OutputPer1K
	}
	if tokenizer == nil {
		tokenizer = heuristicTokenizer{}
	}
	return &Pipeline{
		backend:     backend,
		tokenizer:   tokenizer,
		pricing:     pricing,
		batchSize:   batchSize,
		maxTokens:   maxTokens,
		temperature: temperature,
		now:         time.Now,
	}
}

// Analyze summarizes results in fixed-size chunks and integrates the chunk
// summaries into one analysis text. Empty input or a missing backend yields
// a degraded-but-valid result with zero cost. A failed chunk is replaced by
// a marked placeholder; a failed integration pass falls back to the literal
// concatenation of batch summaries. No call path returns an error alongside
// partial cost: accumulated cost is always reported.
func (p *Pipeline) Analyze(ctx context.Context, results []types.SearchResult, prompt string, w io.Writer) Result {
	if len(results) == 0 {
		return Result{
			AnalysisText: "No search results were available for analysis. The topic may be too narrow, or the search provider was unreachable.",
			Degraded:     true,
		}
	}
	if p.backend == nil {
		return Result{
			AnalysisText:   fmt.Sprintf("Analysis service unavailable. %d search results were collected for %q but could not be summarized.", len(results), prompt),
			ProcessedCount: len(results),
			Degraded:       true,
		}
	}

	out := Result{ProcessedCount: len(results)}

	chunks := chunkResults(results, p.batchSize)
	for i, chunk := range chunks {
		fmt.Fprintf(w, "analyzing batch %d/%d (%d results)\n", i+1, len(chunks), len(chunk))

		summary, cost, latency, err := p.summarizeBatch(ctx, chunk, prompt)
		out.TotalCost += cost
		out.BatchLatencies = append(out.BatchLatencies, latency)
		if err != nil {
			fmt.Fprintf(w, "  warning: batch %d failed: %v\n", i+1, err)
			summary = fmt.Sprintf("[batch %d summary unavailable: analysis call failed]", i+1)
		}
		out.BatchSummaries = append(out.BatchSummaries, summary)
	}

	// Integration pass: the batch summaries become the input of one final
	// completion call.
	fmt.Fprintf(w, "integrating %d batch summaries\n", len(out.BatchSummaries))
	integrated, cost, latency, err := p.integrate(ctx, out.BatchSummaries, prompt)
	out.TotalCost += cost
	out.BatchLatencies = append(out.BatchLatencies, latency)
	if err != nil {
		fmt.Fprintf(w, "  warning: integration failed, falling back to concatenation: %v\n", err)
		integrated = strings.Join(out.BatchSummaries, "\n\n")
	}
	out.AnalysisText = integrated

	return out
}

// summarizeBatch issues one completion call for a chunk of results.
func (p *Pipeline) summarizeBatch(ctx context.Context, chunk []types.SearchResult, prompt string) (summary string, cost float64, latency time.Duration, err error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Research topic: %s\n\nSearch results:\n", prompt)
	for i, r := range chunk {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   (%s)\n", i+1, r.Title, r.Snippet, r.URL)
	}
	return p.complete(ctx, batchSystemPrompt, b.String())
}

// integrate issues the final completion call over all batch summaries.
func (p *Pipeline) integrate(ctx context.Context, summaries []string, prompt string) (text string, cost float64, latency time.Duration, err error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Research topic: %s\n\nBatch summaries:\n", prompt)
	for i, s := range summaries {
		fmt.Fprintf(&b, "--- batch %d ---\n%s\n", i+1, s)
	}
	return p.complete(ctx, integrationSystemPrompt, b.String())
}

// complete wraps one backend call with latency measurement and token-based
// cost estimation.
func (p *Pipeline) complete(ctx context.Context, system, user string) (text string, cost float64, latency time.Duration, err error) {
	start := p.now()
	text, err = p.backend.Complete(ctx, system, user, p.maxTokens, p.temperature)
	latency = p.now().Sub(start)

	inputTokens := p.tokenizer.CountTokens(system) + p.tokenizer.CountTokens(user)
	outputTokens := p.tokenizer.CountTokens(text)
	cost = p.pricing.Estimate(inputTokens, outputTokens)

	if err != nil {
		return "", cost, latency, err
	}
	return text, cost, latency, nil
}

// chunkResults partitions results into fixed-size chunks, last chunk short.
func chunkResults(results []types.SearchResult, size int) [][]types.SearchResult {
	var chunks [][]types.SearchResult
	for start := 0; start < len(results); start += size {
		end := start + size
		if end > len(results) {
			end = len(results)
		}
		chunks = append(chunks, results[start:end])
	}
	return chunks
}
