// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine wires the pipeline stages into a session: diversified
// queries, batch search, batch analysis, report assembly, validation,
// history recording, and session persistence. Its central guarantee is that
// Analyze always hands back a well-formed report, no matter which stage
// failed.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/insight-engine/internal/analysis"
	"github.com/pdiddy/insight-engine/internal/queries"
	"github.com/pdiddy/insight-engine/internal/report"
	"github.com/pdiddy/insight-engine/internal/validate"
	"github.com/pdiddy/insight-engine/internal/websearch"
	"github.com/pdiddy/insight-engine/pkg/types"
)

// Searcher runs the acquisition stage. *websearch.Client implements it.
type Searcher interface {
	BatchSearch(ctx context.Context, queries []string, perQuery int, w io.Writer) (websearch.BatchOutput, error)
}

// Analyzer runs the summarization stage. *analysis.Pipeline implements it.
type Analyzer interface {
	Analyze(ctx context.Context, results []types.SearchResult, prompt string, w io.Writer) analysis.Result
}

// Recorder appends validation outcomes to the quality history.
// *history.Store implements it. A nil Recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, vr *types.ValidationReport, processingTime float64, searchCount int, cost, dataQuality float64) (int64, error)
}

// Engine owns one analysis session.
type Engine struct {
	searcher  Searcher
	analyzer  Analyzer
	assembler *report.Assembler
	validator *validate.Validator
	recorder  Recorder

	session     *types.Session
	sessionPath string
	out         io.Writer

	// Progress, when set, receives each pipeline milestone instead of the
	// output writer. Per-stage detail keeps flowing to the writer either way.
	Progress func(message string, percent int)

	now func() time.Time
}

// New builds an Engine around a fresh session. recorder may be nil.
func New(searcher Searcher, analyzer Analyzer, recorder Recorder, sessionPath string, out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		searcher:    searcher,
		analyzer:    analyzer,
		assembler:   report.NewAssembler(nil),
		validator:   validate.New(),
		recorder:    recorder,
		session:     newSession(),
		sessionPath: sessionPath,
		out:         out,
		now:         time.Now,
	}
}

// Resume is New with an existing session loaded from sessionPath. A missing
// file starts a fresh session at the same path.
func Resume(searcher Searcher, analyzer Analyzer, recorder Recorder, sessionPath string, out io.Writer) (*Engine, error) {
	e := New(searcher, analyzer, recorder, sessionPath, out)
	session, err := LoadSession(sessionPath)
	if err != nil {
		return nil, err
	}
	if session != nil {
		e.session = session
	}
	return e, nil
}

// Session returns the current session state.
func (e *Engine) Session() *types.Session {
	return e.session
}

// Analyze runs the full pipeline for one topic and appends the result to the
// session. Stage failures never escape: they produce an error-shaped report
// instead. The only error returned is a session persistence failure.
func (e *Engine) Analyze(ctx context.Context, topic string, maxResults int) (*types.Report, error) {
	start := e.now()
	reportID := len(e.session.Reports) + 1

	e.step(10, "generating queries")
	qs := queries.Generate(topic)
	fmt.Fprintf(e.out, "       %d queries\n", len(qs))

	e.step(30, "searching")
	batch, err := e.searcher.BatchSearch(ctx, qs, maxResults, e.out)
	if err != nil {
		return e.finish(ctx, e.errorReport(topic, reportID, fmt.Sprintf("search stage failed: %v", err)), start)
	}

	e.step(40, fmt.Sprintf("analyzing %d results", batch.TotalItems()))
	ar := e.analyzer.Analyze(ctx, batch.Results, topic, e.out)
	e.step(70, fmt.Sprintf("analysis done (cost $%.4f)", ar.TotalCost))

	e.step(80, fmt.Sprintf("assembling report %d", reportID))
	r := e.assembler.Assemble(topic, batch.Results, ar, reportID)

	return e.finish(ctx, r, start)
}

// finish validates, records, appends, and persists a report. It is shared by
// the success and error paths so every report lands in the session.
func (e *Engine) finish(ctx context.Context, r *types.Report, start time.Time) (*types.Report, error) {
	r.ProcessingTime = e.now().Sub(start).Seconds()

	vr := e.safeValidate(r)
	r.ValidationReport = &vr

	if e.recorder != nil {
		if _, err := e.recorder.Record(ctx, &vr, r.ProcessingTime, r.SearchCount, r.Cost, r.DataQuality); err != nil {
			// History is observability, not pipeline state. Log and move on.
			fmt.Fprintf(e.out, "       warning: history record failed: %v\n", err)
		}
	}

	e.session.Reports = append(e.session.Reports, *r)
	e.session.TotalCost += r.Cost
	e.session.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	if e.sessionPath != "" {
		if err := SaveSession(e.sessionPath, e.session); err != nil {
			return r, fmt.Errorf("saving session: %w", err)
		}
	}

	e.step(100, fmt.Sprintf("report %d complete (quality score %.2f)", r.ReportID, vr.OverallScore))
	return r, nil
}

// step reports a milestone through the Progress callback when one is set,
// and through the output writer otherwise.
func (e *Engine) step(percent int, message string) {
	if e.Progress != nil {
		e.Progress(message, percent)
		return
	}
	fmt.Fprintf(e.out, "[%3d%%] %s\n", percent, message)
}

// safeValidate shields the pipeline from a panicking validator.
func (e *Engine) safeValidate(r *types.Report) (vr types.ValidationReport) {
	defer func() {
		if p := recover(); p != nil {
			vr = validate.DefaultReport(fmt.Sprintf("validator panic: %v", p))
		}
	}()
	return e.validator.Validate(r)
}

// errorReport builds the report-shaped failure payload: every field present
// and typed, no nulls, error flag set.
func (e *Engine) errorReport(topic string, reportID int, message string) *types.Report {
	return &types.Report{
		ReportID:        reportID,
		Timestamp:       e.now().UTC().Format(time.RFC3339),
		UserPrompt:      topic,
		SearchCount:     0,
		AnalysisSummary: "Analysis could not be completed: " + message,
		KeyInsights:     []string{},
		Categories:      map[string]string{},
		RelatedTopics:   []string{},
		DataQuality:     0,
		Cost:            0,
		Detail: &types.ReportDetail{
			SearchResults:  []types.SearchResult{},
			BatchSummaries: []string{},
		},
		Error:        true,
		ErrorMessage: message,
	}
}
