// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ReportDetail carries the raw material a report was built from: the search
// results that fed the analysis and the per-batch summaries.
type ReportDetail struct {
	SearchResults  []SearchResult `json:"search_results" yaml:"search_results"`
	BatchSummaries []string       `json:"batch_summaries" yaml:"batch_summaries"`
}

// Report is the central persisted entity, created once per analysis run and
// appended to the session. A report is never mutated after creation except to
// attach the validation report.
type Report struct {
	// ReportID is monotonic within one session, starting at 1.
	ReportID int `json:"report_id" yaml:"report_id"`

	// Timestamp is the creation time in RFC 3339 format.
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// UserPrompt is the original topic prompt.
	UserPrompt string `json:"user_prompt" yaml:"user_prompt"`

	// SearchCount is the number of search results analyzed. Must equal
	// len(Detail.SearchResults); the validator flags any divergence.
	SearchCount int `json:"search_count" yaml:"search_count"`

	// AnalysisSummary is the integrated analysis text.
	AnalysisSummary string `json:"analysis_summary" yaml:"analysis_summary"`

	// KeyInsights holds up to 7 extracted insight lines.
	KeyInsights []string `json:"key_insights" yaml:"key_insights"`

	// Categories maps a category name (technology, market, applications,
	// challenges) to the text accumulated under it.
	Categories map[string]string `json:"categories" yaml:"categories"`

	// RelatedTopics holds up to 5 follow-up topic lines.
	RelatedTopics []string `json:"related_topics" yaml:"related_topics"`

	// DataQuality is a volume-based heuristic in [0,1]. Advisory only.
	DataQuality float64 `json:"data_quality" yaml:"data_quality"`

	// Cost is the accumulated completion cost for this run, in USD.
	Cost float64 `json:"cost" yaml:"cost"`

	// ProcessingTime is the wall-clock duration of the run, in seconds.
	ProcessingTime float64 `json:"processing_time" yaml:"processing_time"`

	// Detail embeds the raw search results and batch summaries.
	Detail *ReportDetail `json:"detail" yaml:"detail"`

	// ValidationReport is attached after validation. It is the only field
	// written after creation.
	ValidationReport *ValidationReport `json:"validation_report,omitempty" yaml:"validation_report,omitempty"`

	// EmptyDataReport marks the degraded variant produced when acquisition
	// returned zero results.
	EmptyDataReport bool `json:"empty_data_report,omitempty" yaml:"empty_data_report,omitempty"`

	// Error marks a report-shaped error payload produced when a pipeline
	// stage failed unrecoverably. ErrorMessage carries the cause.
	Error        bool   `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}
