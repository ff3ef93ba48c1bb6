// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Severity classifies a validation issue: info < warning < error < critical.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Severities lists all severities in ascending order.
var Severities = []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical}

// ValidationIssue is one rule violation found in a report.
type ValidationIssue struct {
	Severity Severity `json:"severity" yaml:"severity"`

	// Category names the rule group: structure, type, range, content, consistency.
	Category string `json:"category" yaml:"category"`

	// Field is the report field the issue concerns.
	Field string `json:"field" yaml:"field"`

	Message string `json:"message" yaml:"message"`

	// Actual and Expected describe the observed and required values.
	Actual   string `json:"actual,omitempty" yaml:"actual,omitempty"`
	Expected string `json:"expected,omitempty" yaml:"expected,omitempty"`

	// Suggestion is a short remediation hint.
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// ValidationReport is the immutable outcome of validating one report.
// The overall score starts at 1.0 and is reduced by per-issue severity
// penalties (critical 0.30, error 0.10, warning 0.05, info 0.01), floored at 0.
type ValidationReport struct {
	Timestamp        string             `json:"timestamp" yaml:"timestamp"`
	OverallScore     float64            `json:"overall_score" yaml:"overall_score"`
	TotalIssues      int                `json:"total_issues" yaml:"total_issues"`
	IssuesBySeverity map[Severity]int   `json:"issues_by_severity" yaml:"issues_by_severity"`
	Issues           []ValidationIssue  `json:"issues" yaml:"issues"`
	QualityMetrics   map[string]float64 `json:"quality_metrics" yaml:"quality_metrics"`
	Summary          string             `json:"summary" yaml:"summary"`
	Recommendations  []string           `json:"recommendations" yaml:"recommendations"`
}

// QualitySnapshot is one durable quality-measurement row in the history
// store: append-only, one row per validated report.
type QualitySnapshot struct {
	ID             int64   `json:"id" yaml:"id"`
	Timestamp      string  `json:"timestamp" yaml:"timestamp"`
	OverallScore   float64 `json:"overall_score" yaml:"overall_score"`
	TotalIssues    int     `json:"total_issues" yaml:"total_issues"`
	CriticalIssues int     `json:"critical_issues" yaml:"critical_issues"`
	ErrorIssues    int     `json:"error_issues" yaml:"error_issues"`
	WarningIssues  int     `json:"warning_issues" yaml:"warning_issues"`
	InfoIssues     int     `json:"info_issues" yaml:"info_issues"`
	Summary        string  `json:"summary" yaml:"summary"`
	ProcessingTime float64 `json:"processing_time" yaml:"processing_time"`
	SearchCount    int     `json:"search_count" yaml:"search_count"`
	Cost           float64 `json:"cost" yaml:"cost"`
	DataQuality    float64 `json:"data_quality" yaml:"data_quality"`
}

// AlertLevel classifies a quality alert.
type AlertLevel string

const (
	AlertInfo      AlertLevel = "info"
	AlertWarning   AlertLevel = "warning"
	AlertCritical  AlertLevel = "critical"
	AlertEmergency AlertLevel = "emergency"
)

// QualityAlert is raised by the history store when a snapshot crosses a
// configured threshold. Alerts are persisted independently of snapshots and
// are mutable only via the Resolved flag.
type QualityAlert struct {
	AlertID           string             `json:"alert_id" yaml:"alert_id"`
	Timestamp         string             `json:"timestamp" yaml:"timestamp"`
	Level             AlertLevel         `json:"level" yaml:"level"`
	Message           string             `json:"message" yaml:"message"`
	Metrics           map[string]float64 `json:"metrics" yaml:"metrics"`
	ThresholdViolated string             `json:"threshold_violated" yaml:"threshold_violated"`
	SuggestedAction   string             `json:"suggested_action" yaml:"suggested_action"`
	Resolved          bool               `json:"resolved" yaml:"resolved"`
}

// TrendDirection classifies score movement over an evaluation window.
type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendDeclining        TrendDirection = "declining"
	TrendStable           TrendDirection = "stable"
	TrendVolatile         TrendDirection = "volatile"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// TrendAnalysis summarizes score movement over a rolling window of snapshots.
type TrendAnalysis struct {
	Trend TrendDirection `json:"trend" yaml:"trend"`

	// MeanScore is the average overall score in the window.
	MeanScore float64 `json:"mean_score" yaml:"mean_score"`

	// ScoreChange is the delta between the window start and end.
	ScoreChange float64 `json:"score_change" yaml:"score_change"`

	// Volatility is the standard deviation of scores in the window.
	Volatility float64 `json:"volatility" yaml:"volatility"`

	SnapshotCount int `json:"snapshot_count" yaml:"snapshot_count"`

	// IssueDeltas reports per-severity issue-count deltas between the two
	// window halves, normalized by the window average.
	IssueDeltas map[Severity]float64 `json:"issue_deltas" yaml:"issue_deltas"`

	Recommendations []string `json:"recommendations" yaml:"recommendations"`
}

// Statistics aggregates snapshots over a window of days.
type Statistics struct {
	Days              int                `json:"days" yaml:"days"`
	SnapshotCount     int                `json:"snapshot_count" yaml:"snapshot_count"`
	MeanScore         float64            `json:"mean_score" yaml:"mean_score"`
	MinScore          float64            `json:"min_score" yaml:"min_score"`
	MaxScore          float64            `json:"max_score" yaml:"max_score"`
	IssuesBySeverity  map[Severity]int   `json:"issues_by_severity" yaml:"issues_by_severity"`
	TotalCost         float64            `json:"total_cost" yaml:"total_cost"`
	MeanProcessing    float64            `json:"mean_processing_time" yaml:"mean_processing_time"`
	MeanSearchCount   float64            `json:"mean_search_count" yaml:"mean_search_count"`
	MeanDataQuality   float64            `json:"mean_data_quality" yaml:"mean_data_quality"`
	AlertCount        int                `json:"alert_count" yaml:"alert_count"`
	AlertsByLevel     map[AlertLevel]int `json:"alerts_by_level" yaml:"alerts_by_level"`
}
