// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate runs a fixed battery of structural, type, range, content,
// and cross-field consistency rules against a report and produces a
// severity-classified issue list with a 0-1 quality score.
//
// The report is projected to a generic JSON map before rule evaluation so
// structure and type rules are genuine checks: reports reloaded from session
// files or produced by degraded pipeline paths can be shape-damaged in ways
// a typed struct hides.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// severityPenalty is the score deduction per issue.
var severityPenalty = map[types.Severity]float64{
	types.SeverityCritical: 0.30,
	types.SeverityError:    0.10,
	types.SeverityWarning:  0.05,
	types.SeverityInfo:     0.01,
}

// kind names an expected JSON value kind for the type rules.
type kind string

const (
	kindNumber kind = "number"
	kindString kind = "string"
	kindArray  kind = "array"
	kindObject kind = "object"
)

// requiredFields lists every required report field with its expected kind.
// Order fixes the order of emitted issues.
var requiredFields = []struct {
	name string
	kind kind
}{
	{"report_id", kindNumber},
	{"timestamp", kindString},
	{"user_prompt", kindString},
	{"search_count", kindNumber},
	{"analysis_summary", kindString},
	{"key_insights", kindArray},
	{"categories", kindObject},
	{"related_topics", kindArray},
	{"data_quality", kindNumber},
	{"cost", kindNumber},
	{"detail", kindObject},
}

// criticalTypeFields escalate a type mismatch from error to critical.
var criticalTypeFields = map[string]bool{
	"report_id":    true,
	"timestamp":    true,
	"data_quality": true,
}

// rangeRule bounds one numeric field.
type rangeRule struct {
	field    string
	min, max float64
}

var rangeRules = []rangeRule{
	{"data_quality", 0, 1},
	{"cost", 0, 100},
	{"search_count", 0, 1000},
}

// Validator runs the rule battery. The zero value is not usable; use New.
type Validator struct {
	now func() time.Time
}

// New returns a Validator.
func New() *Validator {
	return &Validator{now: time.Now}
}

// Validate runs all five rule groups unconditionally and concatenates their
// issues. The overall score starts at 1.0 and is reduced per issue by
// severity, clamped to [0,1].
func (v *Validator) Validate(report *types.Report) types.ValidationReport {
	fields := toMap(report)

	var issues []types.ValidationIssue
	issues = append(issues, checkStructure(fields)...)
	issues = append(issues, checkTypes(fields)...)
	issues = append(issues, checkRanges(fields)...)
	issues = append(issues, checkContent(fields)...)
	issues = append(issues, checkConsistency(fields)...)

	bySeverity := make(map[types.Severity]int, len(types.Severities))
	for _, sev := range types.Severities {
		bySeverity[sev] = 0
	}
	score := 1.0
	for _, issue := range issues {
		bySeverity[issue.Severity]++
		score -= severityPenalty[issue.Severity]
	}
	score = clamp(score, 0, 1)

	metrics := qualityMetrics(fields, issues)

	return types.ValidationReport{
		Timestamp:        v.now().UTC().Format(time.RFC3339),
		OverallScore:     score,
		TotalIssues:      len(issues),
		IssuesBySeverity: bySeverity,
		Issues:           issues,
		QualityMetrics:   metrics,
		Summary:          summaryText(score, bySeverity),
		Recommendations:  recommendations(metrics, issues),
	}
}

// DefaultReport is the best-effort fallback attached when validation itself
// fails: a neutral score with an explanatory summary.
func DefaultReport(cause string) types.ValidationReport {
	return types.ValidationReport{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		OverallScore:     0.5,
		IssuesBySeverity: map[types.Severity]int{},
		QualityMetrics:   map[string]float64{},
		Summary:          fmt.Sprintf("validation could not be completed: %s", cause),
		Recommendations:  []string{"re-run validation once the validator failure is resolved"},
	}
}

// toMap projects the report onto a generic JSON map.
func toMap(report *types.Report) map[string]any {
	if report == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(report)
	if err != nil {
		return map[string]any{}
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return map[string]any{}
	}
	return fields
}

// checkStructure flags absent required fields as critical and explicit nulls
// as errors.
func checkStructure(fields map[string]any) []types.ValidationIssue {
	var issues []types.ValidationIssue
	for _, rf := range requiredFields {
		value, present := fields[rf.name]
		if !present {
			issues = append(issues, types.ValidationIssue{
				Severity:   types.SeverityCritical,
				Category:   "structure",
				Field:      rf.name,
				Message:    fmt.Sprintf("required field %q is missing", rf.name),
				Expected:   string(rf.kind),
				Suggestion: "regenerate the report; a pipeline stage dropped this field",
			})
			continue
		}
		if value == nil {
			issues = append(issues, types.ValidationIssue{
				Severity:   types.SeverityError,
				Category:   "structure",
				Field:      rf.name,
				Message:    fmt.Sprintf("required field %q is null", rf.name),
				Actual:     "null",
				Expected:   string(rf.kind),
				Suggestion: "populate the field with an empty value of the expected type instead of null",
			})
		}
	}
	return issues
}

// checkTypes verifies each present, non-null field has its expected kind.
// Mismatches on report_id, timestamp, and data_quality are critical.
func checkTypes(fields map[string]any) []types.ValidationIssue {
	var issues []types.ValidationIssue
	for _, rf := range requiredFields {
		value, present := fields[rf.name]
		if !present || value == nil {
			continue
		}
		actual := kindOf(value)
		if actual == rf.kind {
			continue
		}
		sev := types.SeverityError
		if criticalTypeFields[rf.name] {
			sev = types.SeverityCritical
		}
		issues = append(issues, types.ValidationIssue{
			Severity: sev,
			Category: "type",
			Field:    rf.name,
			Message:  fmt.Sprintf("field %q has type %s, expected %s", rf.name, actual, rf.kind),
			Actual:   string(actual),
			Expected: string(rf.kind),
		})
	}
	return issues
}

func kindOf(value any) kind {
	switch value.(type) {
	case float64, json.Number:
		return kindNumber
	case string:
		return kindString
	case []any:
		return kindArray
	case map[string]any:
		return kindObject
	case bool:
		return kind("boolean")
	default:
		return kind(fmt.Sprintf("%T", value))
	}
}

// checkRanges bounds the numeric fields. Below-minimum escalates to critical
// for data_quality or any negative value; above-maximum escalates to
// critical past 10x the bound.
func checkRanges(fields map[string]any) []types.ValidationIssue {
	var issues []types.ValidationIssue
	for _, rule := range rangeRules {
		value, ok := numberField(fields, rule.field)
		if !ok {
			continue
		}
		if value < rule.min {
			sev := types.SeverityWarning
			if rule.field == "data_quality" || value < 0 {
				sev = types.SeverityCritical
			}
			issues = append(issues, types.ValidationIssue{
				Severity: sev,
				Category: "range",
				Field:    rule.field,
				Message:  fmt.Sprintf("field %q below minimum", rule.field),
				Actual:   formatNumber(value),
				Expected: fmt.Sprintf(">= %s", formatNumber(rule.min)),
			})
			continue
		}
		if value > rule.max {
			sev := types.SeverityWarning
			if value > rule.max*10 {
				sev = types.SeverityCritical
			}
			issues = append(issues, types.ValidationIssue{
				Severity: sev,
				Category: "range",
				Field:    rule.field,
				Message:  fmt.Sprintf("field %q above maximum", rule.field),
				Actual:   formatNumber(value),
				Expected: fmt.Sprintf("<= %s", formatNumber(rule.max)),
			})
		}
	}
	return issues
}

const (
	minSummaryLen = 50
	maxSummaryLen = 10000
	minInsights   = 1
	maxInsights   = 10
	maxTopics     = 8
)

// checkContent applies the content-quality rules to the analysis summary,
// key insights, and related topics.
func checkContent(fields map[string]any) []types.ValidationIssue {
	var issues []types.ValidationIssue

	if summary, ok := fields["analysis_summary"].(string); ok {
		switch n := len(summary); {
		case n == 0:
			issues = append(issues, types.ValidationIssue{
				Severity:   types.SeverityError,
				Category:   "content",
				Field:      "analysis_summary",
				Message:    "analysis summary is blank",
				Suggestion: "check whether the integration pass produced any text",
			})
		case n < minSummaryLen:
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Category: "content",
				Field:    "analysis_summary",
				Message:  fmt.Sprintf("analysis summary is short (%d chars)", n),
				Actual:   fmt.Sprintf("%d", n),
				Expected: fmt.Sprintf(">= %d chars", minSummaryLen),
			})
		case n > maxSummaryLen:
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityInfo,
				Category: "content",
				Field:    "analysis_summary",
				Message:  fmt.Sprintf("analysis summary is long (%d chars)", n),
				Actual:   fmt.Sprintf("%d", n),
				Expected: fmt.Sprintf("<= %d chars", maxSummaryLen),
			})
		}
	}

	if insights, ok := fields["key_insights"].([]any); ok {
		if len(insights) < minInsights || len(insights) > maxInsights {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Category: "content",
				Field:    "key_insights",
				Message:  fmt.Sprintf("key insight count %d outside [%d,%d]", len(insights), minInsights, maxInsights),
				Actual:   fmt.Sprintf("%d", len(insights)),
				Expected: fmt.Sprintf("[%d,%d]", minInsights, maxInsights),
			})
		}
		seen := make(map[string]bool, len(insights))
		for i, raw := range insights {
			text, _ := raw.(string)
			if text == "" {
				issues = append(issues, types.ValidationIssue{
					Severity: types.SeverityWarning,
					Category: "content",
					Field:    "key_insights",
					Message:  fmt.Sprintf("key insight %d is empty", i),
				})
				continue
			}
			if seen[text] {
				issues = append(issues, types.ValidationIssue{
					Severity: types.SeverityWarning,
					Category: "content",
					Field:    "key_insights",
					Message:  fmt.Sprintf("key insight %d duplicates an earlier insight", i),
					Actual:   text,
				})
			}
			seen[text] = true
		}
	}

	if topics, ok := fields["related_topics"].([]any); ok && len(topics) > maxTopics {
		issues = append(issues, types.ValidationIssue{
			Severity: types.SeverityInfo,
			Category: "content",
			Field:    "related_topics",
			Message:  fmt.Sprintf("related topic count %d exceeds %d", len(topics), maxTopics),
			Actual:   fmt.Sprintf("%d", len(topics)),
			Expected: fmt.Sprintf("<= %d", maxTopics),
		})
	}

	return issues
}

// checkConsistency verifies cross-field invariants: search_count against the
// detail payload, data_quality against search volume, and timestamp parse.
func checkConsistency(fields map[string]any) []types.ValidationIssue {
	var issues []types.ValidationIssue

	searchCount, haveCount := numberField(fields, "search_count")

	if detail, ok := fields["detail"].(map[string]any); ok && haveCount {
		resultCount := -1.0
		switch results := detail["search_results"].(type) {
		case []any:
			resultCount = float64(len(results))
		case nil:
			resultCount = 0
		}
		if resultCount >= 0 && searchCount != resultCount {
			issues = append(issues, types.ValidationIssue{
				Severity:   types.SeverityError,
				Category:   "consistency",
				Field:      "search_count",
				Message:    "search_count does not match the number of detail search results",
				Actual:     formatNumber(searchCount),
				Expected:   formatNumber(resultCount),
				Suggestion: "search_count must be derived from detail.search_results",
			})
		}
	}

	if quality, ok := numberField(fields, "data_quality"); ok && haveCount {
		if searchCount == 0 && quality > 0.1 {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Category: "consistency",
				Field:    "data_quality",
				Message:  "data_quality above 0.1 with zero search results",
				Actual:   formatNumber(quality),
				Expected: "<= 0.1 when search_count is 0",
			})
		}
		if searchCount > 50 && quality < 0.3 {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityInfo,
				Category: "consistency",
				Field:    "data_quality",
				Message:  "data_quality below 0.3 despite ample search results",
				Actual:   formatNumber(quality),
				Expected: ">= 0.3 when search_count > 50",
			})
		}
	}

	if ts, ok := fields["timestamp"].(string); ok {
		if !parsesAsTime(ts) {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Category: "consistency",
				Field:    "timestamp",
				Message:  "timestamp does not parse as a date-time",
				Actual:   ts,
				Expected: "RFC 3339",
			})
		}
	}

	return issues
}

func parsesAsTime(value string) bool {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func numberField(fields map[string]any, name string) (float64, bool) {
	value, ok := fields[name].(float64)
	return value, ok
}

func formatNumber(value float64) string {
	if value == math.Trunc(value) {
		return fmt.Sprintf("%d", int64(value))
	}
	return fmt.Sprintf("%g", value)
}

func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
