// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"fmt"
	"math"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// qualityMetrics derives the four aggregate metrics reported alongside the
// issue list.
func qualityMetrics(fields map[string]any, issues []types.ValidationIssue) map[string]float64 {
	present := 0
	for _, rf := range requiredFields {
		if value, ok := fields[rf.name]; ok && value != nil {
			present++
		}
	}
	completeness := float64(present) / float64(len(requiredFields))

	// Content richness: normalized summary length plus insight count.
	richness := 0.0
	if summary, ok := fields["analysis_summary"].(string); ok {
		richness += 0.5 * math.Min(1, float64(len(summary))/1000)
	}
	if insights, ok := fields["key_insights"].([]any); ok {
		richness += 0.5 * math.Min(1, float64(len(insights))/7)
	}

	// Quality reliability: deviation between the reported data_quality and
	// the expected value for the observed search volume. The expected curve
	// here is deliberately not the assembler's own formula; the reported
	// value is advisory and this metric measures drift, not correctness.
	reliability := 1.0
	if quality, ok := numberField(fields, "data_quality"); ok {
		if count, ok := numberField(fields, "search_count"); ok {
			expected := math.Min(1, 0.3+count/100)
			if count == 0 {
				expected = 0
			}
			reliability = clamp(1-math.Abs(quality-expected), 0, 1)
		}
	}

	density := clamp(1-float64(len(issues))/float64(len(requiredFields)), 0, 1)

	return map[string]float64{
		"structural_completeness": completeness,
		"content_richness":        richness,
		"quality_reliability":     reliability,
		"error_density":           density,
	}
}

// summaryText renders the one-line validation summary.
func summaryText(score float64, bySeverity map[types.Severity]int) string {
	total := 0
	for _, n := range bySeverity {
		total += n
	}
	if total == 0 {
		return fmt.Sprintf("validation passed with score %.2f: no issues", score)
	}
	return fmt.Sprintf("validation score %.2f: %d issues (%d critical, %d error, %d warning, %d info)",
		score, total,
		bySeverity[types.SeverityCritical], bySeverity[types.SeverityError],
		bySeverity[types.SeverityWarning], bySeverity[types.SeverityInfo])
}

// recommendations generates remediation hints from metric thresholds plus up
// to 3 critical issues verbatim.
func recommendations(metrics map[string]float64, issues []types.ValidationIssue) []string {
	var recs []string

	if metrics["structural_completeness"] < 1 {
		recs = append(recs, "restore the missing or null report fields before publishing")
	}
	if metrics["content_richness"] < 0.3 {
		recs = append(recs, "analysis content is thin: increase search volume or batch size")
	}
	if metrics["quality_reliability"] < 0.7 {
		recs = append(recs, "reported data_quality deviates from the expected curve; treat it as advisory")
	}
	if metrics["error_density"] < 0.7 {
		recs = append(recs, "issue density is high relative to field count; review the pipeline configuration")
	}

	criticals := 0
	for _, issue := range issues {
		if issue.Severity != types.SeverityCritical {
			continue
		}
		recs = append(recs, "critical: "+issue.Message)
		criticals++
		if criticals >= 3 {
			break
		}
	}

	return recs
}
