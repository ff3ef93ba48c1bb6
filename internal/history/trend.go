// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// Trend analyzes score movement over the last days. Fewer than two snapshots
// in the window yields the insufficient_data direction with zeroed figures.
func (s *Store) Trend(ctx context.Context, days int) (*types.TrendAnalysis, error) {
	if days <= 0 {
		days = 7
	}
	snapshots, err := s.window(ctx, days)
	if err != nil {
		return nil, err
	}

	ta := &types.TrendAnalysis{
		Trend:         types.TrendInsufficientData,
		SnapshotCount: len(snapshots),
		IssueDeltas:   map[types.Severity]float64{},
	}
	if len(snapshots) < 2 {
		ta.Recommendations = []string{
			fmt.Sprintf("only %d snapshots in the last %d days; record more runs before trusting trend direction", len(snapshots), days),
		}
		return ta, nil
	}

	scores := make([]float64, len(snapshots))
	for i, snap := range snapshots {
		scores[i] = snap.OverallScore
	}
	ta.MeanScore = mean(scores)
	ta.ScoreChange = scores[len(scores)-1] - scores[0]
	ta.Volatility = stddev(scores, ta.MeanScore)

	switch {
	case ta.Volatility > s.cfg.VolatilityThreshold:
		ta.Trend = types.TrendVolatile
	case ta.ScoreChange > s.cfg.ChangeThreshold:
		ta.Trend = types.TrendImproving
	case ta.ScoreChange < -s.cfg.ChangeThreshold:
		ta.Trend = types.TrendDeclining
	default:
		ta.Trend = types.TrendStable
	}

	ta.IssueDeltas = issueDeltas(snapshots)
	ta.Recommendations = trendRecommendations(ta)
	return ta, nil
}

// issueDeltas compares per-severity issue volume between the first and second
// halves of the window, normalized by the window-wide average so a delta of
// 1.0 means "doubled relative to typical volume".
func issueDeltas(snapshots []types.QualitySnapshot) map[types.Severity]float64 {
	counts := func(snap types.QualitySnapshot, sev types.Severity) float64 {
		switch sev {
		case types.SeverityCritical:
			return float64(snap.CriticalIssues)
		case types.SeverityError:
			return float64(snap.ErrorIssues)
		case types.SeverityWarning:
			return float64(snap.WarningIssues)
		default:
			return float64(snap.InfoIssues)
		}
	}

	mid := len(snapshots) / 2
	deltas := make(map[types.Severity]float64, len(types.Severities))
	for _, sev := range types.Severities {
		var first, second, total float64
		for i, snap := range snapshots {
			n := counts(snap, sev)
			total += n
			if i < mid {
				first += n
			} else {
				second += n
			}
		}
		if total == 0 {
			deltas[sev] = 0
			continue
		}
		avg := total / float64(len(snapshots))
		firstMean := first / float64(mid)
		secondMean := second / float64(len(snapshots)-mid)
		deltas[sev] = (secondMean - firstMean) / avg
	}
	return deltas
}

func trendRecommendations(ta *types.TrendAnalysis) []string {
	var recs []string
	switch ta.Trend {
	case types.TrendDeclining:
		recs = append(recs, fmt.Sprintf("quality declined %.2f over the window; review recent validation issues", -ta.ScoreChange))
	case types.TrendVolatile:
		recs = append(recs, fmt.Sprintf("score volatility %.2f exceeds the stability threshold; results are inconsistent run to run", ta.Volatility))
	case types.TrendImproving:
		recs = append(recs, "quality is improving; current configuration is working")
	case types.TrendStable:
		recs = append(recs, "quality is stable over the window")
	}
	for _, sev := range []types.Severity{types.SeverityCritical, types.SeverityError} {
		if ta.IssueDeltas[sev] > 0.5 {
			recs = append(recs, fmt.Sprintf("%s issue volume is rising across the window", sev))
		}
	}
	if ta.MeanScore < 0.6 {
		recs = append(recs, fmt.Sprintf("mean score %.2f is low in absolute terms regardless of trend", ta.MeanScore))
	}
	return recs
}

// Statistics aggregates the window into summary figures for the CLI.
func (s *Store) Statistics(ctx context.Context, days int) (*types.Statistics, error) {
	if days <= 0 {
		days = 30
	}
	snapshots, err := s.window(ctx, days)
	if err != nil {
		return nil, err
	}

	stats := &types.Statistics{
		Days:             days,
		SnapshotCount:    len(snapshots),
		IssuesBySeverity: map[types.Severity]int{},
		AlertsByLevel:    map[types.AlertLevel]int{},
	}
	if len(snapshots) > 0 {
		stats.MinScore = math.Inf(1)
		stats.MaxScore = math.Inf(-1)
		var scoreSum, procSum, searchSum, qualitySum float64
		for _, snap := range snapshots {
			scoreSum += snap.OverallScore
			stats.MinScore = math.Min(stats.MinScore, snap.OverallScore)
			stats.MaxScore = math.Max(stats.MaxScore, snap.OverallScore)
			stats.IssuesBySeverity[types.SeverityCritical] += snap.CriticalIssues
			stats.IssuesBySeverity[types.SeverityError] += snap.ErrorIssues
			stats.IssuesBySeverity[types.SeverityWarning] += snap.WarningIssues
			stats.IssuesBySeverity[types.SeverityInfo] += snap.InfoIssues
			stats.TotalCost += snap.Cost
			procSum += snap.ProcessingTime
			searchSum += float64(snap.SearchCount)
			qualitySum += snap.DataQuality
		}
		n := float64(len(snapshots))
		stats.MeanScore = scoreSum / n
		stats.MeanProcessing = procSum / n
		stats.MeanSearchCount = searchSum / n
		stats.MeanDataQuality = qualitySum / n
	}

	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeFormat)
	rows, err := s.db.QueryContext(ctx,
		`SELECT level, COUNT(*) FROM quality_alerts WHERE timestamp >= ? GROUP BY level`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying alert counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			level string
			count int
		)
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("scanning alert count: %w", err)
		}
		stats.AlertsByLevel[types.AlertLevel(level)] = count
		stats.AlertCount += count
	}
	return stats, rows.Err()
}

// window loads snapshots within the last days, oldest first.
func (s *Store) window(ctx context.Context, days int) ([]types.QualitySnapshot, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days).Format(timeFormat)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, overall_score, total_issues, critical_issues,
			error_issues, warning_issues, info_issues, summary,
			processing_time, search_count, cost, data_quality
		FROM quality_history WHERE timestamp >= ? ORDER BY timestamp ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying history window: %w", err)
	}
	defer rows.Close()

	var snapshots []types.QualitySnapshot
	for rows.Next() {
		var (
			snap    types.QualitySnapshot
			summary sql.NullString
		)
		if err := rows.Scan(&snap.ID, &snap.Timestamp, &snap.OverallScore,
			&snap.TotalIssues, &snap.CriticalIssues, &snap.ErrorIssues,
			&snap.WarningIssues, &snap.InfoIssues, &summary,
			&snap.ProcessingTime, &snap.SearchCount, &snap.Cost, &snap.DataQuality); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snap.Summary = summary.String
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
