// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history durably appends quality validation outcomes to an embedded
// SQLite store, computes rolling statistics and trend direction, and raises
// threshold-based alerts. It is the one component designed for safe
// concurrent access: a single mutex guards the connection and every
// statement is parameterized.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/insight-engine/pkg/types"
)

const defaultDBPath = "history/quality.db"

// timeFormat is fixed-width so TEXT timestamps order lexicographically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// trackedMetrics are written to the per-metric time series on every record.
var trackedMetrics = []string{
	"overall_score", "total_issues", "critical_issues",
	"processing_time", "search_count", "cost", "data_quality",
}

// Store manages the quality history SQLite database.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	cfg types.HistoryConfig

	now func() time.Time
}

// NewStore opens or creates the history database and its schema. Zero
// threshold values fall back to defaults.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.ScoreWarning <= 0 {
		cfg.ScoreWarning = 0.6
	}
	if cfg.ScoreCritical <= 0 {
		cfg.ScoreCritical = 0.4
	}
	if cfg.CriticalIssuesEmergency <= 0 {
		cfg.CriticalIssuesEmergency = 3
	}
	if cfg.CostWarning <= 0 {
		cfg.CostWarning = 1.0
	}
	if cfg.ProcessingTimeWarning <= 0 {
		cfg.ProcessingTimeWarning = 60
	}
	if cfg.VolatilityThreshold <= 0 {
		cfg.VolatilityThreshold = 0.3
	}
	if cfg.ChangeThreshold <= 0 {
		cfg.ChangeThreshold = 0.1
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, cfg: cfg, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quality_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			overall_score REAL NOT NULL,
			total_issues INTEGER NOT NULL,
			critical_issues INTEGER NOT NULL,
			error_issues INTEGER NOT NULL,
			warning_issues INTEGER NOT NULL,
			info_issues INTEGER NOT NULL,
			summary TEXT,
			processing_time REAL,
			search_count INTEGER,
			cost REAL,
			data_quality REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_timestamp ON quality_history(timestamp)`,
		`CREATE TABLE IF NOT EXISTS quality_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_metric ON quality_metrics(metric, timestamp)`,
		`CREATE TABLE IF NOT EXISTS quality_alerts (
			alert_id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			metrics TEXT,
			threshold_violated TEXT,
			suggested_action TEXT,
			resolved INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON quality_alerts(timestamp)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one snapshot row plus one row per tracked metric, then
// evaluates the alert rules against the new snapshot. It returns the
// snapshot row ID.
func (s *Store) Record(ctx context.Context, vr *types.ValidationReport, processingTime float64, searchCount int, cost, dataQuality float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := types.QualitySnapshot{
		Timestamp:      s.now().UTC().Format(timeFormat),
		OverallScore:   vr.OverallScore,
		TotalIssues:    vr.TotalIssues,
		CriticalIssues: vr.IssuesBySeverity[types.SeverityCritical],
		ErrorIssues:    vr.IssuesBySeverity[types.SeverityError],
		WarningIssues:  vr.IssuesBySeverity[types.SeverityWarning],
		InfoIssues:     vr.IssuesBySeverity[types.SeverityInfo],
		Summary:        vr.Summary,
		ProcessingTime: processingTime,
		SearchCount:    searchCount,
		Cost:           cost,
		DataQuality:    dataQuality,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO quality_history (
			timestamp, overall_score, total_issues, critical_issues,
			error_issues, warning_issues, info_issues, summary,
			processing_time, search_count, cost, data_quality
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.Timestamp, snap.OverallScore, snap.TotalIssues, snap.CriticalIssues,
		snap.ErrorIssues, snap.WarningIssues, snap.InfoIssues, snap.Summary,
		snap.ProcessingTime, snap.SearchCount, snap.Cost, snap.DataQuality,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading snapshot id: %w", err)
	}
	snap.ID = id

	values := map[string]float64{
		"overall_score":   snap.OverallScore,
		"total_issues":    float64(snap.TotalIssues),
		"critical_issues": float64(snap.CriticalIssues),
		"processing_time": snap.ProcessingTime,
		"search_count":    float64(snap.SearchCount),
		"cost":            snap.Cost,
		"data_quality":    snap.DataQuality,
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quality_metrics (timestamp, metric, value) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing metric insert: %w", err)
	}
	defer stmt.Close()
	for _, metric := range trackedMetrics {
		if _, err := stmt.ExecContext(ctx, snap.Timestamp, metric, values[metric]); err != nil {
			return 0, fmt.Errorf("inserting metric %s: %w", metric, err)
		}
	}

	for _, alert := range s.evaluateAlerts(snap) {
		metricsJSON, _ := json.Marshal(alert.Metrics)
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO quality_alerts (
				alert_id, timestamp, level, message, metrics,
				threshold_violated, suggested_action, resolved
			) VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			alert.AlertID, alert.Timestamp, string(alert.Level), alert.Message,
			string(metricsJSON), alert.ThresholdViolated, alert.SuggestedAction,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting alert %s: %w", alert.AlertID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing snapshot: %w", err)
	}
	return id, nil
}

// evaluateAlerts applies the four independent alert rules to a snapshot.
// Alert IDs are derived from the snapshot timestamp plus the rule key so
// repeated violations never overwrite each other.
func (s *Store) evaluateAlerts(snap types.QualitySnapshot) []types.QualityAlert {
	var alerts []types.QualityAlert

	add := func(rule string, level types.AlertLevel, message, threshold, action string, metrics map[string]float64) {
		alerts = append(alerts, types.QualityAlert{
			AlertID:           fmt.Sprintf("%s-%s", s.now().UTC().Format("20060102T150405.000000000"), rule),
			Timestamp:         snap.Timestamp,
			Level:             level,
			Message:           message,
			Metrics:           metrics,
			ThresholdViolated: threshold,
			SuggestedAction:   action,
		})
	}

	switch {
	case snap.OverallScore <= s.cfg.ScoreCritical:
		add("score", types.AlertCritical,
			fmt.Sprintf("overall quality score %.2f at or below critical threshold %.2f", snap.OverallScore, s.cfg.ScoreCritical),
			fmt.Sprintf("overall_score <= %.2f", s.cfg.ScoreCritical),
			"inspect the latest validation issues; the pipeline is producing low-quality reports",
			map[string]float64{"overall_score": snap.OverallScore})
	case snap.OverallScore <= s.cfg.ScoreWarning:
		add("score", types.AlertWarning,
			fmt.Sprintf("overall quality score %.2f at or below warning threshold %.2f", snap.OverallScore, s.cfg.ScoreWarning),
			fmt.Sprintf("overall_score <= %.2f", s.cfg.ScoreWarning),
			"review recent validation issues before quality degrades further",
			map[string]float64{"overall_score": snap.OverallScore})
	}

	if snap.CriticalIssues >= s.cfg.CriticalIssuesEmergency {
		add("critical-issues", types.AlertEmergency,
			fmt.Sprintf("%d critical validation issues in one report", snap.CriticalIssues),
			fmt.Sprintf("critical_issues >= %d", s.cfg.CriticalIssuesEmergency),
			"stop publishing reports until the structural failures are fixed",
			map[string]float64{"critical_issues": float64(snap.CriticalIssues)})
	}

	if snap.Cost >= s.cfg.CostWarning {
		add("cost", types.AlertWarning,
			fmt.Sprintf("report cost $%.2f at or above $%.2f", snap.Cost, s.cfg.CostWarning),
			fmt.Sprintf("cost >= %.2f", s.cfg.CostWarning),
			"reduce search volume or batch size to bound completion spend",
			map[string]float64{"cost": snap.Cost})
	}

	if snap.ProcessingTime >= s.cfg.ProcessingTimeWarning {
		add("processing-time", types.AlertWarning,
			fmt.Sprintf("processing time %.1fs at or above %.0fs", snap.ProcessingTime, s.cfg.ProcessingTimeWarning),
			fmt.Sprintf("processing_time >= %.0f", s.cfg.ProcessingTimeWarning),
			"check provider latency and rate-limit backoff; runs are slow",
			map[string]float64{"processing_time": snap.ProcessingTime})
	}

	return alerts
}

// Alerts returns alerts raised within the last hours, newest first.
func (s *Store) Alerts(ctx context.Context, hours int) ([]types.QualityAlert, error) {
	if hours <= 0 {
		hours = 24
	}
	cutoff := s.now().UTC().Add(-time.Duration(hours) * time.Hour).Format(timeFormat)

	rows, err := s.db.QueryContext(ctx,
		`SELECT alert_id, timestamp, level, message, metrics,
			threshold_violated, suggested_action, resolved
		FROM quality_alerts WHERE timestamp >= ? ORDER BY timestamp DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []types.QualityAlert
	for rows.Next() {
		var (
			a           types.QualityAlert
			level       string
			metricsJSON sql.NullString
			resolved    int
		)
		if err := rows.Scan(&a.AlertID, &a.Timestamp, &level, &a.Message,
			&metricsJSON, &a.ThresholdViolated, &a.SuggestedAction, &resolved); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		a.Level = types.AlertLevel(level)
		a.Resolved = resolved != 0
		if metricsJSON.Valid {
			json.Unmarshal([]byte(metricsJSON.String), &a.Metrics)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// Resolve marks an alert resolved. This is the only mutation alerts support.
func (s *Store) Resolve(ctx context.Context, alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE quality_alerts SET resolved = 1 WHERE alert_id = ?`, alertID)
	if err != nil {
		return fmt.Errorf("resolving alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("alert %s not found", alertID)
	}
	return nil
}

// Cleanup deletes snapshots, metrics, and alerts older than the retention
// window. This is the only delete path in the store.
func (s *Store) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = s.cfg.RetentionDays
	}
	cutoff := s.now().UTC().AddDate(0, 0, -retentionDays).Format(timeFormat)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, table := range []string{"quality_history", "quality_metrics", "quality_alerts"} {
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE timestamp < ?`, table), cutoff)
		if err != nil {
			return removed, fmt.Errorf("cleaning %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}
