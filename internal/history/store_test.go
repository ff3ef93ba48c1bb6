package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/insight-engine/pkg/types"
)

// testStore opens a store on a temp database with a stepping clock: every
// call to now advances one minute so timestamps are distinct and ordered.
func testStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	store, err := NewStore(types.HistoryConfig{
		DBPath: filepath.Join(t.TempDir(), "quality.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
	return store, &current
}

func vrWithScore(score float64) *types.ValidationReport {
	return &types.ValidationReport{
		OverallScore: score,
		TotalIssues:  1,
		IssuesBySeverity: map[types.Severity]int{
			types.SeverityWarning: 1,
		},
		Summary: "test snapshot",
	}
}

// --- Record ---

func TestRecordAndWindow(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, vrWithScore(0.9), 12.5, 20, 0.05, 0.6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	id, err = store.Record(ctx, vrWithScore(0.8), 10.0, 15, 0.04, 0.55)
	require.NoError(t, err)
	assert.Equal(t, int64(2), id)

	snapshots, err := store.window(ctx, 7)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 0.9, snapshots[0].OverallScore)
	assert.Equal(t, 0.8, snapshots[1].OverallScore)
	assert.Equal(t, 20, snapshots[0].SearchCount)
	assert.Equal(t, "test snapshot", snapshots[0].Summary)
	assert.True(t, snapshots[0].Timestamp < snapshots[1].Timestamp)
}

func TestRecordWritesMetricRows(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.9), 12.5, 20, 0.05, 0.6)
	require.NoError(t, err)

	var n int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM quality_metrics`).Scan(&n))
	assert.Equal(t, len(trackedMetrics), n)

	var score float64
	require.NoError(t, store.db.QueryRow(
		`SELECT value FROM quality_metrics WHERE metric = 'overall_score'`).Scan(&score))
	assert.Equal(t, 0.9, score)
}

// --- alerts ---

func TestRecordLowScoreRaisesOneCriticalAlert(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.3), 5, 10, 0.05, 0.5)
	require.NoError(t, err)

	alerts, err := store.Alerts(ctx, 24)
	require.NoError(t, err)
	require.Len(t, alerts, 1, "score 0.3 must raise exactly one alert, not critical plus warning")
	assert.Equal(t, types.AlertCritical, alerts[0].Level)
	assert.Contains(t, alerts[0].ThresholdViolated, "overall_score")
	assert.False(t, alerts[0].Resolved)
	assert.Equal(t, 0.3, alerts[0].Metrics["overall_score"])
}

func TestRecordMidScoreRaisesWarning(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.55), 5, 10, 0.05, 0.5)
	require.NoError(t, err)

	alerts, err := store.Alerts(ctx, 24)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.AlertWarning, alerts[0].Level)
}

func TestRecordIndependentAlertRules(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	vr := vrWithScore(0.3)
	vr.IssuesBySeverity[types.SeverityCritical] = 4

	// Low score, many criticals, high cost, slow run: four alerts at once.
	_, err := store.Record(ctx, vr, 90, 10, 2.5, 0.5)
	require.NoError(t, err)

	alerts, err := store.Alerts(ctx, 24)
	require.NoError(t, err)
	require.Len(t, alerts, 4)

	levels := map[types.AlertLevel]int{}
	for _, a := range alerts {
		levels[a.Level]++
	}
	assert.Equal(t, 1, levels[types.AlertEmergency])
	assert.Equal(t, 1, levels[types.AlertCritical])
	assert.Equal(t, 2, levels[types.AlertWarning])
}

func TestRecordHealthySnapshotNoAlerts(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.95), 5, 10, 0.05, 0.6)
	require.NoError(t, err)

	alerts, err := store.Alerts(ctx, 24)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestResolveAlert(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.3), 5, 10, 0.05, 0.5)
	require.NoError(t, err)

	alerts, err := store.Alerts(ctx, 24)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	require.NoError(t, store.Resolve(ctx, alerts[0].AlertID))

	alerts, err = store.Alerts(ctx, 24)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Resolved)

	assert.Error(t, store.Resolve(ctx, "no-such-alert"))
}

// --- Trend ---

func TestTrendDeclining(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, score := range []float64{0.9, 0.9, 0.9, 0.5, 0.5, 0.5} {
		_, err := store.Record(ctx, vrWithScore(score), 5, 10, 0.05, 0.5)
		require.NoError(t, err)
	}

	trend, err := store.Trend(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, types.TrendDeclining, trend.Trend)
	assert.Equal(t, 6, trend.SnapshotCount)
	assert.InDelta(t, 0.7, trend.MeanScore, 1e-9)
	assert.InDelta(t, -0.4, trend.ScoreChange, 1e-9)
	assert.InDelta(t, 0.2, trend.Volatility, 1e-9)
	assert.NotEmpty(t, trend.Recommendations)
}

func TestTrendImproving(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, score := range []float64{0.6, 0.65, 0.7, 0.75, 0.8} {
		_, err := store.Record(ctx, vrWithScore(score), 5, 10, 0.05, 0.5)
		require.NoError(t, err)
	}

	trend, err := store.Trend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.TrendImproving, trend.Trend)
	assert.InDelta(t, 0.2, trend.ScoreChange, 1e-9)
}

func TestTrendStable(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, score := range []float64{0.8, 0.82, 0.81, 0.8} {
		_, err := store.Record(ctx, vrWithScore(score), 5, 10, 0.05, 0.5)
		require.NoError(t, err)
	}

	trend, err := store.Trend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.TrendStable, trend.Trend)
}

func TestTrendVolatile(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	for _, score := range []float64{0.1, 0.9, 0.1, 0.9, 0.1, 0.9} {
		_, err := store.Record(ctx, vrWithScore(score), 5, 10, 0.05, 0.5)
		require.NoError(t, err)
	}

	trend, err := store.Trend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.TrendVolatile, trend.Trend)
}

func TestTrendInsufficientData(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.9), 5, 10, 0.05, 0.5)
	require.NoError(t, err)

	trend, err := store.Trend(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.TrendInsufficientData, trend.Trend)
	assert.Equal(t, 1, trend.SnapshotCount)
	assert.NotEmpty(t, trend.Recommendations)
}

// --- Statistics ---

func TestStatistics(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.9), 10, 20, 0.10, 0.6)
	require.NoError(t, err)
	_, err = store.Record(ctx, vrWithScore(0.5), 20, 10, 0.30, 0.5)
	require.NoError(t, err)

	stats, err := store.Statistics(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SnapshotCount)
	assert.InDelta(t, 0.7, stats.MeanScore, 1e-9)
	assert.Equal(t, 0.5, stats.MinScore)
	assert.Equal(t, 0.9, stats.MaxScore)
	assert.Equal(t, 2, stats.IssuesBySeverity[types.SeverityWarning])
	assert.InDelta(t, 0.40, stats.TotalCost, 1e-9)
	assert.InDelta(t, 15, stats.MeanProcessing, 1e-9)
	assert.InDelta(t, 15, stats.MeanSearchCount, 1e-9)

	// The 0.5 snapshot raised one warning score alert.
	assert.Equal(t, 1, stats.AlertCount)
	assert.Equal(t, 1, stats.AlertsByLevel[types.AlertWarning])
}

func TestStatisticsEmpty(t *testing.T) {
	store, _ := testStore(t)

	stats, err := store.Statistics(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SnapshotCount)
	assert.Equal(t, 0.0, stats.MeanScore)
}

// --- Cleanup ---

func TestCleanup(t *testing.T) {
	store, current := testStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, vrWithScore(0.3), 5, 10, 0.05, 0.5)
	require.NoError(t, err)

	// Jump the clock past the retention window and record a fresh snapshot.
	*current = current.AddDate(0, 0, 120)
	_, err = store.Record(ctx, vrWithScore(0.9), 5, 10, 0.05, 0.5)
	require.NoError(t, err)

	removed, err := store.Cleanup(ctx, 90)
	require.NoError(t, err)
	// One snapshot, its metric rows, and its alert.
	assert.Equal(t, int64(1+len(trackedMetrics)+1), removed)

	snapshots, err := store.window(ctx, 365)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 0.9, snapshots[0].OverallScore)
}
