// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insight-engine/internal/history"
	"github.com/pdiddy/insight-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the quality history (stats, trend, alerts, cleanup)",
	Long: `History inspects the local quality history database that the analyze
pipeline appends to after every run. Use subcommands for aggregate
statistics, trend direction, active alerts, and retention cleanup.`,
}

// --- stats subcommand ---

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate quality statistics over a window",
	RunE:  runHistoryStats,
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Statistics(context.Background(), days)
	if err != nil {
		return err
	}

	if jsonFlag(cmd) {
		return encodeJSON(stats)
	}

	fmt.Fprintf(os.Stdout, "Last %d days: %d snapshots\n", stats.Days, stats.SnapshotCount)
	if stats.SnapshotCount == 0 {
		return nil
	}
	fmt.Fprintf(os.Stdout, "Score: mean %.2f  min %.2f  max %.2f\n",
		stats.MeanScore, stats.MinScore, stats.MaxScore)
	fmt.Fprintf(os.Stdout, "Issues: %d critical, %d error, %d warning, %d info\n",
		stats.IssuesBySeverity[types.SeverityCritical], stats.IssuesBySeverity[types.SeverityError],
		stats.IssuesBySeverity[types.SeverityWarning], stats.IssuesBySeverity[types.SeverityInfo])
	fmt.Fprintf(os.Stdout, "Cost: $%.4f total  Processing: %.1fs mean  Searches: %.1f mean  Data quality: %.2f mean\n",
		stats.TotalCost, stats.MeanProcessing, stats.MeanSearchCount, stats.MeanDataQuality)
	fmt.Fprintf(os.Stdout, "Alerts: %d", stats.AlertCount)
	for _, level := range []types.AlertLevel{types.AlertEmergency, types.AlertCritical, types.AlertWarning, types.AlertInfo} {
		if n := stats.AlertsByLevel[level]; n > 0 {
			fmt.Fprintf(os.Stdout, "  %s=%d", level, n)
		}
	}
	fmt.Fprintln(os.Stdout)
	return nil
}

// --- trend subcommand ---

var historyTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Quality trend direction over a window",
	RunE:  runHistoryTrend,
}

func runHistoryTrend(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	trend, err := store.Trend(context.Background(), days)
	if err != nil {
		return err
	}

	if jsonFlag(cmd) {
		return encodeJSON(trend)
	}

	fmt.Fprintf(os.Stdout, "Trend: %s (%d snapshots)\n", trend.Trend, trend.SnapshotCount)
	if trend.Trend != types.TrendInsufficientData {
		fmt.Fprintf(os.Stdout, "Mean score %.2f  change %+.2f  volatility %.2f\n",
			trend.MeanScore, trend.ScoreChange, trend.Volatility)
	}
	for _, rec := range trend.Recommendations {
		fmt.Fprintf(os.Stdout, "  - %s\n", rec)
	}
	return nil
}

// --- alerts subcommand ---

var historyAlertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent quality alerts",
	RunE:  runHistoryAlerts,
}

func runHistoryAlerts(cmd *cobra.Command, args []string) error {
	hours, _ := cmd.Flags().GetInt("hours")
	resolveID, _ := cmd.Flags().GetString("resolve")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if resolveID != "" {
		if err := store.Resolve(context.Background(), resolveID); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Alert %s resolved.\n", resolveID)
		return nil
	}

	alerts, err := store.Alerts(context.Background(), hours)
	if err != nil {
		return err
	}

	if jsonFlag(cmd) {
		return encodeJSON(alerts)
	}

	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "No alerts.")
		return nil
	}
	for _, a := range alerts {
		status := " "
		if a.Resolved {
			status = "resolved"
		}
		fmt.Fprintf(os.Stdout, "[%-9s] %s  %s %s\n", a.Level, a.Timestamp, a.Message, status)
		fmt.Fprintf(os.Stdout, "            id=%s  violated: %s\n", a.AlertID, a.ThresholdViolated)
		if a.SuggestedAction != "" {
			fmt.Fprintf(os.Stdout, "            action: %s\n", a.SuggestedAction)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d alerts\n", len(alerts))
	return nil
}

// --- cleanup subcommand ---

var historyCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete history older than the retention window",
	RunE:  runHistoryCleanup,
}

func runHistoryCleanup(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Cleanup(context.Background(), days)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Removed %d rows.\n", removed)
	return nil
}

// --- shared helpers ---

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	return history.NewStore(historyConfig(dbPath))
}

func jsonFlag(cmd *cobra.Command) bool {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return jsonOutput
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("db", "", "history database path (default: history/quality.db)")
	historyCmd.PersistentFlags().Bool("json", false, "output as JSON")

	historyStatsCmd.Flags().Int("days", 30, "statistics window in days")
	historyTrendCmd.Flags().Int("days", 7, "trend window in days")
	historyAlertsCmd.Flags().Int("hours", 24, "alert window in hours")
	historyAlertsCmd.Flags().String("resolve", "", "mark an alert ID resolved instead of listing")
	historyCleanupCmd.Flags().Int("days", 0, "retention window in days (0 = configured default)")

	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyTrendCmd)
	historyCmd.AddCommand(historyAlertsCmd)
	historyCmd.AddCommand(historyCleanupCmd)

	rootCmd.AddCommand(historyCmd)
}
