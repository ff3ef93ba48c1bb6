// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/insight-engine/internal/analysis"
	"github.com/pdiddy/insight-engine/internal/engine"
	"github.com/pdiddy/insight-engine/internal/history"
	"github.com/pdiddy/insight-engine/internal/websearch"
	"github.com/pdiddy/insight-engine/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <topic>",
	Short: "Run the full research pipeline for a topic",
	Long: `Analyze diversifies the topic into search queries, gathers web results
under a rate limit, summarizes them in batches with a completion model,
assembles a structured report, validates it, and records the quality
outcome. The report is appended to the session file.

Without an API key the pipeline still runs: search results are gathered
and the report is assembled in degraded mode without summarization.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	sessionPath, _ := cmd.Flags().GetString("session")
	dbPath, _ := cmd.Flags().GetString("history-db")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	apiKey, _ := cmd.Flags().GetString("api-key")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if sessionPath == "" {
		dir := viper.GetString("session.sessions_dir")
		if dir == "" {
			dir = "sessions"
		}
		sessionPath = filepath.Join(dir, "session.yaml")
	}

	searchCfg := searchConfig()
	analysisCfg := analysisConfig(apiKey)

	backends := websearch.NewBackends(httpClient(searchCfg.Timeout), searchCfg)
	searcher := websearch.NewClient(backends, searchCfg)

	var backend analysis.CompletionBackend
	if analysisCfg.APIKey != "" {
		backend = &analysis.OpenAIBackend{
			APIKey: analysisCfg.APIKey,
			Model:  analysisCfg.Model,
			Client: httpClient(analysisCfg.Timeout),
		}
	} else {
		fmt.Fprintln(os.Stderr, "No API key configured; running without summarization.")
	}
	pipeline := analysis.NewPipeline(backend, analysis.NewTokenizer(analysisCfg.Model), analysisCfg)

	var recorder engine.Recorder
	if !noHistory {
		store, err := history.NewStore(historyConfig(dbPath))
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	progress := os.Stderr
	eng, err := engine.Resume(searcher, pipeline, recorder, sessionPath, progress)
	if err != nil {
		return err
	}

	report, err := eng.Analyze(context.Background(), topic, maxResults)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(os.Stdout, report)
	fmt.Fprintf(os.Stdout, "\nSession %s: %d reports, total cost $%.4f (%s)\n",
		eng.Session().SessionID, len(eng.Session().Reports), eng.Session().TotalCost, sessionPath)
	return nil
}

// printReport renders the human-readable report summary.
func printReport(w *os.File, r *types.Report) {
	fmt.Fprintf(w, "Report %d — %s\n", r.ReportID, r.Timestamp)
	fmt.Fprintf(w, "Topic: %s\n", r.UserPrompt)
	if r.Error {
		fmt.Fprintf(w, "ERROR: %s\n", r.ErrorMessage)
		return
	}
	if r.EmptyDataReport {
		fmt.Fprintln(w, "No search data could be gathered for this topic.")
	}
	fmt.Fprintf(w, "Results: %d  Quality: %.2f  Cost: $%.4f  Time: %.1fs\n",
		r.SearchCount, r.DataQuality, r.Cost, r.ProcessingTime)

	if len(r.KeyInsights) > 0 {
		fmt.Fprintln(w, "\nKey insights:")
		for i, insight := range r.KeyInsights {
			fmt.Fprintf(w, "  %d. %s\n", i+1, insight)
		}
	}
	if len(r.RelatedTopics) > 0 {
		fmt.Fprintln(w, "\nRelated topics:")
		for _, topic := range r.RelatedTopics {
			fmt.Fprintf(w, "  - %s\n", topic)
		}
	}
	if r.ValidationReport != nil {
		fmt.Fprintf(w, "\nValidation: %s\n", r.ValidationReport.Summary)
		for _, rec := range r.ValidationReport.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func init() {
	analyzeCmd.Flags().Int("max-results", 0, "maximum search results per query (default: search.max_results config, else 10)")
	analyzeCmd.Flags().String("session", "", "session file path (default: sessions/session.yaml)")
	analyzeCmd.Flags().String("history-db", "", "quality history database path (default: history/quality.db)")
	analyzeCmd.Flags().Bool("no-history", false, "skip quality history recording")
	analyzeCmd.Flags().String("api-key", "", "completion API key (overrides config and secrets)")
	analyzeCmd.Flags().Bool("json", false, "output the full report as JSON")

	rootCmd.AddCommand(analyzeCmd)
}
