// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insight-engine/internal/websearch"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one rate-limited web search",
	Long: `Search issues a single query through the provider backends (html, lite,
api) with the same rate limiting and retry rotation the pipeline uses.
Zero results is a normal outcome, not an error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := searchConfig()
	backends := websearch.NewBackends(httpClient(cfg.Timeout), cfg)
	client := websearch.NewClient(backends, cfg)

	results, err := client.Search(context.Background(), query, maxResults)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No results.")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(os.Stdout, "%2d. [%s] %s\n    %s\n", i+1, r.Source, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", r.Snippet)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (default: search.max_results config, else 10)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
