// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insight-engine/internal/queries"
)

var queriesCmd = &cobra.Command{
	Use:   "queries <prompt>",
	Short: "Print the diversified search queries for a prompt",
	Long: `Queries shows what the analyze pipeline would search for: the prompt is
classified (person, technology, or general topic) and expanded into up to
20 deduplicated query variations. Useful for checking coverage before
spending a full pipeline run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQueries,
}

func runQueries(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	qs := queries.Generate(prompt)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(qs)
	}
	for i, q := range qs {
		fmt.Fprintf(os.Stdout, "%2d. %s\n", i+1, q)
	}
	fmt.Fprintf(os.Stdout, "\n%d queries\n", len(qs))
	return nil
}

func init() {
	queriesCmd.Flags().Bool("json", false, "output queries as JSON")

	rootCmd.AddCommand(queriesCmd)
}
