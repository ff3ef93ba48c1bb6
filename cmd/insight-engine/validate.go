// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/insight-engine/internal/engine"
	"github.com/pdiddy/insight-engine/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <session-file>",
	Short: "Re-validate the reports in a session file",
	Long: `Validate loads a session file and runs the quality validator over each
report, printing the score, issues, and recommendations. The session file
is not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	session, err := engine.LoadSession(args[0])
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session file %s not found", args[0])
	}

	validator := validate.New()
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for i := range session.Reports {
			vr := validator.Validate(&session.Reports[i])
			if err := enc.Encode(vr); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range session.Reports {
		r := &session.Reports[i]
		vr := validator.Validate(r)
		fmt.Fprintf(os.Stdout, "Report %d: %s\n", r.ReportID, vr.Summary)
		for _, issue := range vr.Issues {
			fmt.Fprintf(os.Stdout, "  [%s] %s: %s\n", issue.Severity, issue.Field, issue.Message)
		}
		for _, rec := range vr.Recommendations {
			fmt.Fprintf(os.Stdout, "  -> %s\n", rec)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d reports validated\n", len(session.Reports))
	return nil
}

func init() {
	validateCmd.Flags().Bool("json", false, "output validation reports as JSON")

	rootCmd.AddCommand(validateCmd)
}
