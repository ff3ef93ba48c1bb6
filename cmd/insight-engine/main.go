// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the insight-engine CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/insight-engine/internal/secrets"
	"github.com/pdiddy/insight-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the insight-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "insight-engine",
	Short: "Automated topic research with quality tracking",
	Long: `insight-engine turns a research topic into a structured report: it
diversifies the topic into search queries, gathers web results under a
rate limit, summarizes them in batches with a completion model, assembles
the report, validates its quality, and records the outcome in a local
quality history.

Each pipeline stage is also exposed as its own subcommand (queries, search,
validate, history) for inspection and debugging.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./insight-engine.yaml or ~/.config/insight-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("insight-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "insight-engine"))
		}
	}

	viper.SetEnvPrefix("INSIGHT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// searchConfig assembles the acquisition settings from config file values.
func searchConfig() types.SearchConfig {
	cfg := types.SearchConfig{
		MaxResults:  viper.GetInt("search.max_results"),
		MinInterval: viper.GetDuration("search.min_interval"),
		MaxAttempts: viper.GetInt("search.max_attempts"),
		MaxQueries:  viper.GetInt("search.max_queries"),
	}
	cfg.Timeout = viper.GetDuration("search.timeout")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.UserAgent = viper.GetString("search.user_agent")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "insight-engine/" + version
	}
	return cfg
}

// analysisConfig assembles the completion settings. The API key resolution
// order is flag, then .secrets/openai-api-key, then config file.
func analysisConfig(apiKeyFlag string) types.AnalysisConfig {
	cfg := types.AnalysisConfig{
		Model:           viper.GetString("analysis.model"),
		APIKey:          secretDefault("openai-api-key", apiKeyFlag),
		BatchSize:       viper.GetInt("analysis.batch_size"),
		MaxTokens:       viper.GetInt("analysis.max_tokens"),
		Temperature:     viper.GetFloat64("analysis.temperature"),
		InputCostPer1K:  viper.GetFloat64("analysis.input_cost_per_1k"),
		OutputCostPer1K: viper.GetFloat64("analysis.output_cost_per_1k"),
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = viper.GetString("analysis.api_key")
	}
	cfg.Timeout = viper.GetDuration("analysis.timeout")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return cfg
}

// historyConfig assembles the history store settings.
func historyConfig(dbFlag string) types.HistoryConfig {
	cfg := types.HistoryConfig{
		DBPath:                  dbFlag,
		ScoreWarning:            viper.GetFloat64("history.score_warning"),
		ScoreCritical:           viper.GetFloat64("history.score_critical"),
		CriticalIssuesEmergency: viper.GetInt("history.critical_issues_emergency"),
		CostWarning:             viper.GetFloat64("history.cost_warning"),
		ProcessingTimeWarning:   viper.GetFloat64("history.processing_time_warning"),
		VolatilityThreshold:     viper.GetFloat64("history.volatility_threshold"),
		ChangeThreshold:         viper.GetFloat64("history.change_threshold"),
		RetentionDays:           viper.GetInt("history.retention_days"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = viper.GetString("history.db_path")
	}
	return cfg
}

// httpClient builds the shared HTTP client for a stage.
func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
