// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "insight-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search acquisition stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results per query (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinInterval is the minimum process-wide interval between provider
	// calls (default 2s). Calls arriving sooner block until it elapses.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// MaxAttempts is the number of attempts per query, rotating through
	// backend strategies (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// MaxQueries caps the number of diversified queries per topic (default 20).
	MaxQueries int `json:"max_queries" yaml:"max_queries"`
}

// AnalysisConfig holds settings for the batch analysis stage.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the completion model identifier (e.g. "gpt-3.5-turbo").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BatchSize is the number of search results summarized per completion
	// call (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxTokens is the per-completion output token cap (default 1500).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the completion sampling temperature (default 0.7).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// InputCostPer1K and OutputCostPer1K price completion tokens in USD
	// per 1000 tokens (defaults 0.0015 and 0.002).
	InputCostPer1K  float64 `json:"input_cost_per_1k" yaml:"input_cost_per_1k"`
	OutputCostPer1K float64 `json:"output_cost_per_1k" yaml:"output_cost_per_1k"`
}

// HistoryConfig holds settings for the quality history store.
type HistoryConfig struct {
	// DBPath is the SQLite database path (default "history/quality.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// ScoreWarning and ScoreCritical are overall-score alert thresholds
	// (defaults 0.6 and 0.4).
	ScoreWarning  float64 `json:"score_warning" yaml:"score_warning"`
	ScoreCritical float64 `json:"score_critical" yaml:"score_critical"`

	// CriticalIssuesEmergency is the critical-issue count that raises an
	// emergency alert (default 3).
	CriticalIssuesEmergency int `json:"critical_issues_emergency" yaml:"critical_issues_emergency"`

	// CostWarning is the per-report cost alert threshold in USD (default 1.0).
	CostWarning float64 `json:"cost_warning" yaml:"cost_warning"`

	// ProcessingTimeWarning is the per-report duration alert threshold in
	// seconds (default 60).
	ProcessingTimeWarning float64 `json:"processing_time_warning" yaml:"processing_time_warning"`

	// VolatilityThreshold classifies a trend window as volatile (default 0.3).
	VolatilityThreshold float64 `json:"volatility_threshold" yaml:"volatility_threshold"`

	// ChangeThreshold is the minimum |score delta| for an improving or
	// declining classification (default 0.1).
	ChangeThreshold float64 `json:"change_threshold" yaml:"change_threshold"`

	// RetentionDays bounds the cleanup window (default 90).
	RetentionDays int `json:"retention_days" yaml:"retention_days"`
}

// SessionConfig holds settings for session persistence.
type SessionConfig struct {
	// SessionsDir is the directory holding session files (default "sessions").
	SessionsDir string `json:"sessions_dir" yaml:"sessions_dir"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Session  SessionConfig  `json:"session" yaml:"session"`
}
