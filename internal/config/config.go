// Package config loads and validates the service configuration from
// YAML with ${ENV_VAR} interpolation.
package config

import (
	"time"

	"github.com/HezziCode/hackathon-v-research-agent/internal/llm"
	"github.com/HezziCode/hackathon-v-research-agent/internal/workflow"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Workflow  WorkflowConfig  `mapstructure:"workflow" yaml:"workflow"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Slots     []llm.SlotDefinition `mapstructure:"slots" yaml:"slots"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the SQLite settings. An empty path selects the
// in-memory task store with no durability.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ArtifactsConfig holds the artifact directory root.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// WorkflowConfig tunes the orchestration engine.
type WorkflowConfig struct {
	ApprovalTimeout time.Duration        `mapstructure:"approval_timeout" yaml:"approval_timeout"`
	Retry           workflow.RetryPolicy `mapstructure:"retry" yaml:"retry"`
}

// ProviderConfig holds one provider's credentials.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

// ProvidersConfig holds credentials per provider.
type ProvidersConfig struct {
	Anthropic ProviderConfig `mapstructure:"anthropic" yaml:"anthropic"`
	GoogleAI  ProviderConfig `mapstructure:"googleai" yaml:"googleai"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus exposition.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Database:  DatabaseConfig{Path: "analyst.db"},
		Artifacts: ArtifactsConfig{Dir: "artifacts"},
		Workflow: WorkflowConfig{
			ApprovalTimeout: workflow.DefaultApprovalTimeout,
			Retry:           workflow.DefaultRetryPolicy(),
		},
		Providers: ProvidersConfig{
			Anthropic: ProviderConfig{APIKey: "${ANTHROPIC_API_KEY}"},
			GoogleAI:  ProviderConfig{APIKey: "${GOOGLE_API_KEY}"},
		},
		Slots: DefaultSlots(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// DefaultSlots routes every stage to Claude Sonnet except the fact
// checker, which needs the largest context window for cross-source
// triangulation and goes to Gemini.
func DefaultSlots() []llm.SlotDefinition {
	sonnet := func(name string) llm.SlotDefinition {
		return llm.SlotDefinition{
			Name:             name,
			Provider:         "anthropic",
			Model:            "claude-sonnet-4-5-20250929",
			MinContextWindow: 100000,
			RequiredFeatures: []string{"json"},
		}
	}
	return []llm.SlotDefinition{
		sonnet("planner"),
		sonnet("source_finder"),
		sonnet("content_analyzer"),
		{
			Name:             "fact_checker",
			Provider:         "googleai",
			Model:            "gemini-1.5-pro",
			MinContextWindow: 500000,
			RequiredFeatures: []string{"json"},
		},
		sonnet("report_writer"),
	}
}
