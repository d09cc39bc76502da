package config

import (
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/HezziCode/hackathon-v-research-agent/internal/types"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads a YAML config file, interpolates ${ENV_VAR} references,
// applies defaults for absent keys, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			"failed to read config file "+path, err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults behaves like Load, but a missing file yields the
// default configuration instead of an error.
func LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		interpolateConfig(cfg)
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			"failed to unmarshal config", err)
	}
	if len(cfg.Slots) == 0 {
		cfg.Slots = DefaultSlots()
	}
	interpolateConfig(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("artifacts.dir", def.Artifacts.Dir)
	v.SetDefault("workflow.approval_timeout", def.Workflow.ApprovalTimeout)
	v.SetDefault("workflow.retry.initial_interval", def.Workflow.Retry.InitialInterval)
	v.SetDefault("workflow.retry.backoff_coefficient", def.Workflow.Retry.BackoffCoefficient)
	v.SetDefault("workflow.retry.max_interval", def.Workflow.Retry.MaxInterval)
	v.SetDefault("workflow.retry.max_attempts", def.Workflow.Retry.MaxAttempts)
	v.SetDefault("providers.anthropic.api_key", def.Providers.Anthropic.APIKey)
	v.SetDefault("providers.googleai.api_key", def.Providers.GoogleAI.APIKey)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
}

// interpolateConfig resolves ${ENV_VAR} references in the string
// fields that may carry secrets or per-environment values.
func interpolateConfig(cfg *Config) {
	cfg.Database.Path = interpolate(cfg.Database.Path)
	cfg.Artifacts.Dir = interpolate(cfg.Artifacts.Dir)
	cfg.Providers.Anthropic.APIKey = interpolate(cfg.Providers.Anthropic.APIKey)
	cfg.Providers.GoogleAI.APIKey = interpolate(cfg.Providers.GoogleAI.APIKey)
}

// interpolate replaces ${VAR} with the environment value; unset
// variables resolve to empty.
func interpolate(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}

// Validate checks the structural invariants of a configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"server.port must be between 1 and 65535")
	}
	if cfg.Workflow.ApprovalTimeout <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"workflow.approval_timeout must be positive")
	}
	if cfg.Workflow.Retry.MaxAttempts < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"workflow.retry.max_attempts must be at least 1")
	}
	if cfg.Workflow.Retry.BackoffCoefficient < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"workflow.retry.backoff_coefficient must be at least 1")
	}
	if cfg.Workflow.Retry.InitialInterval <= 0 || cfg.Workflow.Retry.MaxInterval < cfg.Workflow.Retry.InitialInterval {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"workflow.retry intervals must be positive and max_interval >= initial_interval")
	}
	if cfg.Artifacts.Dir == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"artifacts.dir must not be empty")
	}

	seen := make(map[string]bool, len(cfg.Slots))
	for _, slot := range cfg.Slots {
		if slot.Name == "" || slot.Provider == "" || slot.Model == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				"every slot must name a stage, provider and model")
		}
		if seen[slot.Name] {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				"duplicate slot definition: "+slot.Name)
		}
		seen[slot.Name] = true
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds.
func (c *Config) ListenAddr() string {
	host := c.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
