package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "XACMLCORE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parseConfig decodes YAML and applies defaults. Booleans that default to
// true are preset before decoding so an absent key keeps the default.
func parseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention XACMLCORE_SECTION_FIELD (e.g., XACMLCORE_RULES_PATH).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path starts from DefaultConfig.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean or duration values are reported rather than
// ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []FieldError
	env := func(name string) (string, bool) {
		val := os.Getenv(EnvPrefix + name)
		return val, val != ""
	}
	bad := func(name, val string, err error) {
		errs = append(errs, FieldError{
			Field:   EnvPrefix + name,
			Message: fmt.Sprintf("invalid value %q: %v", val, err),
		})
	}

	// Engine overrides
	if val, ok := env("ENGINE_MAX_RULE_SETS"); ok {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxRuleSets = i
		} else {
			bad("ENGINE_MAX_RULE_SETS", val, err)
		}
	}
	if val, ok := env("ENGINE_MAX_RULES_PER_SET"); ok {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Engine.MaxRulesPerSet = i
		} else {
			bad("ENGINE_MAX_RULES_PER_SET", val, err)
		}
	}
	if val, ok := env("ENGINE_ENABLE_TRACE"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Engine.EnableTrace = b
		} else {
			bad("ENGINE_ENABLE_TRACE", val, err)
		}
	}
	if val, ok := env("ENGINE_EVALUATION_TIMEOUT"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.EvaluationTimeout = d
		} else {
			bad("ENGINE_EVALUATION_TIMEOUT", val, err)
		}
	}

	// Functions overrides
	if val, ok := env("FUNCTIONS_EXCLUDE"); ok {
		cfg.Functions.Exclude = splitList(val)
	}

	// Rules overrides
	if val, ok := env("RULES_PATH"); ok {
		cfg.Rules.Path = val
	}
	if val, ok := env("RULES_WATCH"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		} else {
			bad("RULES_WATCH", val, err)
		}
	}
	if val, ok := env("RULES_MAX_DEPTH"); ok {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Rules.MaxDepth = i
		} else {
			bad("RULES_MAX_DEPTH", val, err)
		}
	}

	// Telemetry overrides
	if val, ok := env("TELEMETRY_LOGGING_LEVEL"); ok {
		cfg.Telemetry.Logging.Level = strings.ToLower(val)
	}
	if val, ok := env("TELEMETRY_LOGGING_FORMAT"); ok {
		cfg.Telemetry.Logging.Format = strings.ToLower(val)
	}
	if val, ok := env("TELEMETRY_METRICS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		} else {
			bad("TELEMETRY_METRICS_ENABLED", val, err)
		}
	}
	if val, ok := env("TELEMETRY_TRACING_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		} else {
			bad("TELEMETRY_TRACING_ENABLED", val, err)
		}
	}
	if val, ok := env("TELEMETRY_TRACING_ENDPOINT"); ok {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val, ok := env("TELEMETRY_TRACING_SAMPLE_RATIO"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		} else {
			bad("TELEMETRY_TRACING_SAMPLE_RATIO", val, err)
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
