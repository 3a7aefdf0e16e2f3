package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultMaxRuleSets       = 100
	DefaultMaxRulesPerSet    = 200
	DefaultEvaluationTimeout = time.Second

	// Rules defaults
	DefaultRulesMaxFileSize = int64(10 * 1024 * 1024)
	DefaultRulesMaxDepth    = 32

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsNamespace   = "xacmlcore"
	DefaultMetricsSubsystem   = "pdp"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "xacmlcore"
	DefaultOTLPTimeout        = 10 * time.Second
)

// DefaultDurationBuckets are histogram buckets from 10µs to about 160ms.
var DefaultDurationBuckets = []float64{
	0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.16,
}

// DefaultConfig returns a configuration with every default applied. It is
// what the CLI runs with when no configuration file is given.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Engine defaults
	if cfg.Engine.MaxRuleSets == 0 {
		cfg.Engine.MaxRuleSets = DefaultMaxRuleSets
	}
	if cfg.Engine.MaxRulesPerSet == 0 {
		cfg.Engine.MaxRulesPerSet = DefaultMaxRulesPerSet
	}
	if cfg.Engine.EvaluationTimeout == 0 {
		cfg.Engine.EvaluationTimeout = DefaultEvaluationTimeout
	}

	// Rules defaults
	if cfg.Rules.MaxFileSize == 0 {
		cfg.Rules.MaxFileSize = DefaultRulesMaxFileSize
	}
	if cfg.Rules.MaxDepth == 0 {
		cfg.Rules.MaxDepth = DefaultRulesMaxDepth
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

// applyTelemetryDefaults applies default values to telemetry configuration.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}
