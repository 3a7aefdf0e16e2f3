package config

import "time"

// Config is the root configuration structure for xacmlcore.
type Config struct {
	// Engine contains rule evaluation limits and tracing.
	Engine EngineConfig `yaml:"engine"`

	// Functions controls which functions the registry offers to rules.
	Functions FunctionsConfig `yaml:"functions"`

	// Rules contains the location of rule documents and loader limits.
	Rules RulesConfig `yaml:"rules"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains configuration for the rule evaluation engine.
type EngineConfig struct {
	// MaxRuleSets is the maximum number of rule documents loaded at once.
	// Default: 100
	MaxRuleSets int `yaml:"max_rule_sets" validate:"gte=0"`

	// MaxRulesPerSet is the maximum number of rules in one document.
	// Default: 200
	MaxRulesPerSet int `yaml:"max_rules_per_set" validate:"gte=0"`

	// EnableTrace records per-rule trace steps in every response.
	// Default: false
	EnableTrace bool `yaml:"enable_trace"`

	// EvaluationTimeout bounds the evaluation of one request.
	// Default: 1s
	EvaluationTimeout time.Duration `yaml:"evaluation_timeout" validate:"gte=0"`
}

// FunctionsConfig controls the function registry.
type FunctionsConfig struct {
	// Exclude lists function identifiers removed from the standard
	// registry. Short names are accepted.
	Exclude []string `yaml:"exclude" validate:"omitempty,dive,required"`
}

// RulesConfig contains configuration for loading rule documents.
type RulesConfig struct {
	// Path is a rule document or a directory of .yaml/.yml documents.
	Path string `yaml:"path"`

	// Watch reloads rules when files under Path change.
	// Default: false
	Watch bool `yaml:"watch"`

	// MaxFileSize is the maximum size of one document in bytes.
	// Default: 10MB
	MaxFileSize int64 `yaml:"max_file_size" validate:"gte=0"`

	// MaxDepth is the maximum nesting of function applications.
	// Default: 32
	MaxDepth int `yaml:"max_depth" validate:"gte=0"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format" validate:"required,oneof=json text"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "xacmlcore"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "pdp"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for request evaluation
	// duration in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets" validate:"omitempty,dive,gt=0"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler" validate:"omitempty,oneof=always never ratio"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint" validate:"omitempty,hostname_port"`

	// ServiceName is the service name in traces.
	// Default: "xacmlcore"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
