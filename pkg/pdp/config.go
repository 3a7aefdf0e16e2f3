package pdp

import (
	"fmt"
	"time"
)

// EngineConfig contains configuration for the decision engine.
type EngineConfig struct {
	// MaxRuleSets is the maximum number of rule sets to load.
	// Default: 100.
	MaxRuleSets int

	// MaxRulesPerSet is the maximum number of rules per rule set.
	// Default: 200.
	MaxRulesPerSet int

	// EnableTrace records evaluation steps in every response.
	// Default: false.
	EnableTrace bool

	// EvaluationTimeout bounds the evaluation of one request. Zero means
	// no limit beyond the caller's context.
	// Default: 1s.
	EvaluationTimeout time.Duration

	// Watch reloads rule sets when the source reports a change.
	// Default: false.
	Watch bool
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MaxRuleSets:       100,
		MaxRulesPerSet:    200,
		EvaluationTimeout: time.Second,
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.MaxRuleSets <= 0 {
		return fmt.Errorf("%w: max rule sets must be positive", ErrInvalidConfig)
	}
	if c.MaxRulesPerSet <= 0 {
		return fmt.Errorf("%w: max rules per set must be positive", ErrInvalidConfig)
	}
	if c.EvaluationTimeout < 0 {
		return fmt.Errorf("%w: evaluation timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WithMaxRuleSets sets the maximum number of rule sets.
func (c *EngineConfig) WithMaxRuleSets(n int) *EngineConfig {
	c.MaxRuleSets = n
	return c
}

// WithMaxRulesPerSet sets the maximum number of rules per rule set.
func (c *EngineConfig) WithMaxRulesPerSet(n int) *EngineConfig {
	c.MaxRulesPerSet = n
	return c
}

// WithTrace enables or disables evaluation tracing.
func (c *EngineConfig) WithTrace(enabled bool) *EngineConfig {
	c.EnableTrace = enabled
	return c
}

// WithEvaluationTimeout sets the per-request evaluation timeout.
func (c *EngineConfig) WithEvaluationTimeout(timeout time.Duration) *EngineConfig {
	c.EvaluationTimeout = timeout
	return c
}

// WithWatch enables or disables reloading on source changes.
func (c *EngineConfig) WithWatch(enabled bool) *EngineConfig {
	c.Watch = enabled
	return c
}
