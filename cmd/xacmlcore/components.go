package main

import (
	"fmt"
	"log/slog"

	"mercator-hq/xacmlcore/pkg/config"
	"mercator-hq/xacmlcore/pkg/pdp"
	"mercator-hq/xacmlcore/pkg/pdp/source"
	"mercator-hq/xacmlcore/pkg/xacml/function"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
)

// newRegistry builds the function registry without the excluded functions.
func newRegistry(cfg *config.Config) (*function.Registry, error) {
	reg, err := function.NewStandardRegistry(function.WithExclude(cfg.Functions.Exclude...))
	if err != nil {
		return nil, fmt.Errorf("failed to build function registry: %w", err)
	}
	return reg, nil
}

// newParser builds a rule parser with the configured limits.
func newParser(cfg *config.Config) (*parser.Parser, error) {
	reg, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	return parser.NewParser(reg).
		WithMaxFileSize(cfg.Rules.MaxFileSize).
		WithMaxDepth(cfg.Rules.MaxDepth), nil
}

// newRuleSource returns a file source for the --rules flag, falling back to
// the configured rules path.
func newRuleSource(cfg *config.Config, rulesFlag string, logger *slog.Logger) (*source.FileSource, error) {
	path := rulesFlag
	if path == "" {
		path = cfg.Rules.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no rules given: use --rules or set rules.path in the config file")
	}

	p, err := newParser(cfg)
	if err != nil {
		return nil, err
	}
	return source.NewFileSource(path, p, logger), nil
}

// engineConfig converts the engine section of the configuration.
func engineConfig(cfg *config.Config) *pdp.EngineConfig {
	return pdp.DefaultEngineConfig().
		WithMaxRuleSets(cfg.Engine.MaxRuleSets).
		WithMaxRulesPerSet(cfg.Engine.MaxRulesPerSet).
		WithTrace(cfg.Engine.EnableTrace).
		WithEvaluationTimeout(cfg.Engine.EvaluationTimeout).
		WithWatch(cfg.Rules.Watch)
}
