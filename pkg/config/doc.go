// Package config loads the xacmlcore configuration.
//
// Configuration comes from a YAML file with environment variable overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("xacmlcore.yaml")
//
// A minimal file:
//
//	rules:
//	  path: ./rules
//	  watch: true
//	functions:
//	  exclude: [string-regexp-match]
//	telemetry:
//	  logging:
//	    level: debug
//	    format: text
//
// # Environment Variable Overrides
//
// Variables follow the convention XACMLCORE_SECTION_FIELD:
//
//   - XACMLCORE_RULES_PATH overrides rules.path
//   - XACMLCORE_FUNCTIONS_EXCLUDE overrides functions.exclude (comma-separated)
//   - XACMLCORE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation, which reports every invalid field at once
//
// Validation combines struct tags checked by go-playground/validator with
// cross-field rules. Errors name fields by their YAML path.
//
// # Process-wide Configuration
//
// The CLI stores the loaded configuration with SetConfig before running a
// command, and commands read it back with GetConfig, which falls back to
// DefaultConfig when nothing was stored.
//
// Library code takes an explicit *Config instead.
package config
