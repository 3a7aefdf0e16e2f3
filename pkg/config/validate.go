package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "rules.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// HasField reports whether any error concerns the given field path.
func (e ValidationError) HasField(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// newValidator creates a validator that reports fields by their yaml names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// Struct tag violations and cross-field rules are collected together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if err := newValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, toFieldError(fe))
		}
	}

	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// toFieldError converts a struct tag violation into a FieldError.
func toFieldError(e validator.FieldError) FieldError {
	// Namespace starts with the root type name.
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	var msg string
	switch e.Tag() {
	case "required":
		msg = "value is required"
	case "oneof":
		msg = fmt.Sprintf("invalid value %q: must be one of: %s", fmt.Sprint(e.Value()), e.Param())
	case "gte":
		msg = fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		msg = fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		msg = fmt.Sprintf("must be greater than %s", e.Param())
	case "hostname_port":
		msg = "must be a valid host:port"
	default:
		msg = fmt.Sprintf("failed validation: %s", e.Tag())
	}
	return FieldError{Field: field, Message: msg}
}

// validateRules validates rule loading configuration.
func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError
	if cfg.Watch && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "rules.path",
			Message: "rules path is required when watch is enabled",
		})
	}
	return errs
}

// validateTelemetry validates cross-field telemetry rules.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "metrics namespace is required when metrics are enabled",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}

	return errs
}
