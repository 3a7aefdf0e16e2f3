package pdp

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors
var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrNilRequest indicates Evaluate was called without a request.
	ErrNilRequest = errors.New("request cannot be nil")

	// ErrEngineClosed indicates the engine was used after Close.
	ErrEngineClosed = errors.New("engine is closed")
)

// RequestError indicates a malformed decision request. Cause is a
// syntax-error Indeterminate.
type RequestError struct {
	RequestID string
	Attribute int // index into Request.Attributes, -1 if not attribute-specific
	Cause     error
}

// Error returns the error message.
func (e *RequestError) Error() string {
	if e.Attribute >= 0 {
		return fmt.Sprintf("request %s: attribute %d: %v", e.RequestID, e.Attribute, e.Cause)
	}
	return fmt.Sprintf("request %s: %v", e.RequestID, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// TimeoutError indicates a request evaluation exceeded its deadline.
type TimeoutError struct {
	RequestID string
	RuleSet   string
	RuleID    string
	Timeout   time.Duration
	Cause     error
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s: evaluation stopped before rule %s/%s after %v: %v",
		e.RequestID, e.RuleSet, e.RuleID, e.Timeout, e.Cause)
}

// Unwrap returns the underlying cause, the context error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ValidationError indicates loaded rule sets exceed the engine limits.
type ValidationError struct {
	RuleSet string
	Errors  []string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("rule set %s: validation error: %s", e.RuleSet, e.Errors[0])
	}
	return fmt.Sprintf("rule set %s: %d validation errors: %v", e.RuleSet, len(e.Errors), e.Errors)
}

// ReloadError indicates a rule set reload failure. The previously loaded
// rule sets stay in place.
type ReloadError struct {
	Source string
	Cause  error
}

// Error returns the error message.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("rule set reload failed for %q: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ReloadError) Unwrap() error {
	return e.Cause
}
