package errors

import (
	"errors"
	"fmt"
	"strings"
)

// StatusCode classifies an Indeterminate result.
type StatusCode string

const (
	// StatusMissingAttribute means a required attribute bag could not be resolved.
	StatusMissingAttribute StatusCode = "urn:oasis:names:tc:xacml:1.0:status:missing-attribute"

	// StatusProcessingError covers evaluation-time failures: type mismatch,
	// arity violations at evaluation, division by zero, index out of range.
	StatusProcessingError StatusCode = "urn:oasis:names:tc:xacml:1.0:status:processing-error"

	// StatusSyntaxError covers construction-time shape/type errors and invalid
	// lexical forms.
	StatusSyntaxError StatusCode = "urn:oasis:names:tc:xacml:1.0:status:syntax-error"
)

// Short returns the last segment of the status code ("processing-error").
func (c StatusCode) Short() string {
	if i := strings.LastIndexByte(string(c), ':'); i >= 0 {
		return string(c)[i+1:]
	}
	return string(c)
}

// Sentinel errors attached as causes so callers can match with errors.Is.
var (
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrArity           = errors.New("invalid number of arguments")
	ErrInvalidLexical  = errors.New("invalid lexical representation")
)

// Indeterminate is the failure outcome of an expression evaluation. It
// replaces a definite value when none can be produced. Causes form a chain
// through Unwrap.
type Indeterminate struct {
	Code    StatusCode
	Message string
	Cause   error
}

// Error returns the message followed by the messages of the cause chain.
func (e *Indeterminate) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Indeterminate) Unwrap() error {
	return e.Cause
}

// New creates an Indeterminate with the given status code.
func New(code StatusCode, format string, args ...interface{}) *Indeterminate {
	return &Indeterminate{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Processing creates a processing-error Indeterminate.
func Processing(format string, args ...interface{}) *Indeterminate {
	return New(StatusProcessingError, format, args...)
}

// Syntax creates a syntax-error Indeterminate.
func Syntax(format string, args ...interface{}) *Indeterminate {
	return New(StatusSyntaxError, format, args...)
}

// MissingAttribute creates a missing-attribute Indeterminate.
func MissingAttribute(format string, args ...interface{}) *Indeterminate {
	return New(StatusMissingAttribute, format, args...)
}

// WithCause sets the cause and returns the receiver.
func (e *Indeterminate) WithCause(cause error) *Indeterminate {
	e.Cause = cause
	return e
}

// Wrap re-wraps err with a message fragment identifying where it happened.
// The status code of err is preserved; errors that are not Indeterminate are
// classified as processing errors.
func Wrap(err error, format string, args ...interface{}) *Indeterminate {
	if err == nil {
		return nil
	}
	return &Indeterminate{
		Code:    CodeOf(err),
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// CodeOf returns the status code of the outermost Indeterminate in the chain
// of err, or StatusProcessingError if there is none.
func CodeOf(err error) StatusCode {
	var ind *Indeterminate
	if errors.As(err, &ind) {
		return ind.Code
	}
	return StatusProcessingError
}

// AsIndeterminate returns err as an Indeterminate, wrapping it as a
// processing error when it is not one already.
func AsIndeterminate(err error) *Indeterminate {
	if err == nil {
		return nil
	}
	var ind *Indeterminate
	if errors.As(err, &ind) {
		return ind
	}
	return &Indeterminate{
		Code:    StatusProcessingError,
		Message: err.Error(),
		Cause:   err,
	}
}

// Chain returns the Indeterminate entries of the cause chain, outermost first.
func Chain(err error) []*Indeterminate {
	var chain []*Indeterminate
	for err != nil {
		if ind, ok := err.(*Indeterminate); ok {
			chain = append(chain, ind)
		}
		err = errors.Unwrap(err)
	}
	return chain
}
