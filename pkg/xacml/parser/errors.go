package parser

import (
	"fmt"
	"strings"
)

// ErrorType categorizes the type of error encountered while loading a
// document.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"     // YAML syntax error
	ErrorTypeStructural ErrorType = "structural" // Missing or malformed fields
	ErrorTypeSemantic   ErrorType = "semantic"   // Unknown function, datatype or variable; type mismatch
	ErrorTypeIO         ErrorType = "io"         // File I/O error
)

// Location is a position in a source document.
type Location struct {
	File   string // Source path or name
	Line   int    // 1-based
	Column int    // 1-based
}

// String returns "file:line:column".
func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsValid returns true if the location has file and line information.
func (l Location) IsValid() bool {
	return l.File != "" && l.Line > 0
}

// Error is a located load error.
type Error struct {
	Type       ErrorType
	Message    string
	Location   Location
	Context    string // surrounding source lines
	Suggestion string

	// Cause is the underlying error, typically an Indeterminate raised
	// while constructing a function call.
	Cause error
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", e.Type, e.Message)
	if e.Location.IsValid() {
		fmt.Fprintf(&sb, "  --> %s\n", e.Location)
	}
	if e.Context != "" {
		sb.WriteString("  |\n")
		sb.WriteString(e.Context)
		sb.WriteString("  |\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, "  = suggestion: %s\n", e.Suggestion)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrorList accumulates every error found in a document instead of stopping
// at the first one.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList creates an empty error list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error to the list.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError creates and adds a new error.
func (el *ErrorList) AddError(errType ErrorType, message string, location Location) {
	el.Add(&Error{Type: errType, Message: message, Location: location})
}

// HasErrors returns true if the list contains any errors.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of errors in the list.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	if len(el.Errors) == 1 {
		return el.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d error(s):\n\n", el.Count())
	for i, err := range el.Errors {
		fmt.Fprintf(&sb, "Error %d:\n", i+1)
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (el *ErrorList) Unwrap() []error {
	errs := make([]error, len(el.Errors))
	for i, e := range el.Errors {
		errs[i] = e
	}
	return errs
}

// ToError returns nil if the list is empty, otherwise the list itself.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}

// ByType returns all errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var result []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			result = append(result, err)
		}
	}
	return result
}

// HasErrorType returns true if the list contains at least one error of the
// given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	return len(el.ByType(errType)) > 0
}
