package parser

import (
	"errors"
	"fmt"
	"os"

	"mercator-hq/xacmlcore/pkg/xacml/function"
)

// Parser loads rule documents, resolving functions and datatypes against a
// registry. A Parser is safe for concurrent use once configured.
type Parser struct {
	registry *function.Registry

	maxFileSize int64 // default: 10MB
	maxDepth    int   // maximum nesting of function applications (default: 32)
}

// NewParser creates a parser using the given function registry.
func NewParser(registry *function.Registry) *Parser {
	return &Parser{
		registry:    registry,
		maxFileSize: 10 * 1024 * 1024,
		maxDepth:    32,
	}
}

// WithMaxFileSize sets the maximum document size in bytes.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum nesting depth of function applications.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse loads the document at path.
func (p *Parser) Parse(path string) (*Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to access file: %v", err),
			Location: Location{File: path},
			Cause:    err,
		}
	}
	if info.Size() > p.maxFileSize {
		return nil, p.tooLarge(info.Size(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{
			Type:     ErrorTypeIO,
			Message:  fmt.Sprintf("Failed to read file: %v", err),
			Location: Location{File: path},
			Cause:    err,
		}
	}
	return p.ParseBytes(data, path)
}

// ParseBytes loads a document from memory. source names the document in
// error locations.
func (p *Parser) ParseBytes(data []byte, source string) (*Policy, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, p.tooLarge(int64(len(data)), source)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		e := &Error{
			Type:       ErrorTypeSyntax,
			Message:    fmt.Sprintf("YAML parsing failed: %v", err),
			Location:   Location{File: source, Line: 1, Column: 1},
			Suggestion: "Check YAML syntax (indentation, colons, quotes)",
			Cause:      err,
		}
		if errors.Is(err, errEmptyDocument) {
			e.Suggestion = "Add a 'rules' list to the document"
		}
		return nil, e
	}

	b := newBuilder(source, p.registry, p.maxDepth)
	policy, err := b.buildPolicy(doc)
	if err != nil {
		addContext(b.errors, data)
		return nil, err
	}
	return policy, nil
}

// ParseMulti loads several documents, stopping at the first failure.
func (p *Parser) ParseMulti(paths []string) ([]*Policy, error) {
	if len(paths) == 0 {
		return nil, &Error{Type: ErrorTypeIO, Message: "No rule files provided"}
	}
	policies := make([]*Policy, 0, len(paths))
	for _, path := range paths {
		policy, err := p.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

func (p *Parser) tooLarge(size int64, source string) *Error {
	return &Error{
		Type:     ErrorTypeIO,
		Message:  fmt.Sprintf("File size %d exceeds maximum %d bytes", size, p.maxFileSize),
		Location: Location{File: source},
	}
}
