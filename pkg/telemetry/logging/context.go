package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for decision request IDs.
	RequestIDKey contextKey = "request_id"

	// RuleSetKey is the context key for the rule set being evaluated.
	RuleSetKey contextKey = "rule_set"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRuleSet adds a rule set name to the context.
func WithRuleSet(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, RuleSetKey, name)
}

// GetRuleSet retrieves the rule set name from the context.
func GetRuleSet(ctx context.Context) string {
	if name, ok := ctx.Value(RuleSetKey).(string); ok {
		return name
	}
	return ""
}
