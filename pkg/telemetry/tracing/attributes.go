package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on decision spans.
const (
	AttrRequestID       = "xacml.request_id"
	AttrRuleSets        = "xacml.rule_sets"
	AttrRules           = "xacml.rules"
	AttrPermit          = "xacml.decisions.permit"
	AttrDeny            = "xacml.decisions.deny"
	AttrNotApplicable   = "xacml.decisions.not_applicable"
	AttrIndeterminate   = "xacml.decisions.indeterminate"
	AttrAttributeHits   = "xacml.attributes.cache_hits"
	AttrAttributeMisses = "xacml.attributes.cache_misses"

	AttrErrorMessage = "error.message"
)

// DecisionCounts summarizes the rule decisions of one request.
type DecisionCounts struct {
	Permit        int
	Deny          int
	NotApplicable int
	Indeterminate int
}

// SetDecisionAttributes records the outcome of a decision request on span.
func SetDecisionAttributes(span trace.Span, counts DecisionCounts) {
	span.SetAttributes(
		attribute.Int(AttrRules, counts.Permit+counts.Deny+counts.NotApplicable+counts.Indeterminate),
		attribute.Int(AttrPermit, counts.Permit),
		attribute.Int(AttrDeny, counts.Deny),
		attribute.Int(AttrNotApplicable, counts.NotApplicable),
		attribute.Int(AttrIndeterminate, counts.Indeterminate),
	)
}

// SetCacheAttributes records attribute cache statistics on span.
func SetCacheAttributes(span trace.Span, hits, misses int) {
	span.SetAttributes(
		attribute.Int(AttrAttributeHits, hits),
		attribute.Int(AttrAttributeMisses, misses),
	)
}
