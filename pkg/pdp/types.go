package pdp

import (
	"time"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
)

// RuleSet is a loaded rule document.
type RuleSet = parser.Policy

// Decision is the outcome of evaluating one rule.
type Decision string

const (
	// DecisionPermit means the rule applies with effect Permit.
	DecisionPermit Decision = "Permit"

	// DecisionDeny means the rule applies with effect Deny.
	DecisionDeny Decision = "Deny"

	// DecisionNotApplicable means the rule's condition is false.
	DecisionNotApplicable Decision = "NotApplicable"

	// DecisionIndeterminate means the rule's condition could not be
	// evaluated. The Status says why.
	DecisionIndeterminate Decision = "Indeterminate"
)

// Request is a decision request: the attributes the rules are evaluated
// against.
type Request struct {
	// ID identifies the request in logs and traces. A random ID is assigned
	// when empty.
	ID string `yaml:"id" json:"id,omitempty"`

	// Attributes carries the request attributes.
	Attributes []Attribute `yaml:"attributes" json:"attributes"`
}

// Attribute is one request attribute with its values in lexical form.
type Attribute struct {
	// Category is a category URI or one of the short aliases
	// (access-subject, resource, action, environment).
	Category string `yaml:"category" json:"category"`

	// ID is the attribute identifier.
	ID string `yaml:"id" json:"id"`

	// Issuer optionally names who asserted the attribute.
	Issuer string `yaml:"issuer,omitempty" json:"issuer,omitempty"`

	// Datatype is a datatype URI or short name. Default: string.
	Datatype string `yaml:"datatype,omitempty" json:"datatype,omitempty"`

	// Values are lexical forms of the attribute values.
	Values []string `yaml:"values" json:"values"`
}

// Status describes an Indeterminate decision.
type Status struct {
	// Code is the status code URI.
	Code xerrors.StatusCode `json:"code"`

	// Message is the full error chain message.
	Message string `json:"message"`

	// Origin is the message of the innermost Indeterminate, where the
	// failure started.
	Origin string `json:"origin,omitempty"`
}

// RuleDecision is the result of one rule.
type RuleDecision struct {
	// RuleSet is the name of the rule set the rule belongs to.
	RuleSet string `json:"rule_set"`

	// RuleID is the identifier of the rule.
	RuleID string `json:"rule_id"`

	// Decision is the rule outcome.
	Decision Decision `json:"decision"`

	// Status is set only for DecisionIndeterminate.
	Status *Status `json:"status,omitempty"`

	// EvaluationTime is the time taken to evaluate this rule.
	EvaluationTime time.Duration `json:"evaluation_time"`
}

// Response holds the decision of every enabled rule, in rule set order and
// then document order. Decisions are not combined.
type Response struct {
	// RequestID is the ID of the request, generated if the request had none.
	RequestID string `json:"request_id"`

	// Decisions contains one entry per evaluated rule.
	Decisions []*RuleDecision `json:"decisions"`

	// EvaluationTime is the total time taken to evaluate the request.
	EvaluationTime time.Duration `json:"evaluation_time"`

	// Trace contains detailed evaluation steps (if enabled).
	Trace *EvaluationTrace `json:"trace,omitempty"`
}

// Decision returns the decision of a rule, or nil if the rule was not
// evaluated.
func (r *Response) Decision(ruleSet, ruleID string) *RuleDecision {
	for _, d := range r.Decisions {
		if d.RuleSet == ruleSet && d.RuleID == ruleID {
			return d
		}
	}
	return nil
}

// Count returns how many rules produced decision.
func (r *Response) Count(decision Decision) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Decision == decision {
			n++
		}
	}
	return n
}

// EvaluationTrace records the steps of one evaluation for debugging.
type EvaluationTrace struct {
	// Steps in evaluation order.
	Steps []TraceStep `json:"steps"`

	// TotalTime is the total evaluation time.
	TotalTime time.Duration `json:"total_time"`
}

// TraceStep is one evaluation step.
type TraceStep struct {
	// Type is the step type ("rule_set_start", "rule_eval", "rule_set_end").
	Type string `json:"type"`

	// RuleSet is the rule set being evaluated.
	RuleSet string `json:"rule_set"`

	// RuleID is the rule being evaluated, if any.
	RuleID string `json:"rule_id,omitempty"`

	// Message describes the step.
	Message string `json:"message"`

	// Duration is the time the step took.
	Duration time.Duration `json:"duration"`
}

// addStep appends a step. It does nothing when tracing is disabled.
func (t *EvaluationTrace) addStep(stepType, ruleSet, ruleID, message string, duration time.Duration) {
	if t == nil {
		return
	}
	t.Steps = append(t.Steps, TraceStep{
		Type:     stepType,
		RuleSet:  ruleSet,
		RuleID:   ruleID,
		Message:  message,
		Duration: duration,
	})
}
