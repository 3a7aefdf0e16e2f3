package parser

import "mercator-hq/xacmlcore/pkg/xacml/expr"

// Effect is the decision a rule yields when its condition holds.
type Effect string

const (
	EffectPermit Effect = "Permit"
	EffectDeny   Effect = "Deny"
)

// Policy is a loaded rule document. Its expressions are immutable and may be
// evaluated concurrently, each evaluation with its own context.
type Policy struct {
	Name        string
	Description string
	Source      string

	// Variables in definition order.
	Variables []*expr.VariableReference

	Rules []*Rule
}

// Rule pairs an effect with an optional boolean condition.
type Rule struct {
	ID          string
	Description string
	Effect      Effect
	Enabled     bool

	// Condition is nil when the rule applies unconditionally.
	Condition expr.Expression

	Location Location
}

// Rule returns the rule with the given identifier.
func (p *Policy) Rule(id string) (*Rule, bool) {
	for _, r := range p.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// EnabledRules returns the rules that take part in evaluation.
func (p *Policy) EnabledRules() []*Rule {
	rules := make([]*Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		if r.Enabled {
			rules = append(rules, r)
		}
	}
	return rules
}
