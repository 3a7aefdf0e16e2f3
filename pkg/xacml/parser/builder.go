package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/function"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Expression node keys. Exactly one of them identifies the node kind.
const (
	keyValue      = "value"
	keyBag        = "bag"
	keyDesignator = "designator"
	keyVariable   = "variable"
	keyFunction   = "function"
	keyApply      = "apply"
)

var expressionKinds = []string{keyValue, keyBag, keyDesignator, keyVariable, keyFunction, keyApply}

// Keys allowed next to each kind key.
var companionKeys = map[string][]string{
	keyValue: {"datatype"},
	keyBag:   {"datatype"},
	keyApply: {"args"},
}

// builder turns YAML nodes into expression trees. Every problem is recorded
// in errors; building continues so one pass reports as much as possible.
type builder struct {
	source   string
	registry *function.Registry
	maxDepth int
	errors   *ErrorList

	varNodes map[string]*yaml.Node
	varOrder []string
	vars     map[string]*expr.VariableReference
	failed   map[string]bool
	building map[string]bool
}

func newBuilder(source string, registry *function.Registry, maxDepth int) *builder {
	return &builder{
		source:   source,
		registry: registry,
		maxDepth: maxDepth,
		errors:   NewErrorList(),
		varNodes: make(map[string]*yaml.Node),
		vars:     make(map[string]*expr.VariableReference),
		failed:   make(map[string]bool),
		building: make(map[string]bool),
	}
}

func (b *builder) location(node *yaml.Node) Location {
	if node == nil {
		return Location{File: b.source}
	}
	return Location{File: b.source, Line: node.Line, Column: node.Column}
}

func (b *builder) fail(errType ErrorType, node *yaml.Node, format string, args ...any) *Error {
	e := &Error{Type: errType, Message: fmt.Sprintf(format, args...), Location: b.location(node)}
	b.errors.Add(e)
	return e
}

func (b *builder) buildPolicy(doc *yamlDocument) (*Policy, error) {
	policy := &Policy{
		Name:        doc.Name,
		Description: doc.Description,
		Source:      b.source,
	}
	if policy.Name == "" {
		policy.Name = strings.TrimSuffix(filepath.Base(b.source), filepath.Ext(b.source))
	}

	b.collectVariables(&doc.Variables)
	for _, name := range b.varOrder {
		if ref, ok := b.variable(name, b.varNodes[name]); ok {
			policy.Variables = append(policy.Variables, ref)
		}
	}

	rules := deref(&doc.Rules)
	switch {
	case !isSet(rules) || rules.Tag == "!!null":
	case rules.Kind != yaml.SequenceNode:
		b.fail(ErrorTypeStructural, rules, "rules must be a list")
	default:
		seen := make(map[string]bool)
		for i, node := range rules.Content {
			rule, ok := b.buildRule(deref(node), i)
			if !ok {
				continue
			}
			if seen[rule.ID] {
				b.fail(ErrorTypeStructural, node, "duplicate rule id %q", rule.ID)
				continue
			}
			seen[rule.ID] = true
			policy.Rules = append(policy.Rules, rule)
		}
	}

	if b.errors.HasErrors() {
		return nil, b.errors
	}
	return policy, nil
}

func (b *builder) collectVariables(node *yaml.Node) {
	node = deref(node)
	if !isSet(node) || node.Tag == "!!null" {
		return
	}
	if node.Kind != yaml.MappingNode {
		b.fail(ErrorTypeStructural, node, "variables must be a mapping of names to expressions")
		return
	}
	for _, e := range mappingEntries(node) {
		name := e.key.Value
		if _, dup := b.varNodes[name]; dup {
			b.fail(ErrorTypeStructural, e.key, "duplicate variable %q", name)
			continue
		}
		b.varNodes[name] = e.value
		b.varOrder = append(b.varOrder, name)
	}
}

// variable builds a variable definition on first use. Definitions may refer
// to other variables in any order; cycles are rejected.
func (b *builder) variable(name string, at *yaml.Node) (*expr.VariableReference, bool) {
	if ref, ok := b.vars[name]; ok {
		return ref, true
	}
	if b.failed[name] {
		return nil, false
	}
	def, ok := b.varNodes[name]
	if !ok {
		e := b.fail(ErrorTypeSemantic, at, "undefined variable %q", name)
		e.Suggestion = suggest(name, b.varOrder)
		return nil, false
	}
	if b.building[name] {
		b.fail(ErrorTypeSemantic, at, "variable %q is defined in terms of itself", name)
		b.failed[name] = true
		return nil, false
	}

	b.building[name] = true
	e, ok := b.build(def, 0)
	delete(b.building, name)
	if !ok {
		b.failed[name] = true
		return nil, false
	}
	ref := expr.NewVariableReference(name, e)
	b.vars[name] = ref
	return ref, true
}

func (b *builder) buildRule(node *yaml.Node, index int) (*Rule, bool) {
	if node.Kind != yaml.MappingNode {
		b.fail(ErrorTypeStructural, node, "rule at index %d must be a mapping", index)
		return nil, false
	}
	if !b.checkKeys(node, ruleFields) {
		return nil, false
	}
	var yr yamlRule
	if err := node.Decode(&yr); err != nil {
		b.fail(ErrorTypeStructural, node, "invalid rule at index %d: %v", index, err)
		return nil, false
	}

	rule := &Rule{
		ID:          yr.ID,
		Description: yr.Description,
		Enabled:     yr.Enabled == nil || *yr.Enabled,
		Location:    b.location(node),
	}
	ok := true
	if rule.ID == "" {
		e := b.fail(ErrorTypeStructural, node, "rule at index %d has no id", index)
		e.Suggestion = "Add 'id: <rule-name>' to the rule"
		ok = false
	}
	switch {
	case strings.EqualFold(yr.Effect, string(EffectPermit)):
		rule.Effect = EffectPermit
	case strings.EqualFold(yr.Effect, string(EffectDeny)):
		rule.Effect = EffectDeny
	default:
		e := b.fail(ErrorTypeStructural, node, "rule %q: invalid effect %q", rule.ID, yr.Effect)
		e.Suggestion = "Use 'effect: Permit' or 'effect: Deny'"
		ok = false
	}

	cond := deref(&yr.Condition)
	if isSet(cond) && cond.Tag != "!!null" {
		c, built := b.buildCondition(cond)
		if built {
			rule.Condition = c
		}
		ok = ok && built
	}
	return rule, ok
}

// buildCondition builds a rule condition. A list of expressions is an
// implicit conjunction.
func (b *builder) buildCondition(node *yaml.Node) (expr.Expression, bool) {
	var (
		cond expr.Expression
		ok   bool
	)
	if node.Kind == yaml.SequenceNode {
		cond, ok = b.buildApply(node, function.AndID, node.Content, 0)
	} else {
		cond, ok = b.build(node, 0)
	}
	if !ok {
		return nil, false
	}
	if cond.ReturnType() != value.BooleanType {
		b.fail(ErrorTypeSemantic, node, "condition must return boolean, got %s", cond.ReturnType().Short())
		return nil, false
	}
	return cond, true
}

// checkKeys reports mapping keys outside allowed.
func (b *builder) checkKeys(node *yaml.Node, allowed []string) bool {
	ok := true
	for _, e := range mappingEntries(node) {
		if !contains(allowed, e.key.Value) {
			err := b.fail(ErrorTypeStructural, e.key, "unknown field %q", e.key.Value)
			err.Suggestion = suggest(e.key.Value, allowed)
			ok = false
		}
	}
	return ok
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// build builds the expression at node. depth counts enclosing applications.
func (b *builder) build(node *yaml.Node, depth int) (expr.Expression, bool) {
	node = deref(node)
	switch node.Kind {
	case yaml.ScalarNode:
		return b.buildScalar(node)
	case yaml.MappingNode:
	default:
		b.fail(ErrorTypeStructural, node, "expected an expression, got a list")
		return nil, false
	}

	fields := make(map[string]*yaml.Node)
	kind := ""
	for _, e := range mappingEntries(node) {
		fields[e.key.Value] = e.value
		if contains(expressionKinds, e.key.Value) {
			if kind != "" {
				b.fail(ErrorTypeStructural, e.key, "expression has both %q and %q", kind, e.key.Value)
				return nil, false
			}
			kind = e.key.Value
		}
	}
	if kind == "" {
		e := b.fail(ErrorTypeStructural, node, "expression has none of the fields %s", strings.Join(expressionKinds, ", "))
		if len(node.Content) > 0 {
			e.Suggestion = suggest(node.Content[0].Value, expressionKinds)
		}
		return nil, false
	}
	if !b.checkKeys(node, append([]string{kind}, companionKeys[kind]...)) {
		return nil, false
	}

	switch kind {
	case keyValue:
		return b.buildValue(fields[keyValue], fields["datatype"])
	case keyBag:
		return b.buildBag(fields[keyBag], fields["datatype"])
	case keyDesignator:
		return b.buildDesignator(fields[keyDesignator])
	case keyVariable:
		name, ok := b.scalar(fields[keyVariable], "variable name")
		if !ok {
			return nil, false
		}
		ref, ok := b.variable(name, fields[keyVariable])
		if !ok {
			return nil, false
		}
		return ref, true
	case keyFunction:
		return b.buildRef(fields[keyFunction])
	default:
		name, ok := b.scalar(fields[keyApply], "function identifier")
		if !ok {
			return nil, false
		}
		var args []*yaml.Node
		if argsNode := fields["args"]; argsNode != nil && argsNode.Tag != "!!null" {
			if argsNode.Kind != yaml.SequenceNode {
				b.fail(ErrorTypeStructural, argsNode, "args must be a list")
				return nil, false
			}
			args = argsNode.Content
		}
		return b.buildApply(fields[keyApply], name, args, depth)
	}
}

func (b *builder) scalar(node *yaml.Node, what string) (string, bool) {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" || node.Value == "" {
		b.fail(ErrorTypeStructural, node, "%s must be a non-empty scalar", what)
		return "", false
	}
	return node.Value, true
}

// buildScalar builds a constant from a bare scalar, typed by its YAML tag.
func (b *builder) buildScalar(node *yaml.Node) (expr.Expression, bool) {
	dt := value.StringType
	switch node.Tag {
	case "!!bool":
		dt = value.BooleanType
	case "!!int":
		dt = value.IntegerType
	case "!!float":
		dt = value.DoubleType
	case "!!null":
		b.fail(ErrorTypeStructural, node, "expected an expression, got null")
		return nil, false
	}
	return b.constant(node, dt)
}

func (b *builder) datatype(node *yaml.Node) (*value.Datatype, bool) {
	if node == nil {
		return value.StringType, true
	}
	name, ok := b.scalar(node, "datatype")
	if !ok {
		return nil, false
	}
	dt, found := value.LookupDatatype(name)
	if !found || dt.IsBag() {
		e := b.fail(ErrorTypeSemantic, node, "unknown datatype %q", name)
		e.Suggestion = suggest(name, primitiveNames())
		return nil, false
	}
	return dt, true
}

func primitiveNames() []string {
	var names []string
	for _, dt := range value.Primitives() {
		names = append(names, dt.Short())
	}
	return names
}

func (b *builder) constant(node *yaml.Node, dt *value.Datatype) (expr.Expression, bool) {
	c, err := expr.ParseConstant(dt, node.Value)
	if err != nil {
		e := b.fail(ErrorTypeSemantic, node, "invalid %s value %q", dt.Short(), node.Value)
		e.Cause = err
		return nil, false
	}
	return c, true
}

func (b *builder) buildValue(node, dtNode *yaml.Node) (expr.Expression, bool) {
	dt, ok := b.datatype(dtNode)
	if !ok {
		return nil, false
	}
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		b.fail(ErrorTypeStructural, node, "value must be a scalar")
		return nil, false
	}
	return b.constant(node, dt)
}

func (b *builder) buildBag(node, dtNode *yaml.Node) (expr.Expression, bool) {
	dt, ok := b.datatype(dtNode)
	if !ok {
		return nil, false
	}
	if node.Kind != yaml.SequenceNode {
		b.fail(ErrorTypeStructural, node, "bag must be a list of values")
		return nil, false
	}
	values := make([]value.Value, 0, len(node.Content))
	for _, item := range node.Content {
		item = deref(item)
		if item.Kind != yaml.ScalarNode {
			b.fail(ErrorTypeStructural, item, "bag values must be scalars")
			return nil, false
		}
		v, err := value.Parse(dt, item.Value)
		if err != nil {
			e := b.fail(ErrorTypeSemantic, item, "invalid %s value %q", dt.Short(), item.Value)
			e.Cause = err
			return nil, false
		}
		values = append(values, v)
	}
	bag, err := value.NewBag(dt, values...)
	if err != nil {
		b.fail(ErrorTypeSemantic, node, "invalid bag: %v", err).Cause = err
		return nil, false
	}
	return expr.NewConstant(bag), true
}

func (b *builder) buildDesignator(node *yaml.Node) (expr.Expression, bool) {
	if node.Kind != yaml.MappingNode {
		b.fail(ErrorTypeStructural, node, "designator must be a mapping")
		return nil, false
	}
	if !b.checkKeys(node, designatorFields) {
		return nil, false
	}
	var yd yamlDesignator
	if err := node.Decode(&yd); err != nil {
		b.fail(ErrorTypeStructural, node, "invalid designator: %v", err)
		return nil, false
	}

	dt := value.StringType
	if yd.Datatype != "" {
		var found bool
		if dt, found = value.LookupDatatype(yd.Datatype); !found || dt.IsBag() {
			e := b.fail(ErrorTypeSemantic, node, "unknown datatype %q", yd.Datatype)
			e.Suggestion = suggest(yd.Datatype, primitiveNames())
			return nil, false
		}
	}
	attr := expr.AttributeFQN{Category: ExpandCategory(yd.Category), ID: yd.ID, Issuer: yd.Issuer}
	d, err := expr.NewDesignator(attr, dt, yd.MustBePresent)
	if err != nil {
		b.fail(ErrorTypeStructural, node, "invalid designator: %v", err).Cause = err
		return nil, false
	}
	return d, true
}

// resolveFunctionID accepts full identifiers and, for convenience, names
// without the standard prefix ("string-equal").
func (b *builder) resolveFunctionID(name string) string {
	known := func(id string) bool {
		_, ok := b.registry.Lookup(id)
		return ok || b.registry.IsGeneric(id)
	}
	if known(name) || strings.Contains(name, ":") {
		return name
	}
	for _, prefix := range []string{function.V3, function.V2, function.V1} {
		if known(prefix + name) {
			return prefix + name
		}
	}
	return name
}

func (b *builder) unknownFunction(node *yaml.Node, name string) {
	e := b.fail(ErrorTypeSemantic, node, "unknown function %q", name)
	e.Cause = function.ErrUnknownFunction
	short := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(name, function.V1), function.V2), function.V3)
	var candidates []string
	for _, id := range b.registry.IDs() {
		candidates = append(candidates, id[strings.LastIndexByte(id, ':')+1:])
	}
	e.Suggestion = suggest(short, candidates)
}

func (b *builder) buildRef(node *yaml.Node) (expr.Expression, bool) {
	name, ok := b.scalar(node, "function identifier")
	if !ok {
		return nil, false
	}
	id := b.resolveFunctionID(name)
	fn, found := b.registry.Lookup(id)
	if !found {
		if b.registry.IsGeneric(id) {
			b.fail(ErrorTypeSemantic, node, "generic function %q cannot be passed as a function reference", id)
			return nil, false
		}
		b.unknownFunction(node, name)
		return nil, false
	}
	return function.NewRef(fn), true
}

func (b *builder) buildApply(node *yaml.Node, name string, argNodes []*yaml.Node, depth int) (expr.Expression, bool) {
	if depth >= b.maxDepth {
		b.fail(ErrorTypeStructural, node, "expression nesting exceeds the maximum depth %d", b.maxDepth)
		return nil, false
	}

	args := make([]expr.Expression, 0, len(argNodes))
	ok := true
	for _, n := range argNodes {
		arg, built := b.build(n, depth+1)
		if !built {
			ok = false
			continue
		}
		args = append(args, arg)
	}
	if !ok {
		return nil, false
	}

	id := b.resolveFunctionID(name)
	fn, found := b.registry.Lookup(id)
	if !found && b.registry.IsGeneric(id) {
		var ref *function.Ref
		if len(args) > 0 {
			ref, _ = args[0].(*function.Ref)
		}
		if ref == nil {
			b.fail(ErrorTypeSemantic, node, "generic function %q requires a function reference as first argument", id)
			return nil, false
		}
		if fn, found = b.registry.LookupGeneric(id, ref.Function().ReturnType()); !found {
			b.fail(ErrorTypeSemantic, node, "generic function %q cannot be applied to %s", id, ref.Function().ID())
			return nil, false
		}
	}
	if !found {
		b.unknownFunction(node, name)
		return nil, false
	}

	call, err := fn.NewCall(args)
	if err != nil {
		b.fail(ErrorTypeSemantic, node, "%v", err).Cause = err
		return nil, false
	}
	return call, true
}
