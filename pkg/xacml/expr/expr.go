package expr

import (
	"fmt"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Expression is a node of an evaluable expression tree.
type Expression interface {
	// ReturnType returns the datatype of the values the expression produces.
	ReturnType() *value.Datatype

	// Evaluate computes the value of the expression. Failures are
	// Indeterminate errors.
	Evaluate(ctx Context) (value.Value, error)

	// Value returns the result of the expression when it is statically
	// known, for instance for constants.
	Value() (value.Value, bool)
}

// Constant is an expression that always evaluates to the same value.
type Constant struct {
	v value.Value
}

// NewConstant creates a constant expression. v must not be nil.
func NewConstant(v value.Value) *Constant {
	return &Constant{v: v}
}

// ParseConstant parses a lexical value into a constant expression.
func ParseConstant(dt *value.Datatype, lexical string) (*Constant, error) {
	v, err := value.Parse(dt, lexical)
	if err != nil {
		return nil, xerrors.Syntax("invalid constant of datatype %v", dt).WithCause(err)
	}
	return NewConstant(v), nil
}

func (c *Constant) ReturnType() *value.Datatype           { return c.v.Datatype() }
func (c *Constant) Evaluate(Context) (value.Value, error) { return c.v, nil }
func (c *Constant) Value() (value.Value, bool)            { return c.v, true }
func (c *Constant) String() string                        { return c.v.String() }

// AttributeFQN fully qualifies an attribute: category, identifier and an
// optional issuer.
type AttributeFQN struct {
	Category string
	ID       string
	Issuer   string
}

func (a AttributeFQN) String() string {
	if a.Issuer != "" {
		return fmt.Sprintf("%s/%s[issuer=%s]", a.Category, a.ID, a.Issuer)
	}
	return a.Category + "/" + a.ID
}

// Designator references a bag of attribute values resolved from the
// evaluation context.
type Designator struct {
	Attribute     AttributeFQN
	Datatype      *value.Datatype
	MustBePresent bool
}

// NewDesignator creates an attribute designator. dt is the element datatype.
func NewDesignator(attr AttributeFQN, dt *value.Datatype, mustBePresent bool) (*Designator, error) {
	if dt == nil || dt.IsBag() || dt == value.FunctionType {
		return nil, xerrors.Syntax("designator %s: invalid datatype %v", attr, dt)
	}
	if attr.Category == "" || attr.ID == "" {
		return nil, xerrors.Syntax("designator requires a category and an attribute id")
	}
	return &Designator{Attribute: attr, Datatype: dt, MustBePresent: mustBePresent}, nil
}

func (d *Designator) ReturnType() *value.Datatype { return d.Datatype.BagType() }
func (d *Designator) Value() (value.Value, bool)  { return nil, false }

func (d *Designator) Evaluate(ctx Context) (value.Value, error) {
	bag, err := ctx.Resolve(d.Attribute, d.Datatype, d.MustBePresent)
	if err != nil {
		return nil, err
	}
	return bag, nil
}

// VariableReference refers to a named shared expression. The value is
// computed at most once per evaluation context.
type VariableReference struct {
	ID   string
	Expr Expression
}

// NewVariableReference binds a variable identifier to its definition.
func NewVariableReference(id string, def Expression) *VariableReference {
	return &VariableReference{ID: id, Expr: def}
}

func (r *VariableReference) ReturnType() *value.Datatype { return r.Expr.ReturnType() }

// Value exposes the definition's constant so references to constant
// variables take part in constant folding.
func (r *VariableReference) Value() (value.Value, bool) { return r.Expr.Value() }

func (r *VariableReference) Evaluate(ctx Context) (value.Value, error) {
	if v, ok := ctx.Variable(r.ID); ok {
		return v, nil
	}
	v, err := r.Expr.Evaluate(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, "variable %q", r.ID)
	}
	ctx.SetVariable(r.ID, v)
	return v, nil
}
