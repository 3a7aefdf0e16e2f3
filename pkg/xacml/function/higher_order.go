package function

import (
	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Higher-order function identifiers.
const (
	AnyOfID    = V3 + "any-of"
	AllOfID    = V3 + "all-of"
	AnyOfAnyID = V3 + "any-of-any"
	AllOfAnyID = V1 + "all-of-any"
	AnyOfAllID = V1 + "any-of-all"
	AllOfAllID = V1 + "all-of-all"
	MapID      = V3 + "map"
)

type hofKind int

const (
	kindAnyOf hofKind = iota
	kindAllOf
	kindMap
	kindAnyOfAny
	kindAllOfAny
	kindAnyOfAll
	kindAllOfAll
)

// higherOrder applies a sub-function, passed as a function reference in the
// first argument, to the elements of bag arguments.
type higherOrder struct {
	id   string
	kind hofKind

	// ret is the function result: boolean, or a bag for map
	ret *value.Datatype

	// subReturn is the required sub-function result datatype
	subReturn *value.Datatype
}

func (h *higherOrder) ID() string                  { return h.id }
func (h *higherOrder) ReturnType() *value.Datatype { return h.ret }

func (h *higherOrder) NewCall(args []expr.Expression, remaining ...*value.Datatype) (Call, error) {
	if len(remaining) > 0 {
		return nil, xerrors.Syntax("%s: trailing arguments are not supported", h.id).WithCause(xerrors.ErrArity)
	}
	if len(args) < 2 {
		return nil, xerrors.Syntax("%s: expected at least 2 arguments, got %d", h.id, len(args)).WithCause(xerrors.ErrArity)
	}
	ref, ok := args[0].(*Ref)
	if !ok {
		return nil, xerrors.Syntax("%s: arg #0: expected a function reference, got %s", h.id, shortName(args[0].ReturnType())).
			WithCause(xerrors.ErrTypeMismatch)
	}
	sub := ref.Function()
	if !sub.ReturnType().Equal(h.subReturn) {
		return nil, xerrors.Syntax("%s: sub-function %s returns %s, expected %s",
			h.id, sub.ID(), shortName(sub.ReturnType()), h.subReturn.Short()).WithCause(xerrors.ErrTypeMismatch)
	}

	switch h.kind {
	case kindAnyOf, kindAllOf, kindMap:
		return h.newOneBagCall(sub, args)
	case kindAnyOfAny:
		return h.newCrossCall(sub, args)
	default:
		return h.newTwoBagCall(sub, args)
	}
}

func (h *higherOrder) newOneBagCall(sub Function, args []expr.Expression) (Call, error) {
	last := len(args) - 1
	bagType := args[last].ReturnType()
	if !bagType.IsBag() {
		return nil, xerrors.Syntax("%s: arg #%d: expected a bag, got %s", h.id, last, bagType.Short()).
			WithCause(xerrors.ErrTypeMismatch)
	}
	primitives := args[1:last]
	for i, a := range primitives {
		if t := a.ReturnType(); t.IsBag() || t == value.FunctionType {
			return nil, xerrors.Syntax("%s: arg #%d: expected a primitive value, got %s", h.id, i+1, t.Short()).
				WithCause(xerrors.ErrTypeMismatch)
		}
	}
	subCall, err := sub.NewCall(primitives, bagType.ElementType())
	if err != nil {
		return nil, xerrors.Wrap(err, "%s: invalid sub-function application", h.id)
	}
	return &oneBagCall{hofCall: hofCall{fn: h, args: args}, sub: subCall, bag: args[last], bagPos: last}, nil
}

func (h *higherOrder) newTwoBagCall(sub Function, args []expr.Expression) (Call, error) {
	if len(args) != 3 {
		return nil, xerrors.Syntax("%s: expected 3 arguments, got %d", h.id, len(args)).WithCause(xerrors.ErrArity)
	}
	for i := 1; i <= 2; i++ {
		if t := args[i].ReturnType(); !t.IsBag() {
			return nil, xerrors.Syntax("%s: arg #%d: expected a bag, got %s", h.id, i, t.Short()).
				WithCause(xerrors.ErrTypeMismatch)
		}
	}
	subCall, err := sub.NewCall(nil, args[1].ReturnType().ElementType(), args[2].ReturnType().ElementType())
	if err != nil {
		return nil, xerrors.Wrap(err, "%s: invalid sub-function application", h.id)
	}
	return &twoBagCall{hofCall: hofCall{fn: h, args: args}, sub: subCall}, nil
}

func (h *higherOrder) newCrossCall(sub Function, args []expr.Expression) (Call, error) {
	types := make([]*value.Datatype, 0, len(args)-1)
	for i, a := range args[1:] {
		t := a.ReturnType()
		switch {
		case t == value.FunctionType:
			return nil, xerrors.Syntax("%s: arg #%d: unexpected function reference", h.id, i+1).
				WithCause(xerrors.ErrTypeMismatch)
		case t.IsBag():
			types = append(types, t.ElementType())
		default:
			types = append(types, t)
		}
	}
	subCall, err := sub.NewCall(nil, types...)
	if err != nil {
		return nil, xerrors.Wrap(err, "%s: invalid sub-function application", h.id)
	}
	return &crossCall{hofCall: hofCall{fn: h, args: args}, sub: subCall}, nil
}

// hofCall holds what every higher-order call shares.
type hofCall struct {
	fn   *higherOrder
	args []expr.Expression
}

func (c *hofCall) ReturnType() *value.Datatype { return c.fn.ret }
func (c *hofCall) Value() (value.Value, bool)  { return nil, false }
func (c *hofCall) FunctionID() string          { return c.fn.id }
func (c *hofCall) Args() []expr.Expression     { return c.args }

func (c *hofCall) noTrailing(trailing []value.Value) error {
	return checkTrailing(c.fn.id, nil, trailing)
}

func (c *hofCall) evalBag(ctx expr.Context, pos int) (*value.Bag, error) {
	v, err := c.args[pos].Evaluate(ctx)
	if err != nil {
		return nil, argError(c.fn.id, pos, err)
	}
	bag, err := value.As[*value.Bag](v)
	if err != nil {
		return nil, argError(c.fn.id, pos, err)
	}
	return bag, nil
}

// apply evaluates the boolean sub-function with trailing values.
func (c *hofCall) apply(ctx expr.Context, sub Call, values ...value.Value) (bool, error) {
	v, err := sub.EvaluateWith(ctx, values...)
	if err != nil {
		return false, err
	}
	b, err := value.As[value.Boolean](v)
	if err != nil {
		return false, err
	}
	return bool(b), nil
}

type oneBagCall struct {
	hofCall
	sub    Call
	bag    expr.Expression
	bagPos int
}

func (c *oneBagCall) Evaluate(ctx expr.Context) (value.Value, error) {
	return c.EvaluateWith(ctx)
}

func (c *oneBagCall) EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := c.noTrailing(trailing); err != nil {
		return nil, err
	}
	bag, err := c.evalBag(ctx, c.bagPos)
	if err != nil {
		return nil, err
	}

	if c.fn.kind == kindMap {
		results := make([]value.Value, 0, bag.Len())
		for i, elem := range bag.Values() {
			v, err := c.sub.EvaluateWith(ctx, elem)
			if err != nil {
				return nil, xerrors.Wrap(err, "%s: sub-function failed on bag element #%d", c.fn.id, i)
			}
			results = append(results, v)
		}
		out, err := value.NewBag(c.fn.subReturn, results...)
		if err != nil {
			return nil, xerrors.Wrap(err, "%s", c.fn.id)
		}
		return out, nil
	}

	// any-of stops at the first true result, all-of at the first false one.
	stopOn := c.fn.kind == kindAnyOf
	for i, elem := range bag.Values() {
		ok, err := c.apply(ctx, c.sub, elem)
		if err != nil {
			return nil, xerrors.Wrap(err, "%s: sub-function failed on bag element #%d", c.fn.id, i)
		}
		if ok == stopOn {
			return value.Boolean(stopOn), nil
		}
	}
	return value.Boolean(!stopOn), nil
}

type twoBagCall struct {
	hofCall
	sub Call
}

func (c *twoBagCall) Evaluate(ctx expr.Context) (value.Value, error) {
	return c.EvaluateWith(ctx)
}

func (c *twoBagCall) EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := c.noTrailing(trailing); err != nil {
		return nil, err
	}
	first, err := c.evalBag(ctx, 1)
	if err != nil {
		return nil, err
	}
	second, err := c.evalBag(ctx, 2)
	if err != nil {
		return nil, err
	}
	if first.IsEmpty() || second.IsEmpty() {
		return value.False, nil
	}

	// outerAll: the predicate must hold for every element of the first bag;
	// innerAll: for a given element, it must hold against every element of
	// the second bag rather than at least one.
	var outerAll, innerAll bool
	switch c.fn.kind {
	case kindAllOfAny:
		outerAll, innerAll = true, false
	case kindAnyOfAll:
		outerAll, innerAll = false, true
	case kindAllOfAll:
		outerAll, innerAll = true, true
	}

	for i, a := range first.Values() {
		inner := innerAll
		for j, b := range second.Values() {
			ok, err := c.apply(ctx, c.sub, a, b)
			if err != nil {
				return nil, xerrors.Wrap(err, "%s: sub-function failed on elements #%d and #%d", c.fn.id, i, j)
			}
			if ok != innerAll {
				inner = ok
				break
			}
		}
		if inner != outerAll {
			return value.Boolean(inner), nil
		}
	}
	return value.Boolean(outerAll), nil
}

// crossCall implements any-of-any: the sub-function is applied to the cross
// product of the arguments, bags contributing each of their elements, until
// one combination yields true.
type crossCall struct {
	hofCall
	sub Call
}

func (c *crossCall) Evaluate(ctx expr.Context) (value.Value, error) {
	return c.EvaluateWith(ctx)
}

func (c *crossCall) EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := c.noTrailing(trailing); err != nil {
		return nil, err
	}
	choices := make([][]value.Value, 0, len(c.args)-1)
	for pos := 1; pos < len(c.args); pos++ {
		v, err := c.args[pos].Evaluate(ctx)
		if err != nil {
			return nil, argError(c.fn.id, pos, err)
		}
		if bag, ok := v.(*value.Bag); ok {
			if bag.IsEmpty() {
				return value.False, nil
			}
			choices = append(choices, bag.Values())
		} else {
			choices = append(choices, []value.Value{v})
		}
	}

	current := make([]value.Value, len(choices))
	var walk func(depth int) (bool, error)
	walk = func(depth int) (bool, error) {
		if depth == len(choices) {
			return c.apply(ctx, c.sub, current...)
		}
		for _, v := range choices[depth] {
			current[depth] = v
			ok, err := walk(depth + 1)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}

	ok, err := walk(0)
	if err != nil {
		return nil, xerrors.Wrap(err, "%s: sub-function failed", c.fn.id)
	}
	return value.Boolean(ok), nil
}

// mapFactory instantiates map for a sub-function result datatype.
type mapFactory struct{}

func (mapFactory) ID() string { return MapID }

func (mapFactory) Instantiate(subReturn *value.Datatype) (Function, error) {
	if subReturn == nil || subReturn.IsBag() || subReturn == value.FunctionType {
		return nil, xerrors.Syntax("%s: sub-function must return a primitive datatype, got %s", MapID, shortName(subReturn)).
			WithCause(xerrors.ErrTypeMismatch)
	}
	return &higherOrder{id: MapID, kind: kindMap, ret: subReturn.BagType(), subReturn: subReturn}, nil
}

func higherOrderFunctions() []Function {
	kinds := []struct {
		id   string
		kind hofKind
	}{
		{AnyOfID, kindAnyOf},
		{AllOfID, kindAllOf},
		{AnyOfAnyID, kindAnyOfAny},
		{AllOfAnyID, kindAllOfAny},
		{AnyOfAllID, kindAnyOfAll},
		{AllOfAllID, kindAllOfAll},
	}
	fns := make([]Function, 0, len(kinds))
	for _, k := range kinds {
		fns = append(fns, &higherOrder{id: k.id, kind: k.kind, ret: value.BooleanType, subReturn: value.BooleanType})
	}
	return fns
}
