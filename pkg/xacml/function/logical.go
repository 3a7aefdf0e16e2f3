package function

import (
	"slices"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Logical function identifiers.
const (
	AndID = V1 + "and"
	OrID  = V1 + "or"
	NOfID = V1 + "n-of"
	NotID = V1 + "not"
)

// junction implements and/or. Evaluation stops at the first argument equal
// to absorbing; the first Indeterminate is reported only when no argument is
// absorbing.
type junction struct {
	id        string
	absorbing value.Boolean
}

func newAnd() Function { return &junction{id: AndID, absorbing: value.False} }
func newOr() Function  { return &junction{id: OrID, absorbing: value.True} }

func (j *junction) ID() string                  { return j.id }
func (j *junction) ReturnType() *value.Datatype { return value.BooleanType }

type indexedArg struct {
	pos  int
	expr expr.Expression
}

func (j *junction) NewCall(args []expr.Expression, remaining ...*value.Datatype) (Call, error) {
	sig := Signature{ID: j.id, Return: value.BooleanType, Variadic: value.BooleanType}
	if err := sig.Check(argTypes(args, remaining)); err != nil {
		return nil, err
	}

	var kept []indexedArg
	for i, a := range args {
		v, ok := a.Value()
		if !ok {
			kept = append(kept, indexedArg{pos: i, expr: a})
			continue
		}
		if v.(value.Boolean) == j.absorbing {
			return &constantCall{id: j.id, v: j.absorbing}, nil
		}
		// Neutral constants do not affect the result.
	}
	if len(kept) == 0 && len(remaining) == 0 {
		return &constantCall{id: j.id, v: !j.absorbing}, nil
	}
	return &junctionCall{id: j.id, absorbing: j.absorbing, args: kept, remaining: slices.Clone(remaining)}, nil
}

type junctionCall struct {
	id        string
	absorbing value.Boolean
	args      []indexedArg
	remaining []*value.Datatype
}

func (c *junctionCall) ReturnType() *value.Datatype { return value.BooleanType }
func (c *junctionCall) Value() (value.Value, bool)  { return nil, false }
func (c *junctionCall) FunctionID() string          { return c.id }

func (c *junctionCall) Args() []expr.Expression {
	out := make([]expr.Expression, len(c.args))
	for i, a := range c.args {
		out[i] = a.expr
	}
	return out
}

func (c *junctionCall) Evaluate(ctx expr.Context) (value.Value, error) {
	return c.EvaluateWith(ctx)
}

func (c *junctionCall) EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := checkTrailing(c.id, c.remaining, trailing); err != nil {
		return nil, err
	}

	var firstErr error
	for _, a := range c.args {
		v, err := a.expr.Evaluate(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = argError(c.id, a.pos, err)
			}
			continue
		}
		b, err := value.As[value.Boolean](v)
		if err != nil {
			if firstErr == nil {
				firstErr = argError(c.id, a.pos, err)
			}
			continue
		}
		if b == c.absorbing {
			return c.absorbing, nil
		}
	}
	for _, v := range trailing {
		if v.(value.Boolean) == c.absorbing {
			return c.absorbing, nil
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return !c.absorbing, nil
}

// nOf implements n-of: true when at least n of the boolean arguments are
// true. Arguments are evaluated left to right only until the outcome is
// decided.
type nOf struct{}

func (nOf) ID() string                  { return NOfID }
func (nOf) ReturnType() *value.Datatype { return value.BooleanType }

func (nOf) NewCall(args []expr.Expression, remaining ...*value.Datatype) (Call, error) {
	sig := Signature{ID: NOfID, Return: value.BooleanType, Params: []*value.Datatype{value.IntegerType}, Variadic: value.BooleanType}
	if err := sig.Check(argTypes(args, remaining)); err != nil {
		return nil, err
	}
	count := len(args) - 1 + len(remaining)

	if v, ok := args[0].Value(); ok {
		n := v.(value.Integer)
		if n.Sign() == 0 {
			return &constantCall{id: NOfID, v: value.True}, nil
		}
		if err := checkN(n, count); err != nil {
			return nil, xerrors.Syntax("%s: invalid constant n", NOfID).WithCause(err)
		}
	}
	return &nOfCall{args: slices.Clone(args), remaining: slices.Clone(remaining)}, nil
}

func checkN(n value.Integer, count int) error {
	if n.Sign() < 0 || n.Compare(value.NewInteger(int64(count))) > 0 {
		return xerrors.Processing("n = %s is outside [0, %d]", n, count).WithCause(xerrors.ErrArity)
	}
	return nil
}

type nOfCall struct {
	args      []expr.Expression
	remaining []*value.Datatype
}

func (c *nOfCall) ReturnType() *value.Datatype { return value.BooleanType }
func (c *nOfCall) Value() (value.Value, bool)  { return nil, false }
func (c *nOfCall) FunctionID() string          { return NOfID }
func (c *nOfCall) Args() []expr.Expression     { return c.args }

func (c *nOfCall) Evaluate(ctx expr.Context) (value.Value, error) {
	return c.EvaluateWith(ctx)
}

func (c *nOfCall) EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := checkTrailing(NOfID, c.remaining, trailing); err != nil {
		return nil, err
	}
	v, err := c.args[0].Evaluate(ctx)
	if err != nil {
		return nil, argError(NOfID, 0, err)
	}
	n, err := value.As[value.Integer](v)
	if err != nil {
		return nil, argError(NOfID, 0, err)
	}
	total := len(c.args) - 1 + len(trailing)
	if err := checkN(n, total); err != nil {
		return nil, xerrors.Wrap(err, "%s", NOfID)
	}
	if n.Sign() == 0 {
		return value.True, nil
	}

	required, _ := n.Int64()
	unevaluated := int64(total)
	var (
		indeterminate int64
		firstErr      error
	)
	for i := 1; i <= total; i++ {
		b, err := c.operand(ctx, i, trailing)
		unevaluated--
		switch {
		case err != nil:
			indeterminate++
			if firstErr == nil {
				firstErr = err
			}
		case bool(b):
			required--
			if required == 0 {
				return value.True, nil
			}
		}
		if required > unevaluated {
			if required <= indeterminate {
				return nil, firstErr
			}
			if required > unevaluated+indeterminate {
				return value.False, nil
			}
		}
	}
	return value.False, nil
}

// operand evaluates boolean operand i, counting from 1.
func (c *nOfCall) operand(ctx expr.Context, i int, trailing []value.Value) (value.Boolean, error) {
	var v value.Value
	if i < len(c.args) {
		var err error
		if v, err = c.args[i].Evaluate(ctx); err != nil {
			return false, argError(NOfID, i, err)
		}
	} else {
		v = trailing[i-len(c.args)]
	}
	b, err := value.As[value.Boolean](v)
	if err != nil {
		return false, argError(NOfID, i, err)
	}
	return b, nil
}

func notFunction() Function {
	return Unary(NotID, value.BooleanType, value.BooleanType, func(b value.Boolean) (value.Boolean, error) {
		return !b, nil
	})
}

func logicalFunctions() []Function {
	return []Function{newAnd(), newOr(), nOf{}, notFunction()}
}
