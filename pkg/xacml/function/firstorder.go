package function

import (
	"slices"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// EvalFunc computes a function result from evaluated arguments. The
// arguments match the function signature.
type EvalFunc func(args []value.Value) (value.Value, error)

// Option configures a first-order function.
type Option func(*firstOrder)

// Commutative marks a variadic function whose constant arguments may be
// pre-combined at construction, as in add(2, x, 3) = add(5, x). Use it only
// for exact operations.
func Commutative() Option {
	return func(f *firstOrder) {
		f.commutative = true
	}
}

// Precompile registers a hook that may specialize the evaluation function for
// the given argument expressions, typically when some of them are constant.
func Precompile(hook func(args []expr.Expression) (EvalFunc, bool)) Option {
	return func(f *firstOrder) {
		f.precompile = hook
	}
}

// firstOrder is an eagerly evaluated function: all arguments are evaluated
// before the function body runs.
type firstOrder struct {
	sig         Signature
	eval        EvalFunc
	commutative bool
	precompile  func(args []expr.Expression) (EvalFunc, bool)
}

// NewFirstOrder creates an eagerly evaluated function.
func NewFirstOrder(sig Signature, eval EvalFunc, opts ...Option) Function {
	f := &firstOrder{sig: sig, eval: eval}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *firstOrder) ID() string                  { return f.sig.ID }
func (f *firstOrder) ReturnType() *value.Datatype { return f.sig.Return }

// Signature returns the function signature.
func (f *firstOrder) Signature() Signature { return f.sig }

// SignatureOf returns the signature of a first-order function. Higher-order
// and generic functions have none.
func SignatureOf(fn Function) (Signature, bool) {
	s, ok := fn.(interface{ Signature() Signature })
	if !ok {
		return Signature{}, false
	}
	return s.Signature(), true
}

func (f *firstOrder) NewCall(args []expr.Expression, remaining ...*value.Datatype) (Call, error) {
	if err := f.sig.Check(argTypes(args, remaining)); err != nil {
		return nil, err
	}
	args = slices.Clone(args)

	if len(remaining) == 0 {
		if values, ok := constants(args); ok {
			// A failing constant evaluation is reported at evaluation time.
			if v, err := f.eval(values); err == nil {
				return &constantCall{id: f.sig.ID, v: v}, nil
			}
		}
		if f.commutative {
			args = f.foldConstants(args)
		}
	}

	eval := f.eval
	if f.precompile != nil {
		if e, ok := f.precompile(args); ok {
			eval = e
		}
	}
	return &eagerCall{
		id:        f.sig.ID,
		ret:       f.sig.Return,
		args:      args,
		remaining: slices.Clone(remaining),
		eval:      eval,
	}, nil
}

// foldConstants combines two or more constant arguments into one.
func (f *firstOrder) foldConstants(args []expr.Expression) []expr.Expression {
	var (
		consts []value.Value
		rest   []expr.Expression
	)
	for _, a := range args {
		if v, ok := a.Value(); ok {
			consts = append(consts, v)
		} else {
			rest = append(rest, a)
		}
	}
	if len(consts) < 2 {
		return args
	}
	combined, err := f.eval(consts)
	if err != nil {
		return args
	}
	return append([]expr.Expression{expr.NewConstant(combined)}, rest...)
}

// eagerCall evaluates every argument, then the function body.
type eagerCall struct {
	id        string
	ret       *value.Datatype
	args      []expr.Expression
	remaining []*value.Datatype
	eval      EvalFunc
}

func (c *eagerCall) ReturnType() *value.Datatype { return c.ret }
func (c *eagerCall) Value() (value.Value, bool)  { return nil, false }
func (c *eagerCall) FunctionID() string          { return c.id }
func (c *eagerCall) Args() []expr.Expression     { return c.args }

func (c *eagerCall) Evaluate(ctx expr.Context) (value.Value, error) {
	return c.EvaluateWith(ctx)
}

func (c *eagerCall) EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := checkTrailing(c.id, c.remaining, trailing); err != nil {
		return nil, err
	}
	values := make([]value.Value, 0, len(c.args)+len(trailing))
	for i, a := range c.args {
		v, err := a.Evaluate(ctx)
		if err != nil {
			return nil, argError(c.id, i, err)
		}
		values = append(values, v)
	}
	values = append(values, trailing...)

	v, err := c.eval(values)
	if err != nil {
		return nil, xerrors.Wrap(err, "%s", c.id)
	}
	return v, nil
}

// constantCall is a call folded to its result at construction.
type constantCall struct {
	id string
	v  value.Value
}

func (c *constantCall) ReturnType() *value.Datatype { return c.v.Datatype() }
func (c *constantCall) Value() (value.Value, bool)  { return c.v, true }
func (c *constantCall) FunctionID() string          { return c.id }
func (c *constantCall) Args() []expr.Expression     { return nil }

func (c *constantCall) Evaluate(expr.Context) (value.Value, error) {
	return c.v, nil
}

func (c *constantCall) EvaluateWith(_ expr.Context, trailing ...value.Value) (value.Value, error) {
	if err := checkTrailing(c.id, nil, trailing); err != nil {
		return nil, err
	}
	return c.v, nil
}

// Unary creates a first-order function of one argument.
func Unary[A, R value.Value](id string, a, ret *value.Datatype, f func(A) (R, error), opts ...Option) Function {
	sig := Signature{ID: id, Return: ret, Params: []*value.Datatype{a}}
	return NewFirstOrder(sig, func(args []value.Value) (value.Value, error) {
		x, err := value.As[A](args[0])
		if err != nil {
			return nil, err
		}
		r, err := f(x)
		if err != nil {
			return nil, err
		}
		return r, nil
	}, opts...)
}

// Binary creates a first-order function of two arguments.
func Binary[A, B, R value.Value](id string, a, b, ret *value.Datatype, f func(A, B) (R, error), opts ...Option) Function {
	sig := Signature{ID: id, Return: ret, Params: []*value.Datatype{a, b}}
	return NewFirstOrder(sig, func(args []value.Value) (value.Value, error) {
		x, err := value.As[A](args[0])
		if err != nil {
			return nil, err
		}
		y, err := value.As[B](args[1])
		if err != nil {
			return nil, err
		}
		r, err := f(x, y)
		if err != nil {
			return nil, err
		}
		return r, nil
	}, opts...)
}

// Ternary creates a first-order function of three arguments.
func Ternary[A, B, C, R value.Value](id string, a, b, c, ret *value.Datatype, f func(A, B, C) (R, error), opts ...Option) Function {
	sig := Signature{ID: id, Return: ret, Params: []*value.Datatype{a, b, c}}
	return NewFirstOrder(sig, func(args []value.Value) (value.Value, error) {
		x, err := value.As[A](args[0])
		if err != nil {
			return nil, err
		}
		y, err := value.As[B](args[1])
		if err != nil {
			return nil, err
		}
		z, err := value.As[C](args[2])
		if err != nil {
			return nil, err
		}
		r, err := f(x, y, z)
		if err != nil {
			return nil, err
		}
		return r, nil
	}, opts...)
}

// Variadic creates a first-order function taking at least minArgs arguments of
// one datatype.
func Variadic[A, R value.Value](id string, a, ret *value.Datatype, minArgs int, f func([]A) (R, error), opts ...Option) Function {
	sig := Signature{ID: id, Return: ret, Variadic: a, MinVariadic: minArgs}
	return NewFirstOrder(sig, func(args []value.Value) (value.Value, error) {
		xs := make([]A, len(args))
		for i, v := range args {
			x, err := value.As[A](v)
			if err != nil {
				return nil, err
			}
			xs[i] = x
		}
		r, err := f(xs)
		if err != nil {
			return nil, err
		}
		return r, nil
	}, opts...)
}
