package function

import (
	"context"
	"testing"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

var testRegistry = mustStandardRegistry()

func mustStandardRegistry() *Registry {
	r, err := NewStandardRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

func newCtx() *expr.RequestContext {
	return expr.NewRequestContext(context.Background())
}

func lookup(t testing.TB, id string) Function {
	t.Helper()
	fn, ok := testRegistry.Lookup(id)
	if !ok {
		t.Fatalf("function %s is not registered", id)
	}
	return fn
}

func newCall(t testing.TB, id string, args ...expr.Expression) Call {
	t.Helper()
	c, err := lookup(t, id).NewCall(args)
	if err != nil {
		t.Fatalf("NewCall(%s) failed: %v", id, err)
	}
	return c
}

// opaque hides a value from constant folding.
type opaque struct {
	v value.Value
}

func dyn(v value.Value) expr.Expression { return &opaque{v: v} }

func (o *opaque) ReturnType() *value.Datatype                { return o.v.Datatype() }
func (o *opaque) Value() (value.Value, bool)                 { return nil, false }
func (o *opaque) Evaluate(expr.Context) (value.Value, error) { return o.v, nil }

// failing always evaluates to an Indeterminate.
type failing struct {
	dt  *value.Datatype
	err error
}

func fail(dt *value.Datatype, code xerrors.StatusCode) expr.Expression {
	return &failing{dt: dt, err: xerrors.New(code, "failing operand")}
}

func (f *failing) ReturnType() *value.Datatype                { return f.dt }
func (f *failing) Value() (value.Value, bool)                 { return nil, false }
func (f *failing) Evaluate(expr.Context) (value.Value, error) { return nil, f.err }

// counting records how often it is evaluated.
type counting struct {
	inner expr.Expression
	calls int
}

func (c *counting) ReturnType() *value.Datatype { return c.inner.ReturnType() }
func (c *counting) Value() (value.Value, bool)  { return nil, false }

func (c *counting) Evaluate(ctx expr.Context) (value.Value, error) {
	c.calls++
	return c.inner.Evaluate(ctx)
}

func constant(v value.Value) expr.Expression { return expr.NewConstant(v) }

func dynAll(values ...value.Value) []expr.Expression {
	args := make([]expr.Expression, len(values))
	for i, v := range values {
		args[i] = dyn(v)
	}
	return args
}

// evalDynamic applies a function to non-constant arguments and evaluates it.
func evalDynamic(t *testing.T, id string, values ...value.Value) (value.Value, error) {
	t.Helper()
	return newCall(t, id, dynAll(values...)...).Evaluate(newCtx())
}

func ints(xs ...int64) []value.Value {
	out := make([]value.Value, len(xs))
	for i, x := range xs {
		out[i] = value.NewInteger(x)
	}
	return out
}

func intBag(xs ...int64) *value.Bag {
	return value.MustBag(value.IntegerType, ints(xs...)...)
}

func strBag(xs ...string) *value.Bag {
	values := make([]value.Value, len(xs))
	for i, x := range xs {
		values[i] = value.String(x)
	}
	return value.MustBag(value.StringType, values...)
}

func wantCode(t *testing.T, err error, code xerrors.StatusCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("got no error, want %s", code.Short())
	}
	if got := xerrors.CodeOf(err); got != code {
		t.Errorf("status code = %s, want %s (error: %v)", got.Short(), code.Short(), err)
	}
}
