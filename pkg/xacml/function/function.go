package function

import (
	"errors"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Function identifier prefixes.
const (
	V1 = "urn:oasis:names:tc:xacml:1.0:function:"
	V2 = "urn:oasis:names:tc:xacml:2.0:function:"
	V3 = "urn:oasis:names:tc:xacml:3.0:function:"
)

// Registry errors.
var (
	ErrUnknownFunction   = errors.New("unknown function")
	ErrDuplicateFunction = errors.New("duplicate function identifier")
)

// Function is an XACML function that can be applied to argument expressions.
type Function interface {
	// ID returns the function identifier.
	ID() string

	// ReturnType returns the datatype of the function result.
	ReturnType() *value.Datatype

	// NewCall binds the function to argument expressions. remaining lists the
	// datatypes of trailing arguments that will be supplied as values to
	// Call.EvaluateWith. Arity and type violations are syntax-error
	// Indeterminates.
	NewCall(args []expr.Expression, remaining ...*value.Datatype) (Call, error)
}

// Call is a function bound to its argument expressions. Calls are immutable
// and safe for concurrent evaluation with distinct contexts.
type Call interface {
	expr.Expression

	// FunctionID returns the identifier of the applied function.
	FunctionID() string

	// Args returns the argument expressions evaluated at runtime.
	Args() []expr.Expression

	// EvaluateWith evaluates the call with already-resolved values for the
	// trailing arguments declared at construction.
	EvaluateWith(ctx expr.Context, trailing ...value.Value) (value.Value, error)
}

// argError re-wraps the failure of argument i.
func argError(id string, i int, err error) error {
	return xerrors.Wrap(err, "%s: indeterminate arg #%d", id, i)
}

// checkTrailing validates trailing values against the declared datatypes.
func checkTrailing(id string, declared []*value.Datatype, trailing []value.Value) error {
	if len(trailing) != len(declared) {
		return xerrors.Processing("%s: expected %d trailing arguments, got %d", id, len(declared), len(trailing)).
			WithCause(xerrors.ErrArity)
	}
	for i, v := range trailing {
		if err := value.Check(v, declared[i]); err != nil {
			return xerrors.Wrap(err, "%s: trailing arg #%d", id, i)
		}
	}
	return nil
}

func argTypes(args []expr.Expression, remaining []*value.Datatype) []*value.Datatype {
	types := make([]*value.Datatype, 0, len(args)+len(remaining))
	for _, a := range args {
		types = append(types, a.ReturnType())
	}
	return append(types, remaining...)
}

// constants returns the static values of args if every argument has one.
func constants(args []expr.Expression) ([]value.Value, bool) {
	values := make([]value.Value, len(args))
	for i, a := range args {
		v, ok := a.Value()
		if !ok {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}
