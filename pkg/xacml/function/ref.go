package function

import (
	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Ref is a function reference, the first argument of a higher-order
// function. It has the function pseudo datatype and cannot be evaluated.
type Ref struct {
	fn Function
}

// NewRef creates a reference to fn.
func NewRef(fn Function) *Ref {
	return &Ref{fn: fn}
}

// Function returns the referenced function.
func (r *Ref) Function() Function { return r.fn }

func (r *Ref) ReturnType() *value.Datatype { return value.FunctionType }
func (r *Ref) Value() (value.Value, bool)  { return nil, false }

func (r *Ref) Evaluate(expr.Context) (value.Value, error) {
	return nil, xerrors.Processing("function reference %s cannot be evaluated", r.fn.ID()).
		WithCause(xerrors.ErrTypeMismatch)
}
