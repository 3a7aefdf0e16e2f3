package function

import (
	"strings"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Signature describes the parameters of a first-order function: fixed
// positional parameters optionally followed by a variadic tail of one
// datatype.
type Signature struct {
	ID     string
	Return *value.Datatype
	Params []*value.Datatype

	// Variadic is the datatype of the variadic tail, nil when the function
	// takes a fixed number of arguments.
	Variadic *value.Datatype

	// MinVariadic is the minimum number of variadic arguments.
	MinVariadic int
}

// Check validates argument datatypes against the signature.
func (s Signature) Check(types []*value.Datatype) error {
	switch {
	case s.Variadic == nil && len(types) != len(s.Params):
		return xerrors.Syntax("%s: expected %d arguments, got %d", s.ID, len(s.Params), len(types)).
			WithCause(xerrors.ErrArity)
	case s.Variadic != nil && len(types) < len(s.Params)+s.MinVariadic:
		return xerrors.Syntax("%s: expected at least %d arguments, got %d", s.ID, len(s.Params)+s.MinVariadic, len(types)).
			WithCause(xerrors.ErrArity)
	}

	for i, t := range types {
		want := s.Variadic
		if i < len(s.Params) {
			want = s.Params[i]
		}
		if !want.Equal(t) {
			return xerrors.Syntax("%s: arg #%d: expected %s, got %s", s.ID, i, want.Short(), shortName(t)).
				WithCause(xerrors.ErrTypeMismatch)
		}
	}
	return nil
}

// String renders the signature as "id(p1, p2, v...) -> ret".
func (s Signature) String() string {
	parts := make([]string, 0, len(s.Params)+1)
	for _, p := range s.Params {
		parts = append(parts, p.Short())
	}
	if s.Variadic != nil {
		parts = append(parts, s.Variadic.Short()+"...")
	}
	return s.ID + "(" + strings.Join(parts, ", ") + ") -> " + s.Return.Short()
}

func shortName(dt *value.Datatype) string {
	if dt == nil {
		return "<none>"
	}
	return dt.Short()
}
