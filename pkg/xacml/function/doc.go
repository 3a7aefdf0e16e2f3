// Package function implements XACML functions and function calls.
//
// A Function is bound to argument expressions with NewCall, which checks
// arity and argument datatypes and returns an immutable Call. Construction
// also applies optimizations that never change results: calls whose
// arguments are all constant are evaluated once, constant arguments of exact
// commutative functions are pre-combined, and/or drop neutral constants, and
// regexp functions compile constant patterns ahead of time.
//
// Higher-order functions take a Ref to their sub-function as first argument.
// map is generic over the sub-function result datatype and is obtained with
// Registry.LookupGeneric.
//
// Building a registry and evaluating a call:
//
//	reg, err := function.NewStandardRegistry()
//	if err != nil {
//	    return err
//	}
//	add, _ := reg.Lookup(function.V1 + "integer-add")
//	call, err := add.NewCall([]expr.Expression{
//	    expr.NewConstant(value.NewInteger(2)),
//	    designator,
//	})
//	if err != nil {
//	    return err // syntax-error Indeterminate
//	}
//	v, err := call.Evaluate(expr.NewRequestContext(ctx))
//
// Failures are *errors.Indeterminate values. A failing argument is wrapped
// as "<function-id>: indeterminate arg #<i>" with its status code preserved.
package function
