// Package errors defines Indeterminate, the uniform failure outcome of XACML
// expression evaluation.
//
// An Indeterminate carries a status code (missing-attribute, processing-error
// or syntax-error), a message and an optional cause. Each function call
// boundary re-wraps failures with Wrap, which keeps the original status code
// and appends a message fragment naming the failing function and argument:
//
//	v, err := arg.Evaluate(ctx)
//	if err != nil {
//	    return nil, errors.Wrap(err, "%s: indeterminate arg #%d", id, i)
//	}
//
// The chain can be walked with the standard library errors.Is/errors.As or
// with Chain.
package errors
