// Package expr defines evaluable expressions and the evaluation context.
//
// Constants, attribute designators and variable references live here;
// function calls and function references are provided by package function.
// RequestContext is the Context implementation used for one decision
// request: it resolves attributes from the request, falls back to an
// optional AttributeProvider, and caches every result for the lifetime of
// the request.
package expr
