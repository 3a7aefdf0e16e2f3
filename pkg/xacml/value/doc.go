// Package value implements the XACML datatype and value model.
//
// Every primitive datatype has a Go type implementing the sealed Value
// interface; Bag holds an unordered multiset of primitives of one datatype.
// Values are immutable: arithmetic and temporal operations return new values.
//
// Lexical forms follow XML Schema and the XACML data-type appendix. Parse
// converts a lexical form into a Value and String returns the canonical form,
// so that Parse(dt, v.String()) is equal to v for every primitive v.
//
//	v, err := value.Parse(value.DateTimeType, "2002-05-30T09:30:10Z")
//	if err != nil {
//	    // errors.Is(err, xerrors.ErrInvalidLexical)
//	}
//
// Hash returns a hash consistent with Equal; set functions rely on it.
package value
