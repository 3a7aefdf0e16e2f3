package function

import (
	"regexp"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Match function identifiers.
const (
	StringRegexpMatchID = V1 + "string-regexp-match"
	X500NameMatchID     = V1 + "x500Name-match"
	RFC822NameMatchID   = V1 + "rfc822Name-match"
)

var regexpMatchTypes = []struct {
	id string
	dt *value.Datatype
}{
	{StringRegexpMatchID, value.StringType},
	{V2 + "anyURI-regexp-match", value.AnyURIType},
	{V2 + "ipAddress-regexp-match", value.IPAddressType},
	{V2 + "dnsName-regexp-match", value.DNSNameType},
	{V2 + "rfc822Name-regexp-match", value.RFC822NameType},
	{V2 + "x500Name-regexp-match", value.X500NameType},
}

func compilePattern(pattern value.String) (*regexp.Regexp, error) {
	re, err := compileXSDRegexp(string(pattern))
	if err != nil {
		return nil, xerrors.Processing("invalid regular expression %q", string(pattern)).WithCause(err)
	}
	return re, nil
}

// regexpMatch creates a <type>-regexp-match function. The pattern is the
// first argument; the value is matched through its lexical form.
func regexpMatch(id string, dt *value.Datatype) Function {
	sig := Signature{ID: id, Return: value.BooleanType, Params: []*value.Datatype{value.StringType, dt}}
	eval := func(args []value.Value) (value.Value, error) {
		pattern, err := value.As[value.String](args[0])
		if err != nil {
			return nil, err
		}
		re, err := compilePattern(pattern)
		if err != nil {
			return nil, err
		}
		return value.Boolean(re.MatchString(args[1].String())), nil
	}
	precompile := func(args []expr.Expression) (EvalFunc, bool) {
		if len(args) == 0 {
			return nil, false
		}
		p, ok := args[0].Value()
		if !ok {
			return nil, false
		}
		re, err := compilePattern(p.(value.String))
		if err != nil {
			return nil, false
		}
		return func(args []value.Value) (value.Value, error) {
			return value.Boolean(re.MatchString(args[1].String())), nil
		}, true
	}
	return NewFirstOrder(sig, eval, Precompile(precompile))
}

func matchFunctions() []Function {
	fns := make([]Function, 0, len(regexpMatchTypes)+2)
	for _, t := range regexpMatchTypes {
		fns = append(fns, regexpMatch(t.id, t.dt))
	}
	return append(fns,
		Binary(X500NameMatchID, value.X500NameType, value.X500NameType, value.BooleanType,
			func(pattern, name value.X500Name) (value.Boolean, error) {
				return value.Boolean(pattern.MatchesTerminal(name)), nil
			}),
		Binary(RFC822NameMatchID, value.StringType, value.RFC822NameType, value.BooleanType,
			func(pattern value.String, name value.RFC822Name) (value.Boolean, error) {
				return value.Boolean(name.Match(string(pattern))), nil
			}),
	)
}
