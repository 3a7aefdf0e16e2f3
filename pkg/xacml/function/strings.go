package function

import (
	"strings"
	"unicode/utf8"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// String function identifiers used directly by callers.
const (
	StringConcatenateID = V2 + "string-concatenate"
	StringSubstringID   = V3 + "string-substring"
)

// substring returns the characters of s in [begin, end); end == -1 means the
// end of the string.
func substring(s string, begin, end value.Integer) (value.String, error) {
	n := int64(utf8.RuneCountInString(s))
	b, bok := begin.Int64()
	e, eok := end.Int64()
	if e == -1 && eok {
		e = n
	}
	if !bok || !eok || b < 0 || b > n || e < b || e > n {
		return "", xerrors.Processing("substring [%s, %s) is out of range for length %d", begin, end, n).
			WithCause(xerrors.ErrIndexOutOfRange)
	}
	runes := []rune(s)
	return value.String(runes[b:e]), nil
}

// trimXMLSpace removes leading and trailing XML whitespace.
func trimXMLSpace(s string) string {
	return strings.Trim(s, " \t\r\n")
}

func stringFunctions() []Function {
	fns := []Function{
		Unary(V1+"string-normalize-space", value.StringType, value.StringType, func(s value.String) (value.String, error) {
			return value.String(trimXMLSpace(string(s))), nil
		}),
		Unary(V1+"string-normalize-to-lower-case", value.StringType, value.StringType, func(s value.String) (value.String, error) {
			return value.String(strings.ToLower(string(s))), nil
		}),
		Variadic(StringConcatenateID, value.StringType, value.StringType, 2, func(xs []value.String) (value.String, error) {
			var sb strings.Builder
			for _, x := range xs {
				sb.WriteString(string(x))
			}
			return value.String(sb.String()), nil
		}),
		Ternary(StringSubstringID, value.StringType, value.IntegerType, value.IntegerType, value.StringType,
			func(s value.String, begin, end value.Integer) (value.String, error) {
				return substring(string(s), begin, end)
			}),
		Ternary(V3+"anyURI-substring", value.AnyURIType, value.IntegerType, value.IntegerType, value.StringType,
			func(u value.AnyURI, begin, end value.Integer) (value.String, error) {
				return substring(string(u), begin, end)
			}),
	}

	// Predicates take the needle first and the searched value second.
	predicates := []struct {
		name string
		test func(s, needle string) bool
	}{
		{"starts-with", strings.HasPrefix},
		{"ends-with", strings.HasSuffix},
		{"contains", strings.Contains},
	}
	for _, p := range predicates {
		test := p.test
		fns = append(fns,
			Binary(V3+"string-"+p.name, value.StringType, value.StringType, value.BooleanType,
				func(needle, s value.String) (value.Boolean, error) {
					return value.Boolean(test(string(s), string(needle))), nil
				}),
			Binary(V3+"anyURI-"+p.name, value.StringType, value.AnyURIType, value.BooleanType,
				func(needle value.String, u value.AnyURI) (value.Boolean, error) {
					return value.Boolean(test(string(u), string(needle))), nil
				}),
		)
	}
	return fns
}
