package function

import (
	"strings"

	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// StringEqualIgnoreCaseID compares strings after lower-casing both.
const StringEqualIgnoreCaseID = V3 + "string-equal-ignore-case"

var equalityTypes = []struct {
	prefix string
	dt     *value.Datatype
}{
	{V1, value.StringType},
	{V1, value.BooleanType},
	{V1, value.IntegerType},
	{V1, value.DoubleType},
	{V1, value.DateType},
	{V1, value.TimeType},
	{V1, value.DateTimeType},
	{V3, value.DayTimeDurationType},
	{V3, value.YearMonthDurationType},
	{V1, value.AnyURIType},
	{V1, value.X500NameType},
	{V1, value.RFC822NameType},
	{V1, value.HexBinaryType},
	{V1, value.Base64BinaryType},
}

// EqualID returns the identifier of the equality function of dt.
func EqualID(dt *value.Datatype) string {
	for _, t := range equalityTypes {
		if t.dt == dt {
			return t.prefix + dt.Short() + "-equal"
		}
	}
	return ""
}

func equalityFunctions() []Function {
	fns := make([]Function, 0, len(equalityTypes)+1)
	for _, t := range equalityTypes {
		fns = append(fns, Binary(t.prefix+t.dt.Short()+"-equal", t.dt, t.dt, value.BooleanType,
			func(a, b value.Value) (value.Boolean, error) {
				return value.Boolean(a.Equal(b)), nil
			}))
	}
	fns = append(fns, Binary(StringEqualIgnoreCaseID, value.StringType, value.StringType, value.BooleanType,
		func(a, b value.String) (value.Boolean, error) {
			return strings.ToLower(string(a)) == strings.ToLower(string(b)), nil
		}))
	return fns
}
