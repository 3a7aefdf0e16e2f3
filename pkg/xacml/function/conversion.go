package function

import (
	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Datatypes with <type>-from-string and string-from-<type> functions.
var stringConvertible = []*value.Datatype{
	value.BooleanType,
	value.IntegerType,
	value.DoubleType,
	value.TimeType,
	value.DateType,
	value.DateTimeType,
	value.AnyURIType,
	value.DayTimeDurationType,
	value.YearMonthDurationType,
	value.X500NameType,
	value.RFC822NameType,
	value.IPAddressType,
	value.DNSNameType,
}

// FromStringID returns the identifier of the <type>-from-string function.
func FromStringID(dt *value.Datatype) string { return V3 + dt.Short() + "-from-string" }

// ToStringID returns the identifier of the string-from-<type> function.
func ToStringID(dt *value.Datatype) string { return V3 + "string-from-" + dt.Short() }

func conversionFunctions() []Function {
	fns := make([]Function, 0, 2*len(stringConvertible))
	for _, dt := range stringConvertible {
		fns = append(fns,
			Unary(FromStringID(dt), value.StringType, dt, func(s value.String) (value.Value, error) {
				v, err := value.Parse(dt, string(s))
				if err != nil {
					return nil, xerrors.Syntax("invalid %s %q", dt.Short(), string(s)).WithCause(err)
				}
				return v, nil
			}),
			Unary(ToStringID(dt), dt, value.StringType, func(v value.Value) (value.String, error) {
				return value.String(v.String()), nil
			}),
		)
	}
	return fns
}
