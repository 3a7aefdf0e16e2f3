package function

import (
	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// Datatypes with bag and set functions, with the prefix of their
// identifiers.
var bagTypes = []struct {
	prefix string
	dt     *value.Datatype
}{
	{V1, value.StringType},
	{V1, value.BooleanType},
	{V1, value.IntegerType},
	{V1, value.DoubleType},
	{V1, value.TimeType},
	{V1, value.DateType},
	{V1, value.DateTimeType},
	{V1, value.AnyURIType},
	{V1, value.HexBinaryType},
	{V1, value.Base64BinaryType},
	{V3, value.DayTimeDurationType},
	{V3, value.YearMonthDurationType},
	{V1, value.X500NameType},
	{V1, value.RFC822NameType},
	{V2, value.IPAddressType},
	{V2, value.DNSNameType},
}

// BagFunctionID returns the identifier of a bag or set function of dt, for
// instance BagFunctionID(value.StringType, "one-and-only").
func BagFunctionID(dt *value.Datatype, suffix string) string {
	for _, t := range bagTypes {
		if t.dt == dt {
			return t.prefix + dt.Short() + "-" + suffix
		}
	}
	return ""
}

func bagFunctions() []Function {
	fns := make([]Function, 0, 4*len(bagTypes))
	for _, t := range bagTypes {
		dt, bagType := t.dt, t.dt.BagType()
		id := t.prefix + dt.Short()
		fns = append(fns,
			Unary(id+"-one-and-only", bagType, dt, func(b *value.Bag) (value.Value, error) {
				if b.Len() != 1 {
					return nil, xerrors.Processing("expected a bag of exactly one %s, got %d values", dt.Short(), b.Len()).
						WithCause(xerrors.ErrArity)
				}
				return b.At(0), nil
			}),
			Unary(id+"-bag-size", bagType, value.IntegerType, func(b *value.Bag) (value.Integer, error) {
				return value.NewInteger(int64(b.Len())), nil
			}),
			Binary(id+"-is-in", dt, bagType, value.BooleanType, func(v value.Value, b *value.Bag) (value.Boolean, error) {
				return value.Boolean(b.Contains(v)), nil
			}),
			Variadic(id+"-bag", dt, bagType, 0, func(vs []value.Value) (*value.Bag, error) {
				return value.NewBag(dt, vs...)
			}),
		)
	}
	return fns
}
