package function

import (
	"strings"

	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// ordering is the total (or partial, for doubles) order of one datatype.
// compare returns false when the values are unordered.
type ordering[V value.Value] struct {
	dt      *value.Datatype
	compare func(a, b V) (int, bool)
}

var (
	integerOrdering = ordering[value.Integer]{
		dt:      value.IntegerType,
		compare: func(a, b value.Integer) (int, bool) { return a.Compare(b), true },
	}
	doubleOrdering = ordering[value.Double]{
		dt: value.DoubleType,
		compare: func(a, b value.Double) (int, bool) {
			switch {
			case a.IsNaN() || b.IsNaN():
				return 0, false
			case a < b:
				return -1, true
			case a > b:
				return 1, true
			}
			return 0, true
		},
	}
	stringOrdering = ordering[value.String]{
		dt:      value.StringType,
		compare: func(a, b value.String) (int, bool) { return strings.Compare(string(a), string(b)), true },
	}
	timeOrdering = ordering[value.Time]{
		dt:      value.TimeType,
		compare: func(a, b value.Time) (int, bool) { return a.Compare(b), true },
	}
	dateOrdering = ordering[value.Date]{
		dt:      value.DateType,
		compare: func(a, b value.Date) (int, bool) { return a.Compare(b), true },
	}
	dateTimeOrdering = ordering[value.DateTime]{
		dt:      value.DateTimeType,
		compare: func(a, b value.DateTime) (int, bool) { return a.Compare(b), true },
	}
)

func orderingFunctions[V value.Value](o ordering[V]) []Function {
	name := o.dt.Short()
	relation := func(suffix string, holds func(c int) bool) Function {
		return Binary(V1+name+suffix, o.dt, o.dt, value.BooleanType, func(a, b V) (value.Boolean, error) {
			c, ok := o.compare(a, b)
			return value.Boolean(ok && holds(c)), nil
		})
	}
	return []Function{
		relation("-greater-than", func(c int) bool { return c > 0 }),
		relation("-greater-than-or-equal", func(c int) bool { return c >= 0 }),
		relation("-less-than", func(c int) bool { return c < 0 }),
		relation("-less-than-or-equal", func(c int) bool { return c <= 0 }),
	}
}

// TimeInRangeID is true when the first time lies in the range given by the
// second and third; the range wraps past midnight when it ends before it
// starts.
const TimeInRangeID = V2 + "time-in-range"

func timeInRange(t, lo, hi value.Time) (value.Boolean, error) {
	x, l, h := t.UTCNanosOfDay(), lo.UTCNanosOfDay(), hi.UTCNanosOfDay()
	if l <= h {
		return value.Boolean(l <= x && x <= h), nil
	}
	return value.Boolean(x >= l || x <= h), nil
}

func comparisonFunctions() []Function {
	var fns []Function
	fns = append(fns, orderingFunctions(integerOrdering)...)
	fns = append(fns, orderingFunctions(doubleOrdering)...)
	fns = append(fns, orderingFunctions(stringOrdering)...)
	fns = append(fns, orderingFunctions(timeOrdering)...)
	fns = append(fns, orderingFunctions(dateOrdering)...)
	fns = append(fns, orderingFunctions(dateTimeOrdering)...)
	return append(fns, Ternary(TimeInRangeID, value.TimeType, value.TimeType, value.TimeType, value.BooleanType, timeInRange))
}
