package function

import "mercator-hq/xacmlcore/pkg/xacml/value"

func temporalFunctions() []Function {
	return []Function{
		Binary(V3+"dateTime-add-dayTimeDuration", value.DateTimeType, value.DayTimeDurationType, value.DateTimeType,
			func(t value.DateTime, d value.DayTimeDuration) (value.DateTime, error) {
				return t.AddDuration(d), nil
			}),
		Binary(V3+"dateTime-subtract-dayTimeDuration", value.DateTimeType, value.DayTimeDurationType, value.DateTimeType,
			func(t value.DateTime, d value.DayTimeDuration) (value.DateTime, error) {
				return t.AddDuration(d.Negate()), nil
			}),
		Binary(V3+"dateTime-add-yearMonthDuration", value.DateTimeType, value.YearMonthDurationType, value.DateTimeType,
			func(t value.DateTime, d value.YearMonthDuration) (value.DateTime, error) {
				return t.AddMonths(d), nil
			}),
		Binary(V3+"dateTime-subtract-yearMonthDuration", value.DateTimeType, value.YearMonthDurationType, value.DateTimeType,
			func(t value.DateTime, d value.YearMonthDuration) (value.DateTime, error) {
				return t.AddMonths(d.Negate()), nil
			}),
		Binary(V3+"date-add-yearMonthDuration", value.DateType, value.YearMonthDurationType, value.DateType,
			func(t value.Date, d value.YearMonthDuration) (value.Date, error) {
				return t.AddMonths(d), nil
			}),
		Binary(V3+"date-subtract-yearMonthDuration", value.DateType, value.YearMonthDurationType, value.DateType,
			func(t value.Date, d value.YearMonthDuration) (value.Date, error) {
				return t.AddMonths(d.Negate()), nil
			}),
	}
}
