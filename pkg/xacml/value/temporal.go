package value

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dateTimeRE = regexp.MustCompile(`^(-?[0-9]{4,})-([0-9]{2})-([0-9]{2})T([0-9]{2}):([0-9]{2}):([0-9]{2})(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	dateRE     = regexp.MustCompile(`^(-?[0-9]{4,})-([0-9]{2})-([0-9]{2})(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	timeRE     = regexp.MustCompile(`^([0-9]{2}):([0-9]{2}):([0-9]{2})(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?$`)
)

// Reference day used to place xs:time values on the time line for
// comparison, as in XML Schema.
const (
	refYear  = 1972
	refMonth = time.December
	refDay   = 31
)

// Date is an xs:date value. Dates without a timezone are compared as UTC.
type Date struct {
	t     time.Time
	hasTZ bool
}

// Time is an xs:time value. Times without a timezone are compared as UTC.
type Time struct {
	t     time.Time
	hasTZ bool
}

// DateTime is an xs:dateTime value. Values without a timezone are compared
// as UTC.
type DateTime struct {
	t     time.Time
	hasTZ bool
}

// NewDateTime wraps t as a dateTime with an explicit timezone.
func NewDateTime(t time.Time) DateTime {
	return DateTime{t: t, hasTZ: true}
}

// NewDate creates a date with an explicit timezone from the calendar day of t.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, t.Location()), hasTZ: true}
}

// NewTime creates a time with an explicit timezone from the clock of t.
func NewTime(t time.Time) Time {
	h, m, s := t.Clock()
	return Time{t: time.Date(refYear, refMonth, refDay, h, m, s, t.Nanosecond(), t.Location()), hasTZ: true}
}

// ParseDateTime parses the xs:dateTime lexical form.
func ParseDateTime(s string) (DateTime, error) {
	m := dateTimeRE.FindStringSubmatch(s)
	if m == nil {
		return DateTime{}, lexicalError("dateTime", s, nil)
	}
	year, month, day, err := parseYMD(m[1], m[2], m[3])
	if err != nil {
		return DateTime{}, lexicalError("dateTime", s, err)
	}
	hour, minute, sec, nanos, err := parseClock(m[4], m[5], m[6], m[7])
	if err != nil {
		return DateTime{}, lexicalError("dateTime", s, err)
	}
	loc, hasTZ, err := parseZone(m[8])
	if err != nil {
		return DateTime{}, lexicalError("dateTime", s, err)
	}
	// 24:00:00 is the first instant of the following day.
	t := time.Date(year, time.Month(month), day, hour, minute, sec, nanos, loc)
	return DateTime{t: t, hasTZ: hasTZ}, nil
}

// ParseDate parses the xs:date lexical form.
func ParseDate(s string) (Date, error) {
	m := dateRE.FindStringSubmatch(s)
	if m == nil {
		return Date{}, lexicalError("date", s, nil)
	}
	year, month, day, err := parseYMD(m[1], m[2], m[3])
	if err != nil {
		return Date{}, lexicalError("date", s, err)
	}
	loc, hasTZ, err := parseZone(m[4])
	if err != nil {
		return Date{}, lexicalError("date", s, err)
	}
	return Date{t: time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), hasTZ: hasTZ}, nil
}

// ParseTime parses the xs:time lexical form.
func ParseTime(s string) (Time, error) {
	m := timeRE.FindStringSubmatch(s)
	if m == nil {
		return Time{}, lexicalError("time", s, nil)
	}
	hour, minute, sec, nanos, err := parseClock(m[1], m[2], m[3], m[4])
	if err != nil {
		return Time{}, lexicalError("time", s, err)
	}
	loc, hasTZ, err := parseZone(m[5])
	if err != nil {
		return Time{}, lexicalError("time", s, err)
	}
	if hour == 24 {
		hour = 0
	}
	return Time{t: time.Date(refYear, refMonth, refDay, hour, minute, sec, nanos, loc), hasTZ: hasTZ}, nil
}

func parseYMD(ys, ms, ds string) (int, int, int, error) {
	year, err := strconv.Atoi(ys)
	if err != nil {
		return 0, 0, 0, err
	}
	month, _ := strconv.Atoi(ms)
	day, _ := strconv.Atoi(ds)
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range", month)
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return 0, 0, 0, fmt.Errorf("day %d out of range", day)
	}
	return year, month, day, nil
}

func parseClock(hs, ms, ss, frac string) (int, int, int, int, error) {
	hour, _ := strconv.Atoi(hs)
	minute, _ := strconv.Atoi(ms)
	sec, _ := strconv.Atoi(ss)
	nanos := 0
	if frac != "" {
		digits := frac[1:]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		digits += strings.Repeat("0", 9-len(digits))
		nanos, _ = strconv.Atoi(digits)
	}
	if minute > 59 || sec > 59 {
		return 0, 0, 0, 0, fmt.Errorf("clock %s:%s:%s out of range", hs, ms, ss)
	}
	if hour > 24 || (hour == 24 && (minute != 0 || sec != 0 || nanos != 0)) {
		return 0, 0, 0, 0, fmt.Errorf("hour %d out of range", hour)
	}
	return hour, minute, sec, nanos, nil
}

func parseZone(z string) (*time.Location, bool, error) {
	if z == "" {
		return time.UTC, false, nil
	}
	if z == "Z" {
		return time.UTC, true, nil
	}
	hh, _ := strconv.Atoi(z[1:3])
	mm, _ := strconv.Atoi(z[4:6])
	if hh > 14 || mm > 59 || (hh == 14 && mm != 0) {
		return nil, false, fmt.Errorf("timezone %s out of range", z)
	}
	offset := hh*3600 + mm*60
	if z[0] == '-' {
		offset = -offset
	}
	if offset == 0 {
		return time.UTC, true, nil
	}
	return time.FixedZone(z, offset), true, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func formatYMD(sb *strings.Builder, t time.Time) {
	y, m, d := t.Date()
	if y < 0 {
		sb.WriteByte('-')
		y = -y
	}
	fmt.Fprintf(sb, "%04d-%02d-%02d", y, int(m), d)
}

func formatClock(sb *strings.Builder, t time.Time) {
	h, m, s := t.Clock()
	fmt.Fprintf(sb, "%02d:%02d:%02d", h, m, s)
	if ns := t.Nanosecond(); ns != 0 {
		frac := strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
}

func formatZone(sb *strings.Builder, t time.Time, hasTZ bool) {
	if !hasTZ {
		return
	}
	_, offset := t.Zone()
	if offset == 0 {
		sb.WriteByte('Z')
		return
	}
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	fmt.Fprintf(sb, "%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
}

func instantKey(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999")
}

// addMonths adds n months to t, pinning the day of month to the last day of
// the resulting month (XML Schema duration arithmetic).
func addMonths(t time.Time, n int64) time.Time {
	y, m, d := t.Date()
	total := int64(y)*12 + int64(m-1) + n
	ny := total / 12
	nm := total % 12
	if nm < 0 {
		nm += 12
		ny--
	}
	month := time.Month(nm + 1)
	if dim := daysIn(int(ny), month); d > dim {
		d = dim
	}
	h, mi, s := t.Clock()
	return time.Date(int(ny), month, d, h, mi, s, t.Nanosecond(), t.Location())
}

// Time returns the underlying instant. Values without timezone are in UTC.
func (d DateTime) Time() time.Time { return d.t }

// HasTimezone reports whether the lexical form carried a timezone.
func (d DateTime) HasTimezone() bool { return d.hasTZ }

// Compare orders two dateTime values on the time line.
func (d DateTime) Compare(o DateTime) int { return d.t.Compare(o.t) }

// AddDuration returns d shifted by a dayTimeDuration.
func (d DateTime) AddDuration(dur DayTimeDuration) DateTime {
	return DateTime{t: d.t.Add(time.Duration(dur)), hasTZ: d.hasTZ}
}

// AddMonths returns d shifted by a yearMonthDuration.
func (d DateTime) AddMonths(dur YearMonthDuration) DateTime {
	return DateTime{t: addMonths(d.t, int64(dur)), hasTZ: d.hasTZ}
}

func (d DateTime) Datatype() *Datatype { return DateTimeType }

func (d DateTime) String() string {
	var sb strings.Builder
	formatYMD(&sb, d.t)
	sb.WriteByte('T')
	formatClock(&sb, d.t)
	formatZone(&sb, d.t, d.hasTZ)
	return sb.String()
}

func (d DateTime) key() string { return instantKey(d.t) }

func (d DateTime) Equal(other Value) bool {
	o, ok := other.(DateTime)
	return ok && d.t.Equal(o.t)
}

// Time returns midnight of the date in its timezone (UTC when absent).
func (d Date) Time() time.Time { return d.t }

// HasTimezone reports whether the lexical form carried a timezone.
func (d Date) HasTimezone() bool { return d.hasTZ }

// Compare orders two dates by their starting instants.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// AddMonths returns d shifted by a yearMonthDuration.
func (d Date) AddMonths(dur YearMonthDuration) Date {
	return Date{t: addMonths(d.t, int64(dur)), hasTZ: d.hasTZ}
}

func (d Date) Datatype() *Datatype { return DateType }

func (d Date) String() string {
	var sb strings.Builder
	formatYMD(&sb, d.t)
	formatZone(&sb, d.t, d.hasTZ)
	return sb.String()
}

func (d Date) key() string { return instantKey(d.t) }

func (d Date) Equal(other Value) bool {
	o, ok := other.(Date)
	return ok && d.t.Equal(o.t)
}

// Time returns the instant of the value on the reference day.
func (t Time) Time() time.Time { return t.t }

// HasTimezone reports whether the lexical form carried a timezone.
func (t Time) HasTimezone() bool { return t.hasTZ }

// Compare orders two times placed on the reference day.
func (t Time) Compare(o Time) int { return t.t.Compare(o.t) }

// UTCNanosOfDay returns the nanoseconds elapsed since midnight UTC.
func (t Time) UTCNanosOfDay() int64 {
	u := t.t.UTC()
	h, m, s := u.Clock()
	return (int64(h)*3600+int64(m)*60+int64(s))*int64(time.Second) + int64(u.Nanosecond())
}

func (t Time) Datatype() *Datatype { return TimeType }

func (t Time) String() string {
	var sb strings.Builder
	formatClock(&sb, t.t)
	formatZone(&sb, t.t, t.hasTZ)
	return sb.String()
}

func (t Time) key() string { return instantKey(t.t) }

func (t Time) Equal(other Value) bool {
	o, ok := other.(Time)
	return ok && t.t.Equal(o.t)
}

// DayTimeDuration is an xs:dayTimeDuration value with nanosecond precision.
type DayTimeDuration time.Duration

var dayTimeDurationRE = regexp.MustCompile(`^(-)?P(?:([0-9]+)D)?(?:T(?:([0-9]+)H)?(?:([0-9]+)M)?(?:([0-9]+)(?:\.([0-9]+))?S)?)?$`)

// ParseDayTimeDuration parses the xs:dayTimeDuration lexical form.
func ParseDayTimeDuration(s string) (DayTimeDuration, error) {
	m := dayTimeDurationRE.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "") || strings.HasSuffix(s, "T") {
		return 0, lexicalError("dayTimeDuration", s, nil)
	}
	total := new(big.Int)
	add := func(digits string, unit time.Duration) {
		if digits == "" {
			return
		}
		n, _ := new(big.Int).SetString(digits, 10)
		total.Add(total, n.Mul(n, big.NewInt(int64(unit))))
	}
	add(m[2], 24*time.Hour)
	add(m[3], time.Hour)
	add(m[4], time.Minute)
	add(m[5], time.Second)
	if frac := m[6]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		add(frac+strings.Repeat("0", 9-len(frac)), time.Nanosecond)
	}
	if m[1] == "-" {
		total.Neg(total)
	}
	if !total.IsInt64() {
		return 0, lexicalError("dayTimeDuration", s, fmt.Errorf("out of range"))
	}
	return DayTimeDuration(total.Int64()), nil
}

// Duration returns the value as a time.Duration.
func (d DayTimeDuration) Duration() time.Duration { return time.Duration(d) }

// Negate returns -d.
func (d DayTimeDuration) Negate() DayTimeDuration { return -d }

func (d DayTimeDuration) Datatype() *Datatype { return DayTimeDurationType }

func (d DayTimeDuration) String() string {
	if d == 0 {
		return "PT0S"
	}
	var sb strings.Builder
	n := uint64(d)
	if d < 0 {
		sb.WriteByte('-')
		n = uint64(-d)
	}
	sb.WriteByte('P')
	const (
		nsSecond = uint64(time.Second)
		nsMinute = uint64(time.Minute)
		nsHour   = uint64(time.Hour)
		nsDay    = 24 * nsHour
	)
	days := n / nsDay
	n %= nsDay
	hours := n / nsHour
	n %= nsHour
	minutes := n / nsMinute
	n %= nsMinute
	seconds := n / nsSecond
	nanos := n % nsSecond

	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if hours > 0 || minutes > 0 || seconds > 0 || nanos > 0 {
		sb.WriteByte('T')
		if hours > 0 {
			fmt.Fprintf(&sb, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&sb, "%dM", minutes)
		}
		if seconds > 0 || nanos > 0 {
			fmt.Fprintf(&sb, "%d", seconds)
			if nanos > 0 {
				sb.WriteByte('.')
				sb.WriteString(strings.TrimRight(fmt.Sprintf("%09d", nanos), "0"))
			}
			sb.WriteByte('S')
		}
	}
	return sb.String()
}

func (d DayTimeDuration) key() string { return strconv.FormatInt(int64(d), 10) }

func (d DayTimeDuration) Equal(other Value) bool {
	o, ok := other.(DayTimeDuration)
	return ok && o == d
}

// YearMonthDuration is an xs:yearMonthDuration value counted in months.
type YearMonthDuration int64

var yearMonthDurationRE = regexp.MustCompile(`^(-)?P(?:([0-9]+)Y)?(?:([0-9]+)M)?$`)

// ParseYearMonthDuration parses the xs:yearMonthDuration lexical form.
func ParseYearMonthDuration(s string) (YearMonthDuration, error) {
	m := yearMonthDurationRE.FindStringSubmatch(s)
	if m == nil || (m[2] == "" && m[3] == "") {
		return 0, lexicalError("yearMonthDuration", s, nil)
	}
	var years, months int64
	var err error
	if m[2] != "" {
		if years, err = strconv.ParseInt(m[2], 10, 64); err != nil {
			return 0, lexicalError("yearMonthDuration", s, err)
		}
	}
	if m[3] != "" {
		if months, err = strconv.ParseInt(m[3], 10, 64); err != nil {
			return 0, lexicalError("yearMonthDuration", s, err)
		}
	}
	total := years*12 + months
	if years > (1<<62)/12 || total < 0 {
		return 0, lexicalError("yearMonthDuration", s, fmt.Errorf("out of range"))
	}
	if m[1] == "-" {
		total = -total
	}
	return YearMonthDuration(total), nil
}

// Months returns the total number of months.
func (d YearMonthDuration) Months() int64 { return int64(d) }

// Negate returns -d.
func (d YearMonthDuration) Negate() YearMonthDuration { return -d }

func (d YearMonthDuration) Datatype() *Datatype { return YearMonthDurationType }

func (d YearMonthDuration) String() string {
	if d == 0 {
		return "P0M"
	}
	var sb strings.Builder
	n := int64(d)
	if n < 0 {
		sb.WriteByte('-')
		n = -n
	}
	sb.WriteByte('P')
	if y := n / 12; y > 0 {
		fmt.Fprintf(&sb, "%dY", y)
	}
	if mo := n % 12; mo > 0 {
		fmt.Fprintf(&sb, "%dM", mo)
	}
	return sb.String()
}

func (d YearMonthDuration) key() string { return strconv.FormatInt(int64(d), 10) }

func (d YearMonthDuration) Equal(other Value) bool {
	o, ok := other.(YearMonthDuration)
	return ok && o == d
}
