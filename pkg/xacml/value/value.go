package value

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
)

// Value is an immutable typed value: a primitive attribute value or a Bag.
// The interface is sealed; all implementations live in this package.
type Value interface {
	// Datatype returns the datatype of the value.
	Datatype() *Datatype

	// String returns the canonical lexical representation.
	String() string

	// Equal reports whether other has the same datatype and is equal to the
	// receiver according to the datatype's equality function.
	Equal(other Value) bool

	// key returns a string such that Equal values have equal keys.
	key() string
}

// As casts v to the concrete value type T. A mismatch is a processing error
// wrapping ErrTypeMismatch.
func As[T Value](v Value) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, xerrors.Processing("unexpected value %s", describe(v)).WithCause(xerrors.ErrTypeMismatch)
	}
	return t, nil
}

// Check verifies that v has the expected datatype.
func Check(v Value, expected *Datatype) error {
	if v == nil {
		return xerrors.Processing("missing value, expected datatype %s", expected).WithCause(xerrors.ErrTypeMismatch)
	}
	if !v.Datatype().Equal(expected) {
		return xerrors.Processing("expected datatype %s, got %s", expected, describe(v)).WithCause(xerrors.ErrTypeMismatch)
	}
	return nil
}

func describe(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q (%s)", v.String(), v.Datatype().Short())
}

// Hash returns a hash of v consistent with Equal: equal values of the same
// datatype hash identically.
func Hash(v Value) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(v.Datatype().id)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(v.key())
	return d.Sum64()
}

// Parse parses the lexical representation s of a primitive datatype. Leading
// and trailing whitespace is ignored for every datatype except string.
// Failures wrap ErrInvalidLexical.
func Parse(dt *Datatype, s string) (Value, error) {
	if dt == nil || dt.IsBag() || dt == FunctionType {
		return nil, fmt.Errorf("cannot parse a value of datatype %v", dt)
	}
	if dt != StringType {
		s = strings.TrimSpace(s)
	}

	var (
		v   Value
		err error
	)
	switch dt {
	case StringType:
		v = String(s)
	case BooleanType:
		v, err = ParseBoolean(s)
	case IntegerType:
		v, err = ParseInteger(s)
	case DoubleType:
		v, err = ParseDouble(s)
	case DateType:
		v, err = ParseDate(s)
	case TimeType:
		v, err = ParseTime(s)
	case DateTimeType:
		v, err = ParseDateTime(s)
	case DayTimeDurationType:
		v, err = ParseDayTimeDuration(s)
	case YearMonthDurationType:
		v, err = ParseYearMonthDuration(s)
	case AnyURIType:
		v, err = ParseAnyURI(s)
	case HexBinaryType:
		v, err = ParseHexBinary(s)
	case Base64BinaryType:
		v, err = ParseBase64Binary(s)
	case X500NameType:
		v, err = ParseX500Name(s)
	case RFC822NameType:
		v, err = ParseRFC822Name(s)
	case IPAddressType:
		v, err = ParseIPAddress(s)
	case DNSNameType:
		v, err = ParseDNSName(s)
	case XPathExpressionType:
		v = NewXPathExpression(s, "")
	default:
		return nil, fmt.Errorf("unsupported datatype %s", dt)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// MustParse is like Parse but panics on error. It is intended for constants
// in tests and static tables.
func MustParse(dt *Datatype, s string) Value {
	v, err := Parse(dt, s)
	if err != nil {
		panic(err)
	}
	return v
}

func lexicalError(dt, s string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s %q: %v", xerrors.ErrInvalidLexical, dt, s, cause)
	}
	return fmt.Errorf("%w: %s %q", xerrors.ErrInvalidLexical, dt, s)
}
