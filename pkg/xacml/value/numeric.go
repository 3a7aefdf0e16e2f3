package value

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Integer is an arbitrary-precision xs:integer value.
type Integer struct {
	v *big.Int
}

var bigZero = new(big.Int)

// NewInteger creates an integer from an int64.
func NewInteger(i int64) Integer {
	return Integer{v: big.NewInt(i)}
}

// IntegerFromBig copies b into an integer value.
func IntegerFromBig(b *big.Int) Integer {
	return Integer{v: new(big.Int).Set(b)}
}

// ParseInteger parses an optionally signed decimal integer.
func ParseInteger(s string) (Integer, error) {
	if s == "" || strings.ContainsAny(s, "_xXoObB") {
		return Integer{}, lexicalError("integer", s, nil)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Integer{}, lexicalError("integer", s, nil)
	}
	return Integer{v: v}, nil
}

func (i Integer) big() *big.Int {
	if i.v == nil {
		return bigZero
	}
	return i.v
}

// Big returns a copy of the underlying big integer.
func (i Integer) Big() *big.Int {
	return new(big.Int).Set(i.big())
}

// Int64 returns the value as an int64 and whether it fits.
func (i Integer) Int64() (int64, bool) {
	b := i.big()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// Sign returns -1, 0 or +1.
func (i Integer) Sign() int { return i.big().Sign() }

// Compare returns -1, 0 or +1 depending on whether i is less than, equal to or
// greater than o.
func (i Integer) Compare(o Integer) int { return i.big().Cmp(o.big()) }

// Add returns i + o.
func (i Integer) Add(o Integer) Integer { return Integer{v: new(big.Int).Add(i.big(), o.big())} }

// Sub returns i - o.
func (i Integer) Sub(o Integer) Integer { return Integer{v: new(big.Int).Sub(i.big(), o.big())} }

// Mul returns i * o.
func (i Integer) Mul(o Integer) Integer { return Integer{v: new(big.Int).Mul(i.big(), o.big())} }

// Quo returns i / o truncated toward zero. o must not be zero.
func (i Integer) Quo(o Integer) Integer { return Integer{v: new(big.Int).Quo(i.big(), o.big())} }

// Rem returns the remainder of i / o truncated toward zero; the result has the
// sign of i. o must not be zero.
func (i Integer) Rem(o Integer) Integer { return Integer{v: new(big.Int).Rem(i.big(), o.big())} }

// Abs returns |i|.
func (i Integer) Abs() Integer { return Integer{v: new(big.Int).Abs(i.big())} }

// Float64 returns the nearest float64 and whether it is finite.
func (i Integer) Float64() (float64, bool) {
	f, _ := new(big.Float).SetInt(i.big()).Float64()
	return f, !math.IsInf(f, 0)
}

func (i Integer) Datatype() *Datatype { return IntegerType }
func (i Integer) String() string      { return i.big().String() }
func (i Integer) key() string         { return i.big().String() }

func (i Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && i.Compare(o) == 0
}

// Double is an IEEE754 binary64 xs:double value.
type Double float64

var doubleRE = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// ParseDouble parses the xs:double lexical space, including INF, -INF and NaN.
func ParseDouble(s string) (Double, error) {
	switch s {
	case "INF", "+INF":
		return Double(math.Inf(1)), nil
	case "-INF":
		return Double(math.Inf(-1)), nil
	case "NaN":
		return Double(math.NaN()), nil
	}
	if !doubleRE.MatchString(s) {
		return 0, lexicalError("double", s, nil)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !math.IsInf(f, 0) {
		return 0, lexicalError("double", s, err)
	}
	return Double(f), nil
}

// IsNaN reports whether d is NaN.
func (d Double) IsNaN() bool { return math.IsNaN(float64(d)) }

// IsFinite reports whether d is neither infinite nor NaN.
func (d Double) IsFinite() bool {
	f := float64(d)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (d Double) Datatype() *Datatype { return DoubleType }

func (d Double) String() string {
	f := float64(d)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return strconv.FormatFloat(f, 'G', -1, 64)
}

func (d Double) key() string {
	if d == 0 {
		return "0"
	}
	return d.String()
}

// Equal uses IEEE754 equality: NaN is not equal to itself and -0 equals 0.
func (d Double) Equal(other Value) bool {
	o, ok := other.(Double)
	return ok && o == d
}
