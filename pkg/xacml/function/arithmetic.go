package function

import (
	"math"
	"math/big"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// numericOps is the arithmetic of one numeric datatype.
type numericOps[V value.Value] struct {
	dt                 *value.Datatype
	add, sub, mul, div func(a, b V) (V, error)
	abs                func(a V) (V, error)

	// exact arithmetic may be re-associated by constant folding
	exact bool
}

var integerOps = numericOps[value.Integer]{
	dt:  value.IntegerType,
	add: func(a, b value.Integer) (value.Integer, error) { return a.Add(b), nil },
	sub: func(a, b value.Integer) (value.Integer, error) { return a.Sub(b), nil },
	mul: func(a, b value.Integer) (value.Integer, error) { return a.Mul(b), nil },
	div: func(a, b value.Integer) (value.Integer, error) {
		if b.Sign() == 0 {
			return value.Integer{}, divisionByZero()
		}
		return a.Quo(b), nil
	},
	abs:   func(a value.Integer) (value.Integer, error) { return a.Abs(), nil },
	exact: true,
}

var doubleOps = numericOps[value.Double]{
	dt:  value.DoubleType,
	add: func(a, b value.Double) (value.Double, error) { return a + b, nil },
	sub: func(a, b value.Double) (value.Double, error) { return a - b, nil },
	mul: func(a, b value.Double) (value.Double, error) { return a * b, nil },
	div: func(a, b value.Double) (value.Double, error) {
		if b == 0 {
			return 0, divisionByZero()
		}
		r := a / b
		if !r.IsFinite() {
			return 0, divisionByZero()
		}
		return r, nil
	},
	abs: func(a value.Double) (value.Double, error) { return value.Double(math.Abs(float64(a))), nil },
}

func divisionByZero() error {
	return xerrors.Processing("division by zero").WithCause(xerrors.ErrDivisionByZero)
}

func reduce[V value.Value](op func(a, b V) (V, error)) func([]V) (V, error) {
	return func(xs []V) (V, error) {
		acc := xs[0]
		for _, x := range xs[1:] {
			var err error
			if acc, err = op(acc, x); err != nil {
				return acc, err
			}
		}
		return acc, nil
	}
}

func arithmeticFunctions[V value.Value](ops numericOps[V]) []Function {
	name := ops.dt.Short()
	var opts []Option
	if ops.exact {
		opts = append(opts, Commutative())
	}
	return []Function{
		Variadic(V1+name+"-add", ops.dt, ops.dt, 2, reduce(ops.add), opts...),
		Variadic(V1+name+"-multiply", ops.dt, ops.dt, 2, reduce(ops.mul), opts...),
		Binary(V1+name+"-subtract", ops.dt, ops.dt, ops.dt, ops.sub),
		Binary(V1+name+"-divide", ops.dt, ops.dt, ops.dt, ops.div),
		Unary(V1+name+"-abs", ops.dt, ops.dt, ops.abs),
	}
}

func numericFunctions() []Function {
	fns := arithmeticFunctions(integerOps)
	fns = append(fns, arithmeticFunctions(doubleOps)...)
	return append(fns,
		Binary(V1+"integer-mod", value.IntegerType, value.IntegerType, value.IntegerType,
			func(a, b value.Integer) (value.Integer, error) {
				if b.Sign() == 0 {
					return value.Integer{}, divisionByZero()
				}
				return a.Rem(b), nil
			}),
		Unary(V1+"round", value.DoubleType, value.DoubleType, func(a value.Double) (value.Double, error) {
			return value.Double(math.RoundToEven(float64(a))), nil
		}),
		Unary(V1+"floor", value.DoubleType, value.DoubleType, func(a value.Double) (value.Double, error) {
			return value.Double(math.Floor(float64(a))), nil
		}),
		Unary(V1+"double-to-integer", value.DoubleType, value.IntegerType, doubleToInteger),
		Unary(V1+"integer-to-double", value.IntegerType, value.DoubleType, integerToDouble),
	)
}

// doubleToInteger truncates toward zero.
func doubleToInteger(d value.Double) (value.Integer, error) {
	if !d.IsFinite() {
		return value.Integer{}, xerrors.Processing("cannot convert %s to integer", d)
	}
	i, _ := big.NewFloat(math.Trunc(float64(d))).Int(nil)
	return value.IntegerFromBig(i), nil
}

func integerToDouble(i value.Integer) (value.Double, error) {
	f, finite := i.Float64()
	if !finite {
		return 0, xerrors.Processing("integer %s is out of the double range", i)
	}
	return value.Double(f), nil
}
