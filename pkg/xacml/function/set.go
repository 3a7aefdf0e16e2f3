package function

import "mercator-hq/xacmlcore/pkg/xacml/value"

// valueSet is a set of values bucketed by value.Hash. Buckets resolve
// collisions with Equal.
type valueSet struct {
	buckets map[uint64][]value.Value
	order   []value.Value
}

func newValueSet(values ...value.Value) *valueSet {
	s := &valueSet{buckets: make(map[uint64][]value.Value, len(values))}
	for _, v := range values {
		s.add(v)
	}
	return s
}

// add inserts v and reports whether it was absent.
func (s *valueSet) add(v value.Value) bool {
	h := value.Hash(v)
	for _, x := range s.buckets[h] {
		if x.Equal(v) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], v)
	s.order = append(s.order, v)
	return true
}

func (s *valueSet) contains(v value.Value) bool {
	for _, x := range s.buckets[value.Hash(v)] {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

// subset reports whether every value of s is in other.
func (s *valueSet) subset(other *valueSet) bool {
	for _, v := range s.order {
		if !other.contains(v) {
			return false
		}
	}
	return true
}

func setFunctions() []Function {
	fns := make([]Function, 0, 5*len(bagTypes))
	for _, t := range bagTypes {
		dt, bagType := t.dt, t.dt.BagType()
		id := t.prefix + dt.Short()
		fns = append(fns,
			Binary(id+"-intersection", bagType, bagType, bagType, func(a, b *value.Bag) (*value.Bag, error) {
				other := newValueSet(b.Values()...)
				seen := newValueSet()
				for v := range a.All() {
					if other.contains(v) {
						seen.add(v)
					}
				}
				return value.NewBag(dt, seen.order...)
			}),
			Binary(id+"-at-least-one-member-of", bagType, bagType, value.BooleanType, func(a, b *value.Bag) (value.Boolean, error) {
				other := newValueSet(b.Values()...)
				for v := range a.All() {
					if other.contains(v) {
						return true, nil
					}
				}
				return false, nil
			}),
			Variadic(id+"-union", bagType, bagType, 2, func(bags []*value.Bag) (*value.Bag, error) {
				union := newValueSet()
				for _, b := range bags {
					for v := range b.All() {
						union.add(v)
					}
				}
				return value.NewBag(dt, union.order...)
			}),
			Binary(id+"-subset", bagType, bagType, value.BooleanType, func(a, b *value.Bag) (value.Boolean, error) {
				return value.Boolean(newValueSet(a.Values()...).subset(newValueSet(b.Values()...))), nil
			}),
			Binary(id+"-set-equals", bagType, bagType, value.BooleanType, func(a, b *value.Bag) (value.Boolean, error) {
				sa, sb := newValueSet(a.Values()...), newValueSet(b.Values()...)
				return value.Boolean(sa.subset(sb) && sb.subset(sa)), nil
			}),
		)
	}
	return fns
}
