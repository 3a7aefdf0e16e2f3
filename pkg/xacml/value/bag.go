package value

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
)

// Bag is an unordered collection of values of a single primitive datatype
// that may contain duplicates. An empty bag may carry the error that caused
// it to be empty, for instance a failed attribute lookup.
type Bag struct {
	elem   *Datatype
	values []Value
	cause  error
}

// NewBag creates a bag of element datatype elem. Every value must have that
// datatype; bags cannot be nested.
func NewBag(elem *Datatype, values ...Value) (*Bag, error) {
	if elem == nil || elem.IsBag() || elem == FunctionType {
		return nil, xerrors.Processing("invalid bag element datatype %v", elem).WithCause(xerrors.ErrTypeMismatch)
	}
	for i, v := range values {
		if err := Check(v, elem); err != nil {
			return nil, xerrors.Wrap(err, "bag value #%d", i)
		}
	}
	return &Bag{elem: elem, values: slices.Clone(values)}, nil
}

// MustBag is like NewBag but panics on error.
func MustBag(elem *Datatype, values ...Value) *Bag {
	b, err := NewBag(elem, values...)
	if err != nil {
		panic(err)
	}
	return b
}

// EmptyBag returns an empty bag of element datatype elem. cause records why
// the bag is empty and may be nil.
func EmptyBag(elem *Datatype, cause error) *Bag {
	return &Bag{elem: elem, cause: cause}
}

// Datatype returns the bag datatype.
func (b *Bag) Datatype() *Datatype { return b.elem.BagType() }

// ElementType returns the element datatype.
func (b *Bag) ElementType() *Datatype { return b.elem }

// Len returns the number of values including duplicates.
func (b *Bag) Len() int { return len(b.values) }

// IsEmpty reports whether the bag has no values.
func (b *Bag) IsEmpty() bool { return len(b.values) == 0 }

// At returns the i-th value in insertion order.
func (b *Bag) At(i int) Value { return b.values[i] }

// Values returns a copy of the values.
func (b *Bag) Values() []Value { return slices.Clone(b.values) }

// All iterates over the values.
func (b *Bag) All() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, v := range b.values {
			if !yield(v) {
				return
			}
		}
	}
}

// EmptyCause returns the reason an empty bag is empty, if known.
func (b *Bag) EmptyCause() error { return b.cause }

// Contains reports whether some value of the bag equals v.
func (b *Bag) Contains(v Value) bool {
	for _, x := range b.values {
		if x.Equal(v) {
			return true
		}
	}
	return false
}

// Equal compares bags as multisets: same element datatype and each distinct
// value occurring the same number of times.
func (b *Bag) Equal(other Value) bool {
	o, ok := other.(*Bag)
	if !ok || !b.elem.Equal(o.elem) || len(b.values) != len(o.values) {
		return false
	}
	counts := make(map[string]int, len(b.values))
	for _, v := range b.values {
		counts[v.key()]++
	}
	for _, v := range o.values {
		k := v.key()
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

func (b *Bag) String() string {
	parts := make([]string, len(b.values))
	for i, v := range b.values {
		parts[i] = v.String()
	}
	return fmt.Sprintf("bag(%s)[%s]", b.elem.Short(), strings.Join(parts, ", "))
}

func (b *Bag) key() string {
	keys := make([]string, len(b.values))
	for i, v := range b.values {
		keys[i] = v.key()
	}
	slices.Sort(keys)
	return strings.Join(keys, "\x1f")
}
