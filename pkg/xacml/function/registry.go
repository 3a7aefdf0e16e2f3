package function

import (
	"fmt"
	"maps"
	"slices"

	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// GenericFactory creates instances of a generic higher-order function, such
// as map, for a given sub-function return datatype.
type GenericFactory interface {
	// ID returns the function identifier.
	ID() string

	// Instantiate returns the function specialized for subReturn.
	Instantiate(subReturn *value.Datatype) (Function, error)
}

// Registry maps function identifiers to functions. A Registry is immutable
// once built and safe for concurrent use.
type Registry struct {
	functions map[string]Function
	generics  map[string]GenericFactory
}

// NewRegistry builds a registry from plain functions and generic factories.
// Identifiers must be unique across both.
func NewRegistry(functions []Function, generics []GenericFactory) (*Registry, error) {
	r := &Registry{
		functions: make(map[string]Function, len(functions)),
		generics:  make(map[string]GenericFactory, len(generics)),
	}
	if err := r.add(functions, generics); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) add(functions []Function, generics []GenericFactory) error {
	for _, fn := range functions {
		if err := r.checkNew(fn.ID()); err != nil {
			return err
		}
		r.functions[fn.ID()] = fn
	}
	for _, g := range generics {
		if err := r.checkNew(g.ID()); err != nil {
			return err
		}
		r.generics[g.ID()] = g
	}
	return nil
}

func (r *Registry) checkNew(id string) error {
	if id == "" {
		return fmt.Errorf("function with empty identifier")
	}
	_, plain := r.functions[id]
	_, generic := r.generics[id]
	if plain || generic {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, id)
	}
	return nil
}

// Extend returns a new registry with additional functions. The receiver is
// not modified.
func (r *Registry) Extend(functions []Function, generics []GenericFactory) (*Registry, error) {
	ext := &Registry{
		functions: maps.Clone(r.functions),
		generics:  maps.Clone(r.generics),
	}
	if err := ext.add(functions, generics); err != nil {
		return nil, err
	}
	return ext, nil
}

// Lookup returns a non-generic function.
func (r *Registry) Lookup(id string) (Function, bool) {
	fn, ok := r.functions[id]
	return fn, ok
}

// LookupGeneric instantiates a generic function for the return datatype of
// its sub-function.
func (r *Registry) LookupGeneric(id string, subReturn *value.Datatype) (Function, bool) {
	g, ok := r.generics[id]
	if !ok {
		return nil, false
	}
	fn, err := g.Instantiate(subReturn)
	if err != nil {
		return nil, false
	}
	return fn, true
}

// IsGeneric reports whether id names a generic function.
func (r *Registry) IsGeneric(id string) bool {
	_, ok := r.generics[id]
	return ok
}

// IDs returns every registered identifier in sorted order.
func (r *Registry) IDs() []string {
	ids := slices.Collect(maps.Keys(r.functions))
	ids = append(ids, slices.Collect(maps.Keys(r.generics))...)
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered identifiers.
func (r *Registry) Len() int {
	return len(r.functions) + len(r.generics)
}

// RegistryOption configures NewStandardRegistry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	exclude    map[string]bool
	extensions []Function
	generics   []GenericFactory
}

// WithExclude leaves the given identifiers out of the standard catalog.
func WithExclude(ids ...string) RegistryOption {
	return func(o *registryOptions) {
		for _, id := range ids {
			o.exclude[id] = true
		}
	}
}

// WithExtensions adds vendor functions to the standard catalog.
func WithExtensions(functions ...Function) RegistryOption {
	return func(o *registryOptions) {
		o.extensions = append(o.extensions, functions...)
	}
}

// WithGenericExtensions adds vendor generic functions.
func WithGenericExtensions(generics ...GenericFactory) RegistryOption {
	return func(o *registryOptions) {
		o.generics = append(o.generics, generics...)
	}
}

// NewStandardRegistry builds a registry holding the standard function
// catalog.
func NewStandardRegistry(opts ...RegistryOption) (*Registry, error) {
	o := &registryOptions{exclude: make(map[string]bool)}
	for _, opt := range opts {
		opt(o)
	}

	var functions []Function
	for _, fn := range StandardFunctions() {
		if !o.exclude[fn.ID()] {
			functions = append(functions, fn)
		}
	}
	var generics []GenericFactory
	for _, g := range StandardGenerics() {
		if !o.exclude[g.ID()] {
			generics = append(generics, g)
		}
	}

	functions = append(functions, o.extensions...)
	generics = append(generics, o.generics...)
	return NewRegistry(functions, generics)
}
