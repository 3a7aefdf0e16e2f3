package expr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// ErrAttributeNotFound is the cause recorded on the empty bag of an attribute
// neither the request nor the attribute provider supplies.
var ErrAttributeNotFound = errors.New("attribute not found")

// Context is the per-request evaluation context expressions read from.
type Context interface {
	// Resolve returns the bag of values of an attribute. Repeated calls with
	// the same arguments return the same result for the lifetime of the
	// context. When mustBePresent is set, an empty result is a
	// missing-attribute Indeterminate.
	Resolve(attr AttributeFQN, dt *value.Datatype, mustBePresent bool) (*value.Bag, error)

	// Variable returns the cached value of a variable.
	Variable(id string) (value.Value, bool)

	// SetVariable caches the value of a variable.
	SetVariable(id string, v value.Value)
}

// AttributeProvider supplies attributes the request does not carry.
type AttributeProvider interface {
	// Provide returns the bag of values of attr with element datatype dt. An
	// empty bag means the provider has no value.
	Provide(ctx context.Context, attr AttributeFQN, dt *value.Datatype) (*value.Bag, error)
}

// AttributeProviderFunc adapts a function to AttributeProvider.
type AttributeProviderFunc func(ctx context.Context, attr AttributeFQN, dt *value.Datatype) (*value.Bag, error)

// Provide calls f.
func (f AttributeProviderFunc) Provide(ctx context.Context, attr AttributeFQN, dt *value.Datatype) (*value.Bag, error) {
	return f(ctx, attr, dt)
}

type resolveKey struct {
	attr     AttributeFQN
	datatype string
}

type resolved struct {
	bag *value.Bag
	err error
}

type requestAttribute struct {
	attr AttributeFQN
	bag  *value.Bag
}

// CacheStats counts attribute resolutions of a RequestContext.
type CacheStats struct {
	Hits   int
	Misses int
}

// RequestContext is the Context of a single decision request. It caches every
// attribute resolution, failures included, and every variable value.
//
// A RequestContext is not safe for concurrent use.
type RequestContext struct {
	// ctx is handed to the attribute provider
	ctx context.Context

	// attributes holds the attributes carried by the request
	attributes []requestAttribute

	// provider resolves attributes absent from the request
	provider AttributeProvider

	// cache memoizes Resolve results by attribute and datatype
	cache map[resolveKey]resolved

	// variables memoizes variable values
	variables map[string]value.Value

	stats  CacheStats
	logger *slog.Logger
}

// RequestOption configures a RequestContext.
type RequestOption func(*RequestContext)

// WithProvider sets the provider consulted for attributes missing from the
// request.
func WithProvider(p AttributeProvider) RequestOption {
	return func(c *RequestContext) {
		c.provider = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RequestOption {
	return func(c *RequestContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRequestContext creates an empty evaluation context.
func NewRequestContext(ctx context.Context, opts ...RequestOption) *RequestContext {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &RequestContext{
		ctx:       ctx,
		cache:     make(map[resolveKey]resolved),
		variables: make(map[string]value.Value),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddAttribute adds request attribute values. Values added for the same
// attribute and datatype accumulate. Attributes must be added before
// evaluation starts.
func (c *RequestContext) AddAttribute(attr AttributeFQN, bag *value.Bag) {
	c.attributes = append(c.attributes, requestAttribute{attr: attr, bag: bag})
}

// Ctx returns the context.Context the request was created with.
func (c *RequestContext) Ctx() context.Context {
	return c.ctx
}

// Stats returns the attribute cache statistics.
func (c *RequestContext) Stats() CacheStats {
	return c.stats
}

// Resolve implements Context. Request attributes match on category, id and
// datatype; a designator issuer additionally restricts the match to that
// issuer.
func (c *RequestContext) Resolve(attr AttributeFQN, dt *value.Datatype, mustBePresent bool) (*value.Bag, error) {
	key := resolveKey{attr: attr, datatype: dt.ID()}
	r, ok := c.cache[key]
	if !ok {
		c.stats.Misses++
		r = c.lookup(attr, dt)
		c.cache[key] = r
	} else {
		c.stats.Hits++
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.bag.IsEmpty() && mustBePresent {
		return nil, xerrors.MissingAttribute("missing attribute %s of datatype %s", attr, dt.Short()).
			WithCause(r.bag.EmptyCause())
	}
	return r.bag, nil
}

func (c *RequestContext) lookup(attr AttributeFQN, dt *value.Datatype) resolved {
	var values []value.Value
	for _, ra := range c.attributes {
		if ra.attr.Category != attr.Category || ra.attr.ID != attr.ID {
			continue
		}
		if attr.Issuer != "" && ra.attr.Issuer != attr.Issuer {
			continue
		}
		if !ra.bag.ElementType().Equal(dt) {
			continue
		}
		values = append(values, ra.bag.Values()...)
	}
	if len(values) > 0 {
		bag, err := value.NewBag(dt, values...)
		return resolved{bag: bag, err: err}
	}

	if c.provider == nil {
		return resolved{bag: value.EmptyBag(dt, fmt.Errorf("%w in request", ErrAttributeNotFound))}
	}

	c.logger.Debug("resolving attribute from provider",
		"attribute", attr.String(),
		"datatype", dt.Short(),
	)
	bag, err := c.provider.Provide(c.ctx, attr, dt)
	if err != nil {
		c.logger.Warn("attribute provider failed",
			"attribute", attr.String(),
			"error", err,
		)
		return resolved{err: xerrors.Wrap(err, "attribute provider failed for %s", attr)}
	}
	if bag == nil || (bag.IsEmpty() && bag.EmptyCause() == nil) {
		return resolved{bag: value.EmptyBag(dt, fmt.Errorf("%w in request or attribute provider", ErrAttributeNotFound))}
	}
	if !bag.ElementType().Equal(dt) {
		return resolved{err: xerrors.Processing("attribute provider returned %s for %s, expected %s",
			bag.Datatype().Short(), attr, dt.BagType().Short()).WithCause(xerrors.ErrTypeMismatch)}
	}
	return resolved{bag: bag}
}

// Variable implements Context.
func (c *RequestContext) Variable(id string) (value.Value, bool) {
	v, ok := c.variables[id]
	return v, ok
}

// SetVariable implements Context.
func (c *RequestContext) SetVariable(id string, v value.Value) {
	c.variables[id] = v
}

// WithVariableScope returns a Context whose variable cache is private to
// scope. Attribute resolution stays shared with ctx. Rule sets evaluated
// against one request each get their own scope, so equally named variables
// do not collide.
func WithVariableScope(ctx Context, scope string) Context {
	return &scopedContext{Context: ctx, prefix: scope + "\x00"}
}

type scopedContext struct {
	Context
	prefix string
}

func (s *scopedContext) Variable(id string) (value.Value, bool) {
	return s.Context.Variable(s.prefix + id)
}

func (s *scopedContext) SetVariable(id string, v value.Value) {
	s.Context.SetVariable(s.prefix+id, v)
}
