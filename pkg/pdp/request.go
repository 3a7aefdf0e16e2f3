package pdp

import (
	"context"
	"strings"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
	"mercator-hq/xacmlcore/pkg/xacml/expr"
	"mercator-hq/xacmlcore/pkg/xacml/parser"
	"mercator-hq/xacmlcore/pkg/xacml/value"
)

// NewRequestContext parses the request attributes into a fresh evaluation
// context. Attributes are validated up front: a bad category, datatype or
// lexical value fails the whole request with a syntax-error.
func (r *Request) NewRequestContext(ctx context.Context, opts ...expr.RequestOption) (*expr.RequestContext, error) {
	rc := expr.NewRequestContext(ctx, opts...)
	for i, a := range r.Attributes {
		fqn, bag, err := a.parse()
		if err != nil {
			return nil, &RequestError{RequestID: r.ID, Attribute: i, Cause: err}
		}
		rc.AddAttribute(fqn, bag)
	}
	return rc, nil
}

// parse validates the attribute and parses its values.
func (a *Attribute) parse() (expr.AttributeFQN, *value.Bag, error) {
	fqn := expr.AttributeFQN{
		Category: parser.ExpandCategory(strings.TrimSpace(a.Category)),
		ID:       a.ID,
		Issuer:   a.Issuer,
	}
	if fqn.Category == "" {
		return fqn, nil, xerrors.Syntax("attribute %q has no category", a.ID)
	}
	if fqn.ID == "" {
		return fqn, nil, xerrors.Syntax("attribute in category %s has no id", fqn.Category)
	}

	dtName := a.Datatype
	if dtName == "" {
		dtName = value.StringType.ID()
	}
	dt, ok := value.LookupDatatype(dtName)
	if !ok || dt.IsBag() {
		return fqn, nil, xerrors.Syntax("attribute %s: unknown datatype %q", fqn, a.Datatype)
	}

	values := make([]value.Value, 0, len(a.Values))
	for _, lexical := range a.Values {
		v, err := value.Parse(dt, lexical)
		if err != nil {
			return fqn, nil, xerrors.Syntax("attribute %s: invalid %s value %q", fqn, dt.Short(), lexical).WithCause(err)
		}
		values = append(values, v)
	}

	bag, err := value.NewBag(dt, values...)
	if err != nil {
		return fqn, nil, xerrors.Wrap(err, "attribute %s", fqn)
	}
	return fqn, bag, nil
}
