package value

import "strings"

// Datatype identifies the kind of a value: either a primitive datatype or a
// bag of one primitive element datatype. Datatypes are compared by identifier.
type Datatype struct {
	id    string
	short string
	elem  *Datatype // element datatype, set on bag datatypes only
	bag   *Datatype // bag datatype, set on primitive datatypes only
}

func newPrimitive(id, short string) *Datatype {
	d := &Datatype{id: id, short: short}
	d.bag = &Datatype{
		id:    "bag(" + id + ")",
		short: "bag(" + short + ")",
		elem:  d,
	}
	return d
}

// Standard XACML primitive datatypes.
var (
	StringType            = newPrimitive("http://www.w3.org/2001/XMLSchema#string", "string")
	BooleanType           = newPrimitive("http://www.w3.org/2001/XMLSchema#boolean", "boolean")
	IntegerType           = newPrimitive("http://www.w3.org/2001/XMLSchema#integer", "integer")
	DoubleType            = newPrimitive("http://www.w3.org/2001/XMLSchema#double", "double")
	DateType              = newPrimitive("http://www.w3.org/2001/XMLSchema#date", "date")
	TimeType              = newPrimitive("http://www.w3.org/2001/XMLSchema#time", "time")
	DateTimeType          = newPrimitive("http://www.w3.org/2001/XMLSchema#dateTime", "dateTime")
	DayTimeDurationType   = newPrimitive("http://www.w3.org/2001/XMLSchema#dayTimeDuration", "dayTimeDuration")
	YearMonthDurationType = newPrimitive("http://www.w3.org/2001/XMLSchema#yearMonthDuration", "yearMonthDuration")
	AnyURIType            = newPrimitive("http://www.w3.org/2001/XMLSchema#anyURI", "anyURI")
	HexBinaryType         = newPrimitive("http://www.w3.org/2001/XMLSchema#hexBinary", "hexBinary")
	Base64BinaryType      = newPrimitive("http://www.w3.org/2001/XMLSchema#base64Binary", "base64Binary")
	X500NameType          = newPrimitive("urn:oasis:names:tc:xacml:1.0:data-type:x500Name", "x500Name")
	RFC822NameType        = newPrimitive("urn:oasis:names:tc:xacml:1.0:data-type:rfc822Name", "rfc822Name")
	IPAddressType         = newPrimitive("urn:oasis:names:tc:xacml:2.0:data-type:ipAddress", "ipAddress")
	DNSNameType           = newPrimitive("urn:oasis:names:tc:xacml:2.0:data-type:dnsName", "dnsName")
	XPathExpressionType   = newPrimitive("urn:oasis:names:tc:xacml:3.0:data-type:xpathExpression", "xpathExpression")
)

// FunctionType is the pseudo datatype of function reference expressions
// passed to higher-order functions. No value has this datatype.
var FunctionType = &Datatype{
	id:    "urn:oasis:names:tc:xacml:1.0:data-type:function",
	short: "function",
}

var primitives = []*Datatype{
	StringType,
	BooleanType,
	IntegerType,
	DoubleType,
	DateType,
	TimeType,
	DateTimeType,
	DayTimeDurationType,
	YearMonthDurationType,
	AnyURIType,
	HexBinaryType,
	Base64BinaryType,
	X500NameType,
	RFC822NameType,
	IPAddressType,
	DNSNameType,
	XPathExpressionType,
}

// Primitives returns all primitive datatypes.
func Primitives() []*Datatype {
	out := make([]*Datatype, len(primitives))
	copy(out, primitives)
	return out
}

// LookupDatatype finds a primitive datatype by full identifier or by short
// name ("integer", "dateTime"). Bag datatypes are found by their identifier
// or by "bag(<short>)".
func LookupDatatype(name string) (*Datatype, bool) {
	name = strings.TrimSpace(name)
	for _, d := range primitives {
		if d.id == name || d.short == name {
			return d, true
		}
		if d.bag.id == name || d.bag.short == name {
			return d.bag, true
		}
	}
	return nil, false
}

// ID returns the datatype identifier.
func (d *Datatype) ID() string {
	return d.id
}

// Short returns the short datatype name.
func (d *Datatype) Short() string {
	return d.short
}

// String returns the identifier.
func (d *Datatype) String() string {
	return d.id
}

// IsBag reports whether d is a bag datatype.
func (d *Datatype) IsBag() bool {
	return d.elem != nil
}

// ElementType returns the element datatype of a bag datatype, or nil.
func (d *Datatype) ElementType() *Datatype {
	return d.elem
}

// BagType returns the bag datatype whose elements are of datatype d, or nil
// when d is itself a bag or the function pseudo datatype.
func (d *Datatype) BagType() *Datatype {
	return d.bag
}

// Equal compares datatypes by identifier.
func (d *Datatype) Equal(other *Datatype) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.id == other.id
}
