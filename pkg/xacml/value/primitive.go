package value

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"strings"
)

// Boolean is an xs:boolean value.
type Boolean bool

// Boolean constants.
const (
	True  Boolean = true
	False Boolean = false
)

// ParseBoolean parses "true", "false", "1" or "0".
func ParseBoolean(s string) (Boolean, error) {
	switch s {
	case "true", "1":
		return True, nil
	case "false", "0":
		return False, nil
	}
	return False, lexicalError("boolean", s, nil)
}

func (b Boolean) Datatype() *Datatype { return BooleanType }

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && o == b
}

func (b Boolean) key() string { return b.String() }

// String is an xs:string value.
type String string

func (s String) Datatype() *Datatype { return StringType }
func (s String) String() string      { return string(s) }
func (s String) key() string         { return string(s) }

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

// AnyURI is an xs:anyURI value.
type AnyURI string

// ParseAnyURI validates s as a URI reference.
func ParseAnyURI(s string) (AnyURI, error) {
	if _, err := url.Parse(s); err != nil {
		return "", lexicalError("anyURI", s, err)
	}
	return AnyURI(s), nil
}

func (u AnyURI) Datatype() *Datatype { return AnyURIType }
func (u AnyURI) String() string      { return string(u) }
func (u AnyURI) key() string         { return string(u) }

func (u AnyURI) Equal(other Value) bool {
	o, ok := other.(AnyURI)
	return ok && o == u
}

// XPathExpression is an XACML 3.0 xpathExpression value: a path together with
// the attribute category of the content it applies to.
type XPathExpression struct {
	path     string
	category string
}

// NewXPathExpression creates an xpathExpression value.
func NewXPathExpression(path, category string) XPathExpression {
	return XPathExpression{path: path, category: category}
}

// Path returns the XPath expression text.
func (x XPathExpression) Path() string { return x.path }

// Category returns the XPathCategory of the expression.
func (x XPathExpression) Category() string { return x.category }

func (x XPathExpression) Datatype() *Datatype { return XPathExpressionType }
func (x XPathExpression) String() string      { return x.path }
func (x XPathExpression) key() string         { return x.category + "\x00" + x.path }

func (x XPathExpression) Equal(other Value) bool {
	o, ok := other.(XPathExpression)
	return ok && o == x
}

// HexBinary is an xs:hexBinary value.
type HexBinary struct {
	b []byte
}

// NewHexBinary copies b into a hexBinary value.
func NewHexBinary(b []byte) HexBinary {
	return HexBinary{b: bytes.Clone(b)}
}

// ParseHexBinary decodes a hexadecimal string (either case).
func ParseHexBinary(s string) (HexBinary, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return HexBinary{}, lexicalError("hexBinary", s, err)
	}
	return HexBinary{b: b}, nil
}

// Bytes returns a copy of the octets.
func (h HexBinary) Bytes() []byte { return bytes.Clone(h.b) }

func (h HexBinary) Datatype() *Datatype { return HexBinaryType }
func (h HexBinary) String() string      { return strings.ToUpper(hex.EncodeToString(h.b)) }
func (h HexBinary) key() string         { return string(h.b) }

func (h HexBinary) Equal(other Value) bool {
	o, ok := other.(HexBinary)
	return ok && bytes.Equal(o.b, h.b)
}

// Base64Binary is an xs:base64Binary value.
type Base64Binary struct {
	b []byte
}

// NewBase64Binary copies b into a base64Binary value.
func NewBase64Binary(b []byte) Base64Binary {
	return Base64Binary{b: bytes.Clone(b)}
}

// ParseBase64Binary decodes standard base64; embedded whitespace is ignored.
func ParseBase64Binary(s string) (Base64Binary, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	b, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return Base64Binary{}, lexicalError("base64Binary", s, err)
	}
	return Base64Binary{b: b}, nil
}

// Bytes returns a copy of the octets.
func (b Base64Binary) Bytes() []byte { return bytes.Clone(b.b) }

func (b Base64Binary) Datatype() *Datatype { return Base64BinaryType }
func (b Base64Binary) String() string      { return base64.StdEncoding.EncodeToString(b.b) }
func (b Base64Binary) key() string         { return string(b.b) }

func (b Base64Binary) Equal(other Value) bool {
	o, ok := other.(Base64Binary)
	return ok && bytes.Equal(o.b, b.b)
}
