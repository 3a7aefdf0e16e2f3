package value

import (
	"errors"
	"testing"

	xerrors "mercator-hq/xacmlcore/pkg/xacml/errors"
)

func TestParse_CanonicalForm(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		in   string
		want string
	}{
		{"string keeps whitespace", StringType, "  Hello ", "  Hello "},
		{"boolean numeric", BooleanType, "1", "true"},
		{"boolean", BooleanType, " false ", "false"},
		{"integer leading zeros", IntegerType, "-0012", "-12"},
		{"integer beyond int64", IntegerType, "123456789012345678901234567890", "123456789012345678901234567890"},
		{"double", DoubleType, "1.5", "1.5"},
		{"double exponent", DoubleType, "1e3", "1000"},
		{"double infinity", DoubleType, "INF", "INF"},
		{"double negative infinity", DoubleType, "-INF", "-INF"},
		{"double NaN", DoubleType, "NaN", "NaN"},
		{"dateTime utc", DateTimeType, "2002-05-30T09:30:10Z", "2002-05-30T09:30:10Z"},
		{"dateTime offset and fraction", DateTimeType, "2002-05-30T09:30:10.500-06:00", "2002-05-30T09:30:10.5-06:00"},
		{"dateTime end of day", DateTimeType, "2002-05-30T24:00:00Z", "2002-05-31T00:00:00Z"},
		{"dateTime local", DateTimeType, "2002-05-30T09:30:10", "2002-05-30T09:30:10"},
		{"date", DateType, "2002-09-24", "2002-09-24"},
		{"date with zone", DateType, "2002-09-24+02:00", "2002-09-24+02:00"},
		{"time", TimeType, "13:20:00+01:00", "13:20:00+01:00"},
		{"dayTimeDuration", DayTimeDurationType, "P1DT2H", "P1DT2H"},
		{"dayTimeDuration normalized", DayTimeDurationType, "PT26H", "P1DT2H"},
		{"dayTimeDuration fraction", DayTimeDurationType, "-PT3.500S", "-PT3.5S"},
		{"dayTimeDuration zero", DayTimeDurationType, "PT0S", "PT0S"},
		{"yearMonthDuration", YearMonthDurationType, "P14M", "P1Y2M"},
		{"yearMonthDuration negative", YearMonthDurationType, "-P2Y", "-P2Y"},
		{"anyURI", AnyURIType, "http://example.com/a?b=c", "http://example.com/a?b=c"},
		{"hexBinary", HexBinaryType, "0fB7", "0FB7"},
		{"base64Binary whitespace", Base64BinaryType, "aGVs bG8=", "aGVsbG8="},
		{"x500Name", X500NameType, "cn=John Smith, o=Medico Corp, c=US", "cn=John Smith, o=Medico Corp, c=US"},
		{"rfc822Name", RFC822NameType, "Anderson@SUN.COM", "Anderson@SUN.COM"},
		{"ipv4", IPAddressType, "10.0.0.1", "10.0.0.1"},
		{"ipv4 mask and ports", IPAddressType, "10.0.0.1/255.0.0.0:80-443", "10.0.0.1/255.0.0.0:80-443"},
		{"ipv4 open port range", IPAddressType, "10.0.0.1:1024-", "10.0.0.1:1024-"},
		{"ipv6 mask and port", IPAddressType, "[::1]/[ffff::]:8080", "[::1]/[ffff::]:8080"},
		{"dnsName wildcard", DNSNameType, "*.Example.com:80", "*.Example.com:80"},
		{"dnsName upper port bound", DNSNameType, "example.com:-1024", "example.com:-1024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.dt, tt.in)
			if err != nil {
				t.Fatalf("Parse(%s, %q) failed: %v", tt.dt.Short(), tt.in, err)
			}
			if !v.Datatype().Equal(tt.dt) {
				t.Errorf("Datatype() = %s, want %s", v.Datatype(), tt.dt)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_InvalidLexical(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		in   string
	}{
		{"integer decimal", IntegerType, "1.0"},
		{"integer empty", IntegerType, ""},
		{"integer hex", IntegerType, "0x10"},
		{"boolean word", BooleanType, "yes"},
		{"double garbage", DoubleType, "1.2.3"},
		{"double lowercase inf", DoubleType, "inf"},
		{"date month", DateType, "2002-13-01"},
		{"date day", DateType, "2002-02-30"},
		{"time hour", TimeType, "25:00:00"},
		{"time end of day with minutes", TimeType, "24:30:00"},
		{"dateTime zone", DateTimeType, "2002-05-30T09:30:10+15:00"},
		{"dayTimeDuration years", DayTimeDurationType, "P1Y"},
		{"dayTimeDuration dangling T", DayTimeDurationType, "PT"},
		{"yearMonthDuration days", YearMonthDurationType, "P1D"},
		{"hexBinary odd", HexBinaryType, "abc"},
		{"base64Binary", Base64BinaryType, "***"},
		{"ipv4 octet", IPAddressType, "10.0.0.256"},
		{"ipv6 unterminated", IPAddressType, "[::1"},
		{"ipv4 inverted ports", IPAddressType, "10.0.0.1:443-80"},
		{"dnsName underscore", DNSNameType, "bad_host.com"},
		{"rfc822Name no at", RFC822NameType, "nobody"},
		{"x500Name no type", X500NameType, "cn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.dt, tt.in)
			if err == nil {
				t.Fatalf("Parse(%s, %q) succeeded, want error", tt.dt.Short(), tt.in)
			}
			if !errors.Is(err, xerrors.ErrInvalidLexical) {
				t.Errorf("Parse() error = %v, want ErrInvalidLexical", err)
			}
		})
	}
}

func TestParse_RejectsBagAndFunctionTypes(t *testing.T) {
	if _, err := Parse(IntegerType.BagType(), "1"); err == nil {
		t.Error("Parse(bag) should fail")
	}
	if _, err := Parse(FunctionType, "x"); err == nil {
		t.Error("Parse(function) should fail")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		dt   *Datatype
		a, b string
		want bool
	}{
		{"x500 case and spacing", X500NameType, "cn=John Smith, o=Medico Corp, c=US", "CN=john  smith,O=Medico Corp,C=us", true},
		{"x500 multi-valued rdn order", X500NameType, "cn=a+uid=b,o=x", "uid=b+cn=a,o=x", true},
		{"x500 different", X500NameType, "cn=a,o=x", "cn=a,o=y", false},
		{"rfc822 domain case", RFC822NameType, "Anderson@SUN.COM", "Anderson@sun.com", true},
		{"rfc822 local case", RFC822NameType, "Anderson@sun.com", "anderson@sun.com", false},
		{"double signed zero", DoubleType, "-0", "0", true},
		{"double NaN", DoubleType, "NaN", "NaN", false},
		{"dateTime same instant", DateTimeType, "2002-05-30T09:30:10-06:00", "2002-05-30T15:30:10Z", true},
		{"dateTime local is utc", DateTimeType, "2002-05-30T09:30:10", "2002-05-30T09:30:10Z", true},
		{"time same instant", TimeType, "10:00:00+01:00", "09:00:00Z", true},
		{"dnsName case", DNSNameType, "WWW.example.com", "www.EXAMPLE.com", true},
		{"hexBinary case", HexBinaryType, "0fb7", "0FB7", true},
		{"integer", IntegerType, "007", "7", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustParse(tt.dt, tt.a)
			b := MustParse(tt.dt, tt.b)
			if got := a.Equal(b); got != tt.want {
				t.Errorf("%s.Equal(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if tt.want && Hash(a) != Hash(b) {
				t.Errorf("equal values hash differently")
			}
		})
	}
}

func TestEqual_DifferentDatatypes(t *testing.T) {
	if String("1").Equal(NewInteger(1)) {
		t.Error("string and integer must not be equal")
	}
	if AnyURI("urn:a").Equal(String("urn:a")) {
		t.Error("anyURI and string must not be equal")
	}
	if Hash(AnyURI("urn:a")) == Hash(String("urn:a")) {
		t.Error("hash must include the datatype")
	}
}

func TestAs(t *testing.T) {
	i, err := As[Integer](NewInteger(3))
	if err != nil {
		t.Fatalf("As[Integer] failed: %v", err)
	}
	if n, _ := i.Int64(); n != 3 {
		t.Errorf("Int64() = %d, want 3", n)
	}

	_, err = As[Integer](String("3"))
	if err == nil {
		t.Fatal("As[Integer](string) should fail")
	}
	if xerrors.CodeOf(err) != xerrors.StatusProcessingError {
		t.Errorf("code = %s, want processing-error", xerrors.CodeOf(err))
	}
	if !errors.Is(err, xerrors.ErrTypeMismatch) {
		t.Errorf("error should wrap ErrTypeMismatch")
	}
}

func TestLookupDatatype(t *testing.T) {
	tests := []struct {
		name string
		want *Datatype
	}{
		{"integer", IntegerType},
		{"http://www.w3.org/2001/XMLSchema#dateTime", DateTimeType},
		{"bag(string)", StringType.BagType()},
		{"bag(http://www.w3.org/2001/XMLSchema#boolean)", BooleanType.BagType()},
		{"urn:oasis:names:tc:xacml:2.0:data-type:ipAddress", IPAddressType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupDatatype(tt.name)
			if !ok || got != tt.want {
				t.Errorf("LookupDatatype(%q) = %v, %v; want %v", tt.name, got, ok, tt.want)
			}
		})
	}
	if _, ok := LookupDatatype("float"); ok {
		t.Error("LookupDatatype(float) should fail")
	}
}

func TestDatatype_BagRelations(t *testing.T) {
	bag := IntegerType.BagType()
	if !bag.IsBag() || IntegerType.IsBag() {
		t.Error("IsBag() mismatch")
	}
	if bag.ElementType() != IntegerType {
		t.Error("ElementType() should return the primitive")
	}
	if bag.BagType() != nil {
		t.Error("a bag has no bag type")
	}
	if len(Primitives()) != 17 {
		t.Errorf("len(Primitives()) = %d, want 17", len(Primitives()))
	}
}
