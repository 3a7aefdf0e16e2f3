package value

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// X500Name is an X.500 distinguished name in RFC 2253 string form. Equality
// compares the normalized relative distinguished names: attribute types and
// values are case-insensitive and insignificant whitespace is ignored.
type X500Name struct {
	raw  string
	rdns []string // normalized RDNs, most specific first
}

// ParseX500Name parses an RFC 2253 distinguished name.
func ParseX500Name(s string) (X500Name, error) {
	if s == "" {
		return X500Name{}, nil
	}
	parts, err := splitUnescaped(s, ",;")
	if err != nil {
		return X500Name{}, lexicalError("x500Name", s, err)
	}
	rdns := make([]string, 0, len(parts))
	for _, part := range parts {
		rdn, err := normalizeRDN(part)
		if err != nil {
			return X500Name{}, lexicalError("x500Name", s, err)
		}
		rdns = append(rdns, rdn)
	}
	return X500Name{raw: s, rdns: rdns}, nil
}

func normalizeRDN(rdn string) (string, error) {
	avas, err := splitUnescaped(rdn, "+")
	if err != nil {
		return "", err
	}
	normalized := make([]string, 0, len(avas))
	for _, ava := range avas {
		eq := strings.IndexByte(ava, '=')
		if eq <= 0 {
			return "", fmt.Errorf("attribute value assertion %q has no type", ava)
		}
		typ := strings.ToLower(strings.TrimSpace(ava[:eq]))
		val, err := unescapeDNValue(strings.TrimSpace(ava[eq+1:]))
		if err != nil {
			return "", err
		}
		val = strings.ToLower(strings.Join(strings.Fields(val), " "))
		normalized = append(normalized, typ+"="+escapeDNValue(val))
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "+"), nil
}

// splitUnescaped splits s on any separator byte that is neither escaped with
// a backslash nor inside a quoted string.
func splitUnescaped(s, seps string) ([]string, error) {
	var (
		parts   []string
		start   int
		quoted  bool
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case !quoted && strings.IndexByte(seps, c) >= 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if escaped || quoted {
		return nil, fmt.Errorf("unterminated escape or quote")
	}
	parts = append(parts, s[start:])
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("empty component")
		}
	}
	return parts, nil
}

func unescapeDNValue(v string) (string, error) {
	if strings.HasPrefix(v, "#") {
		b, err := hex.DecodeString(v[1:])
		if err != nil {
			return "", fmt.Errorf("invalid hex value %q", v)
		}
		return string(b), nil
	}
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(v) {
			return "", fmt.Errorf("dangling escape in %q", v)
		}
		if i+2 < len(v) && isHex(v[i+1]) && isHex(v[i+2]) {
			b, _ := hex.DecodeString(v[i+1 : i+3])
			sb.Write(b)
			i += 2
			continue
		}
		sb.WriteByte(v[i+1])
		i++
	}
	return sb.String(), nil
}

// escapeDNValue escapes the characters that separate types, values and RDNs
// so that normalized names compare unambiguously.
func escapeDNValue(v string) string {
	if !strings.ContainsAny(v, `\,+="<>;#`) {
		return v
	}
	var sb strings.Builder
	for i := 0; i < len(v); i++ {
		if strings.IndexByte(`\,+="<>;#`, v[i]) >= 0 {
			sb.WriteByte('\\')
		}
		sb.WriteByte(v[i])
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// RDNCount returns the number of relative distinguished names.
func (n X500Name) RDNCount() int { return len(n.rdns) }

// MatchesTerminal reports whether n equals some terminal sequence of the RDNs
// of other, i.e. other is n or an entry below n in the directory tree.
func (n X500Name) MatchesTerminal(other X500Name) bool {
	if len(n.rdns) > len(other.rdns) {
		return false
	}
	offset := len(other.rdns) - len(n.rdns)
	for i, rdn := range n.rdns {
		if other.rdns[offset+i] != rdn {
			return false
		}
	}
	return true
}

func (n X500Name) Datatype() *Datatype { return X500NameType }
func (n X500Name) String() string      { return n.raw }
func (n X500Name) key() string         { return strings.Join(n.rdns, ",") }

func (n X500Name) Equal(other Value) bool {
	o, ok := other.(X500Name)
	return ok && n.key() == o.key()
}

// RFC822Name is an e-mail address "local@domain". The local part is
// case-sensitive, the domain part is not.
type RFC822Name struct {
	local  string
	domain string
}

// ParseRFC822Name parses "local@domain".
func ParseRFC822Name(s string) (RFC822Name, error) {
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t\r\n") {
		return RFC822Name{}, lexicalError("rfc822Name", s, nil)
	}
	return RFC822Name{local: s[:at], domain: s[at+1:]}, nil
}

// Local returns the local part.
func (n RFC822Name) Local() string { return n.local }

// Domain returns the domain part as written.
func (n RFC822Name) Domain() string { return n.domain }

// Match applies the rfc822Name-match pattern semantics: a full mailbox
// matches exactly (domain case-insensitively), a domain matches the whole
// domain part, and a pattern starting with "." matches any subdomain.
func (n RFC822Name) Match(pattern string) bool {
	if strings.Contains(pattern, "@") {
		p, err := ParseRFC822Name(pattern)
		return err == nil && p.Equal(n)
	}
	domain := strings.ToLower(n.domain)
	pattern = strings.ToLower(pattern)
	if strings.HasPrefix(pattern, ".") {
		return strings.HasSuffix(domain, pattern)
	}
	return domain == pattern
}

func (n RFC822Name) Datatype() *Datatype { return RFC822NameType }
func (n RFC822Name) String() string      { return n.local + "@" + n.domain }
func (n RFC822Name) key() string         { return n.local + "@" + strings.ToLower(n.domain) }

func (n RFC822Name) Equal(other Value) bool {
	o, ok := other.(RFC822Name)
	return ok && n.local == o.local && strings.EqualFold(n.domain, o.domain)
}
