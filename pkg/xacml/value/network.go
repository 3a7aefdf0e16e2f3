package value

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"
)

// PortRange is an inclusive TCP/UDP port range. A bound of -1 is open. The
// zero value is not set; use AnyPort for "all ports".
type PortRange struct {
	set    bool
	lo, hi int
}

// AnyPort matches every port.
var AnyPort = PortRange{set: true, lo: -1, hi: -1}

// ParsePortRange parses "n", "n-", "-n" or "n-m".
func ParsePortRange(s string) (PortRange, error) {
	if s == "" || s == "-" {
		return PortRange{}, fmt.Errorf("empty port range")
	}
	lo, hi := s, s
	if i := strings.IndexByte(s, '-'); i >= 0 {
		lo, hi = s[:i], s[i+1:]
	}
	r := PortRange{set: true, lo: -1, hi: -1}
	var err error
	if lo != "" {
		if r.lo, err = parsePort(lo); err != nil {
			return PortRange{}, err
		}
	}
	if hi != "" {
		if r.hi, err = parsePort(hi); err != nil {
			return PortRange{}, err
		}
	}
	if r.lo >= 0 && r.hi >= 0 && r.lo > r.hi {
		return PortRange{}, fmt.Errorf("port range %q is inverted", s)
	}
	return r, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return p, nil
}

// IsSet reports whether a port range was given.
func (r PortRange) IsSet() bool { return r.set }

// Contains reports whether port lies within the range. An unset range
// contains every port.
func (r PortRange) Contains(port int) bool {
	if !r.set {
		return true
	}
	return (r.lo < 0 || port >= r.lo) && (r.hi < 0 || port <= r.hi)
}

func (r PortRange) String() string {
	if !r.set {
		return ""
	}
	if r.lo >= 0 && r.lo == r.hi {
		return strconv.Itoa(r.lo)
	}
	var sb strings.Builder
	if r.lo >= 0 {
		sb.WriteString(strconv.Itoa(r.lo))
	}
	sb.WriteByte('-')
	if r.hi >= 0 {
		sb.WriteString(strconv.Itoa(r.hi))
	}
	return sb.String()
}

// IPAddress is an ipAddress value: an IPv4 or IPv6 address with an optional
// network mask and port range.
type IPAddress struct {
	addr  netip.Addr
	mask  netip.Addr
	ports PortRange
}

// ParseIPAddress parses "a.b.c.d[/mask][:ports]" or "[v6][/[mask]][:ports]".
func ParseIPAddress(s string) (IPAddress, error) {
	var (
		ip  IPAddress
		err error
	)
	if strings.HasPrefix(s, "[") {
		ip, err = parseIPv6Address(s)
	} else {
		ip, err = parseIPv4Address(s)
	}
	if err != nil {
		return IPAddress{}, lexicalError("ipAddress", s, err)
	}
	return ip, nil
}

func parseIPv4Address(s string) (IPAddress, error) {
	var ip IPAddress
	rest := s
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		ports, err := ParsePortRange(rest[i+1:])
		if err != nil {
			return ip, err
		}
		ip.ports = ports
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		mask, err := netip.ParseAddr(rest[i+1:])
		if err != nil || !mask.Is4() {
			return ip, fmt.Errorf("invalid IPv4 mask %q", rest[i+1:])
		}
		ip.mask = mask
		rest = rest[:i]
	}
	addr, err := netip.ParseAddr(rest)
	if err != nil || !addr.Is4() {
		return ip, fmt.Errorf("invalid IPv4 address %q", rest)
	}
	ip.addr = addr
	return ip, nil
}

func parseIPv6Address(s string) (IPAddress, error) {
	var ip IPAddress
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return ip, fmt.Errorf("unterminated IPv6 address")
	}
	addr, err := netip.ParseAddr(s[1:end])
	if err != nil || !addr.Is6() {
		return ip, fmt.Errorf("invalid IPv6 address %q", s[1:end])
	}
	ip.addr = addr
	rest := s[end+1:]
	if strings.HasPrefix(rest, "/") {
		rest = rest[1:]
		if !strings.HasPrefix(rest, "[") {
			return ip, fmt.Errorf("IPv6 mask must be bracketed")
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return ip, fmt.Errorf("unterminated IPv6 mask")
		}
		mask, err := netip.ParseAddr(rest[1:end])
		if err != nil || !mask.Is6() {
			return ip, fmt.Errorf("invalid IPv6 mask %q", rest[1:end])
		}
		ip.mask = mask
		rest = rest[end+1:]
	}
	if rest != "" {
		if !strings.HasPrefix(rest, ":") {
			return ip, fmt.Errorf("unexpected %q after address", rest)
		}
		ports, err := ParsePortRange(rest[1:])
		if err != nil {
			return ip, err
		}
		ip.ports = ports
	}
	return ip, nil
}

// Addr returns the address part.
func (ip IPAddress) Addr() netip.Addr { return ip.addr }

// Mask returns the network mask, invalid when absent.
func (ip IPAddress) Mask() netip.Addr { return ip.mask }

// Ports returns the port range.
func (ip IPAddress) Ports() PortRange { return ip.ports }

func (ip IPAddress) Datatype() *Datatype { return IPAddressType }

func (ip IPAddress) String() string {
	var sb strings.Builder
	if ip.addr.Is6() {
		sb.WriteString("[" + ip.addr.String() + "]")
		if ip.mask.IsValid() {
			sb.WriteString("/[" + ip.mask.String() + "]")
		}
	} else {
		sb.WriteString(ip.addr.String())
		if ip.mask.IsValid() {
			sb.WriteString("/" + ip.mask.String())
		}
	}
	if ip.ports.IsSet() {
		sb.WriteString(":" + ip.ports.String())
	}
	return sb.String()
}

func (ip IPAddress) key() string { return ip.String() }

func (ip IPAddress) Equal(other Value) bool {
	o, ok := other.(IPAddress)
	return ok && ip.addr == o.addr && ip.mask == o.mask && ip.ports == o.ports
}

// DNSName is a dnsName value: a host name, optionally with a leading "*."
// wildcard, and an optional port range.
type DNSName struct {
	host  string
	ports PortRange
}

var dnsLabelRE = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)

// ParseDNSName parses "hostname[:ports]".
func ParseDNSName(s string) (DNSName, error) {
	var n DNSName
	host := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		ports, err := ParsePortRange(s[i+1:])
		if err != nil {
			return DNSName{}, lexicalError("dnsName", s, err)
		}
		n.ports = ports
		host = s[:i]
	}
	labels := strings.Split(strings.TrimSuffix(host, "."), ".")
	for i, label := range labels {
		if i == 0 && label == "*" && len(labels) > 1 {
			continue
		}
		if !dnsLabelRE.MatchString(label) {
			return DNSName{}, lexicalError("dnsName", s, fmt.Errorf("invalid label %q", label))
		}
	}
	n.host = host
	return n, nil
}

// Host returns the host name.
func (n DNSName) Host() string { return n.host }

// Ports returns the port range.
func (n DNSName) Ports() PortRange { return n.ports }

// IsWildcard reports whether the name starts with "*.".
func (n DNSName) IsWildcard() bool { return strings.HasPrefix(n.host, "*.") }

func (n DNSName) Datatype() *Datatype { return DNSNameType }

func (n DNSName) String() string {
	if n.ports.IsSet() {
		return n.host + ":" + n.ports.String()
	}
	return n.host
}

func (n DNSName) key() string {
	k := strings.ToLower(strings.TrimSuffix(n.host, "."))
	if n.ports.IsSet() {
		k += ":" + n.ports.String()
	}
	return k
}

// Equal compares host names case-insensitively.
func (n DNSName) Equal(other Value) bool {
	o, ok := other.(DNSName)
	return ok && n.key() == o.key()
}
