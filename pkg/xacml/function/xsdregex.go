package function

import (
	"fmt"
	"regexp"
	"strings"
)

// XML name character classes (XML 1.0 fifth edition) used by \i and \c.
const (
	nameStartChars = `:A-Z_a-z\x{C0}-\x{D6}\x{D8}-\x{F6}\x{F8}-\x{2FF}\x{370}-\x{37D}\x{37F}-\x{1FFF}` +
		`\x{200C}-\x{200D}\x{2070}-\x{218F}\x{2C00}-\x{2FEF}\x{3001}-\x{D7FF}\x{F900}-\x{FDCF}\x{FDF0}-\x{FFFD}`
	nameChars = nameStartChars + `\-.0-9\x{B7}\x{300}-\x{36F}\x{203F}-\x{2040}`
)

// compileXSDRegexp translates an XML Schema regular expression to RE2 syntax
// and compiles it. The match is not anchored, as with XPath fn:matches.
// Character class subtraction and Unicode block escapes are not supported.
func compileXSDRegexp(pattern string) (*regexp.Regexp, error) {
	var (
		sb      strings.Builder
		inClass bool
	)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\':
			if i+1 >= len(pattern) {
				return nil, fmt.Errorf("trailing backslash in %q", pattern)
			}
			i++
			esc := pattern[i]
			switch esc {
			case 'i', 'c':
				set := nameStartChars
				if esc == 'c' {
					set = nameChars
				}
				if inClass {
					sb.WriteString(set)
				} else {
					sb.WriteString("[" + set + "]")
				}
			case 'I', 'C':
				if inClass {
					return nil, fmt.Errorf("negated name escape \\%c inside a character class is not supported", esc)
				}
				set := nameStartChars
				if esc == 'C' {
					set = nameChars
				}
				sb.WriteString("[^" + set + "]")
			case 'p', 'P':
				if strings.HasPrefix(pattern[i+1:], "{Is") {
					return nil, fmt.Errorf("unicode block escapes are not supported in %q", pattern)
				}
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
		case c == '[' && !inClass:
			inClass = true
			sb.WriteByte(c)
			if strings.HasPrefix(pattern[i+1:], "^") {
				sb.WriteByte('^')
				i++
			}
		case c == '-' && inClass && i+1 < len(pattern) && pattern[i+1] == '[':
			return nil, fmt.Errorf("character class subtraction is not supported in %q", pattern)
		case c == ']' && inClass:
			inClass = false
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	if inClass {
		return nil, fmt.Errorf("unterminated character class in %q", pattern)
	}
	return regexp.Compile(sb.String())
}
