package parser

import (
	"fmt"
	"strings"
)

// extractContext renders the source lines around loc, marking the error
// line and column.
func extractContext(source []byte, loc Location, contextLines int) string {
	if !loc.IsValid() || len(source) == 0 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(string(source), "\n"), "\n")
	errorLine := loc.Line - 1
	if errorLine >= len(lines) {
		return ""
	}
	start := max(errorLine-contextLines, 0)
	end := min(errorLine+contextLines, len(lines)-1)

	var sb strings.Builder
	width := len(fmt.Sprint(end + 1))
	for i := start; i <= end; i++ {
		prefix := "  "
		if i == errorLine {
			prefix = "->"
		}
		fmt.Fprintf(&sb, "%s %*d | %s\n", prefix, width, i+1, lines[i])
		if i == errorLine && loc.Column > 0 {
			fmt.Fprintf(&sb, "   %s | %s^\n", strings.Repeat(" ", width), strings.Repeat(" ", loc.Column-1))
		}
	}
	return sb.String()
}

// addContext enriches every located error with its source excerpt.
func addContext(el *ErrorList, source []byte) {
	for _, e := range el.Errors {
		if e.Context == "" {
			e.Context = extractContext(source, e.Location, 2)
		}
	}
}
