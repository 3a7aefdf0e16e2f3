package parser

import (
	"fmt"
	"strings"
)

// suggest proposes the closest candidate to an unknown name using the
// Levenshtein distance.
func suggest(unknown string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	best, bestDistance := "", len(unknown)+1
	for _, c := range candidates {
		if d := levenshteinDistance(unknown, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	if bestDistance < 5 && bestDistance < len(unknown) {
		return fmt.Sprintf("Did you mean %q?", best)
	}
	if len(candidates) > 5 {
		return fmt.Sprintf("Valid names include: %s, ...", strings.Join(candidates[:5], ", "))
	}
	return fmt.Sprintf("Valid names: %s", strings.Join(candidates, ", "))
}

func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
