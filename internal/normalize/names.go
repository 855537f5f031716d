package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// Name lowercases, collapses whitespace, and trims the input.
func Name(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return multiSpace.ReplaceAllString(s, " ")
}

// Names applies Name to every entry and drops the ones that end up empty.
func Names(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := Name(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// CategoryKey turns a free-form category label ("Room Rent", "ICU") into the
// snake_case shape used by charge categories.
func CategoryKey(s string) string {
	return strings.ReplaceAll(Name(s), " ", "_")
}
