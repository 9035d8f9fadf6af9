package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// CleanText collapses internal whitespace and trims the input.
func CleanText(s string) string {
	return multiSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

// OptText is CleanText that returns nil for an empty result.
func OptText(s string) *string {
	s = CleanText(s)
	if s == "" {
		return nil
	}
	return &s
}
