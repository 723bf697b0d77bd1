package content

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultSlug replaces a base that has no slug characters.
const DefaultSlug = "untitled"

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, collapses every run of characters outside [a-z0-9] into one "-"
// and trims leading and trailing dashes. Non-ASCII letters are treated as separators.
func Slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// EnsureUnique returns base when it is not in existing, otherwise the first of
// base-1, base-2, ... that is free. An empty base becomes [DefaultSlug] first.
func EnsureUnique(base string, existing []string) string {
	if strings.TrimSpace(base) == "" {
		base = DefaultSlug
	}

	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[s] = struct{}{}
	}

	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
