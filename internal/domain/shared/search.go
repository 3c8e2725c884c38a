package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

var searchFolder = cases.Fold()

// NormalizeSearch folds a search term for case-insensitive comparison.
func NormalizeSearch(s string) string {
	return searchFolder.String(strings.TrimSpace(s))
}

// MatchesSearch reports whether value contains the (already normalized) term.
// An empty term matches everything.
func MatchesSearch(value, normalizedTerm string) bool {
	if normalizedTerm == "" {
		return true
	}
	return strings.Contains(searchFolder.String(value), normalizedTerm)
}
