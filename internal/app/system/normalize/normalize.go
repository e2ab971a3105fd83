// Package normalize trims and case-folds user input consistently before it is
// stored or used in a query.
package normalize

import "strings"

// Username lowercases and trims a username. Usernames are unique in this
// form.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a free-text query parameter.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// SortOrder maps "asc"/"ascending"/"1" to 1 and anything else to -1
// (newest first).
func SortOrder(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending", "1":
		return 1
	default:
		return -1
	}
}
