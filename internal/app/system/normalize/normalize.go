// Package normalize canonicalizes user-supplied identifiers before they
// are stored or compared.
package normalize

import "strings"

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and preserves its case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Title trims a board, list, or card title and collapses internal runs of
// whitespace to a single space.
func Title(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
