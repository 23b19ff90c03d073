// Package inputval holds small syntactic validators for request input.
package inputval

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// IsValidEmail reports whether s is a bare addr-spec of the form
// local@domain. Display-name forms, whitespace, and empty or misplaced
// dots are rejected. Single-label domains such as "localhost" are allowed.
func IsValidEmail(s string) bool {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return false
	}
	if strings.ContainsAny(s, "<>()[],;:\\\"") {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if strings.Contains(local, "@") {
		return false
	}
	return dotAtomOK(local) && dotAtomOK(domain)
}

func dotAtomOK(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	return !strings.Contains(s, "..")
}

// IsValidPassword reports whether pw meets the minimum length.
func IsValidPassword(pw string) bool {
	return len(pw) >= MinPasswordLength
}
