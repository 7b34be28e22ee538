// Package email provides common email address utility functions.
package email

import (
	"net/mail"
	"regexp"
	"strings"
)

// syntaxPattern is a syntax-only check: local part, "@", domain with at
// least one dot, no whitespace anywhere. Deliverability is not checked.
var syntaxPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidSyntax reports whether addr passes the syntax check.
func ValidSyntax(addr string) bool {
	return syntaxPattern.MatchString(addr)
}

// Canonical returns the form of an address used for deduplication and
// suppression lookups: surrounding whitespace trimmed, lower-cased.
func Canonical(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// ExtractDomain extracts the domain part from an email address.
// Returns empty string if the address is invalid.
func ExtractDomain(addr string) string {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		// Try simple extraction for malformed addresses
		at := strings.LastIndex(addr, "@")
		if at <= 0 || at == len(addr)-1 {
			return ""
		}
		return strings.ToLower(addr[at+1:])
	}
	at := strings.LastIndex(parsed.Address, "@")
	if at <= 0 || at == len(parsed.Address)-1 {
		return ""
	}
	return strings.ToLower(parsed.Address[at+1:])
}
