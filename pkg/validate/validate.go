// Package validate provides the input validation and sanitization rules
// shared by the HTTP handlers.
package validate

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Sanitize trims surrounding whitespace and strips angle brackets, which is
// enough to keep free-text fields out of markup contexts.
func Sanitize(input string) string {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	return s
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Username requires at least 3 non-space characters.
func Username(s string) bool {
	return len(strings.TrimSpace(s)) >= 3
}

// Password requires at least 6 characters.
func Password(s string) bool {
	return len(s) >= 6
}

// Medication requires name, dosage and frequency to be non-empty after
// trimming.
func Medication(name, dosage, frequency string) bool {
	return strings.TrimSpace(name) != "" &&
		strings.TrimSpace(dosage) != "" &&
		strings.TrimSpace(frequency) != ""
}
