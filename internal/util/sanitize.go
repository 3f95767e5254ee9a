package util

import (
	"html"
	"strings"
)

// SanitizeInput trims surrounding whitespace and escapes HTML/script-like
// characters from free-text form fields before they reach storage or email.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return html.EscapeString(s)
}

// DigitsOnly strips every non-digit rune. Card, routing and EIN inputs arrive
// with spaces and dashes from the form layer.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
