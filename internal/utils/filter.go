package utils

import "strings"

// IsLetters reports whether s is a non-empty run of ASCII letters, the only
// input a query accepts.
func IsLetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// NormalizeLetters trims and uppercases a letter pool.
func NormalizeLetters(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// WithinLimit reports whether s fits in max letters. A max of zero or less
// means unlimited.
func WithinLimit(s string, max int) bool {
	return max <= 0 || len(s) <= max
}
