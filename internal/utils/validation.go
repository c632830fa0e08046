package utils

import (
	"strings"
	"unicode"
)

// HasSpecialChar reports whether s contains punctuation or a symbol.
func HasSpecialChar(s string) bool {
	specialChars := "!@#$%^&*()_+-=[]{}|;:,.<>?`~"
	for _, char := range s {
		if strings.ContainsRune(specialChars, char) {
			return true
		}
	}
	return false
}

// StrongPassword requires at least eight characters including a digit and a
// special character.
func StrongPassword(s string) bool {
	if len(s) < 8 || !HasSpecialChar(s) {
		return false
	}
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
