package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a Go identifier such as "VerificationCode" or
// "PasswordExpiryInDays" into its snake_case form. Runs of capitals are kept
// together, so "QRCodeURL" becomes "qr_code_url".
func ToLowerSnake(s string) string {
	words := splitWords(s)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, "_")
}

func splitWords(s string) []string {
	runes := []rune(s)
	var words []string
	start := 0

	for i := 1; i < len(runes); i++ {
		cur, prev := runes[i], runes[i-1]
		boundary := false

		switch {
		case cur == '_' || cur == '-' || cur == ' ':
			if i > start {
				words = append(words, string(runes[start:i]))
			}
			start = i + 1
			continue
		case unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			boundary = true
		case unicode.IsUpper(cur) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		}

		if boundary && i > start {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}

	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}

	return words
}
