package middleware

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var languageCode = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})?$`)

// ValidateLanguageCode accepts BCP-47 style codes such as "fr", "fil" or "zh-TW".
func ValidateLanguageCode(code string) error {
	if code == "" {
		return fmt.Errorf("target language cannot be empty")
	}
	if !languageCode.MatchString(code) {
		return fmt.Errorf("invalid target language: %q", code)
	}
	return nil
}

// ValidateMimeType checks a type/subtype media type and returns it without parameters.
func ValidateMimeType(mimeType string) (string, error) {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return "", fmt.Errorf("mime_type cannot be empty")
	}
	t, _, err := mime.ParseMediaType(mimeType)
	if err != nil || !strings.Contains(t, "/") {
		return "", fmt.Errorf("invalid mime_type: %q", mimeType)
	}
	return t, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
