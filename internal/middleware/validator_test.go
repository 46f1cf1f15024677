package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLanguageCode(t *testing.T) {
	for _, code := range []string{"fr", "hi", "zh-TW", "fil", "sr-Latn"} {
		assert.NoError(t, ValidateLanguageCode(code), code)
	}
	for _, code := range []string{"", "f", "french", "e1", "zh-", "en-abcdefghi"} {
		assert.Error(t, ValidateLanguageCode(code), code)
	}
}

func TestValidateMimeType(t *testing.T) {
	got, err := ValidateMimeType(" application/pdf ")
	assert.NoError(t, err)
	assert.Equal(t, "application/pdf", got)

	got, err = ValidateMimeType("text/plain; charset=utf-8")
	assert.NoError(t, err)
	assert.Equal(t, "text/plain", got)

	for _, bad := range []string{"", "pdf", "text/"} {
		_, err := ValidateMimeType(bad)
		assert.Error(t, err, bad)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "What is\tthe term?", SanitizeString("  What\x00 is\tthe\x07 term?\n"))
}
