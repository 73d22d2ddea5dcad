package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuestionType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"TEXT", "TEXT"},
		{"text", "TEXT"},
		{"  input ", "TEXT"},
		{"short-text", "TEXT"},
		{"TEXTAREA", "TEXTAREA"},
		{"paragraph", "TEXTAREA"},
		{"radio", "SINGLE_CHOICE"},
		{"single_choice", "SINGLE_CHOICE"},
		{"checkbox", "MULTI_CHOICE"},
		{"multiple", "MULTI_CHOICE"},
		{"dropdown", "SELECT"},
		{"tel", "PHONE"},
		{"EMAIL", "EMAIL"},
		{"date-of-birth", "BIRTHDAY"},
		{"sex", "GENDER"},
		{"url", "LINK"},
		{"", "TEXT"},
		{"something_unknown", "TEXT"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeQuestionType(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeQuestionTypeSubstringFallback(t *testing.T) {
	// No exact alias matches, the substring pass decides in declaration order.
	assert.Equal(t, "TEXT", NormalizeQuestionType("SHORT_TEXT_FIELD"))
	assert.Equal(t, "PHONE", NormalizeQuestionType("MOBILE_NUMBER"))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "hello", Clean("  hello  "))
	assert.Equal(t, "", Clean("   "))
	assert.Equal(t, "", Clean(""))
}
