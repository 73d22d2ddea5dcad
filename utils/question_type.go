package utils

import "strings"

// questionTypeAlias pairs a canonical question type with the aliases survey
// authors are allowed to use. Matching is exact first, then substring in
// declaration order, so "SHORT_TEXT_FIELD" still lands on TEXT. Unknown types
// fall back to TEXT.
type questionTypeAlias struct {
	canonical string
	aliases   []string
}

var questionTypeAliases = []questionTypeAlias{
	{"TEXT", []string{"TEXT", "INPUT", "SHORT_TEXT"}},
	{"TEXTAREA", []string{"TEXTAREA", "LONG_TEXT", "PARAGRAPH"}},
	{"SINGLE_CHOICE", []string{"SINGLE_CHOICE", "SINGLE", "RADIO", "CHOICE_SINGLE"}},
	{"MULTI_CHOICE", []string{"MULTI_CHOICE", "MULTI", "CHECKBOX", "CHOICE_MULTI", "MULTIPLE"}},
	{"SELECT", []string{"SELECT", "DROPDOWN", "PULLDOWN"}},
	{"NAME", []string{"NAME"}},
	{"PHONE", []string{"PHONE", "TEL", "MOBILE"}},
	{"EMAIL", []string{"EMAIL"}},
	{"BIRTHDAY", []string{"BIRTHDAY", "DOB", "DATE_OF_BIRTH", "DATE"}},
	{"ADDRESS", []string{"ADDRESS"}},
	{"GENDER", []string{"GENDER", "SEX"}},
	{"IMAGE", []string{"IMAGE", "PHOTO"}},
	{"VIDEO", []string{"VIDEO"}},
	{"ID_NUMBER", []string{"ID_NUMBER", "IDENTIFICATION"}},
	{"LINK", []string{"LINK", "URL"}},
}

const DefaultQuestionType = "TEXT"

// NormalizeQuestionType maps an author-supplied type onto its canonical form.
func NormalizeQuestionType(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return DefaultQuestionType
	}
	token = strings.ToUpper(strings.ReplaceAll(token, "-", "_"))

	for _, entry := range questionTypeAliases {
		if token == entry.canonical {
			return entry.canonical
		}
		for _, alias := range entry.aliases {
			if token == alias {
				return entry.canonical
			}
		}
	}
	for _, entry := range questionTypeAliases {
		for _, alias := range entry.aliases {
			if strings.Contains(token, alias) {
				return entry.canonical
			}
		}
	}
	return DefaultQuestionType
}

// Clean trims a value and collapses whitespace-only strings to empty.
func Clean(value string) string {
	return strings.TrimSpace(value)
}
