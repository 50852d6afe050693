package models

import "strings"

const (
	// HomeworkSubmitted is the canonical value for handed-in homework.
	HomeworkSubmitted = "submitted"
	// HomeworkNotSubmitted is the canonical value for missing homework.
	HomeworkNotSubmitted = "not_submitted"
)

// homeworkStatusVocabulary maps every accepted spelling to its canonical value.
// The record store and the query engine both go through this table.
var homeworkStatusVocabulary = map[string]string{
	"pending":           HomeworkNotSubmitted,
	"not submitted":     HomeworkNotSubmitted,
	"haven't submitted": HomeworkNotSubmitted,
	"not_submitted":     HomeworkNotSubmitted,
	"submitted":         HomeworkSubmitted,
	"completed":         HomeworkSubmitted,
	"done":              HomeworkSubmitted,
}

// NormalizeHomeworkStatus lower-cases the value and maps it onto the canonical
// vocabulary. Unknown spellings are returned lower-cased and otherwise unchanged.
func NormalizeHomeworkStatus(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if canonical, ok := homeworkStatusVocabulary[normalized]; ok {
		return canonical
	}
	return normalized
}

// IsCanonicalHomeworkStatus reports whether value is one of the two canonical statuses.
func IsCanonicalHomeworkStatus(value string) bool {
	return value == HomeworkSubmitted || value == HomeworkNotSubmitted
}
