package service

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

var (
	aboveScorePattern = regexp.MustCompile(`(?:above|over|more than|greater than|higher than|>)\s*(\d+(?:\.\d+)?)`)
	belowScorePattern = regexp.MustCompile(`(?:below|under|less than|lower than|<)\s*(\d+(?:\.\d+)?)`)
	topNPattern       = regexp.MustCompile(`top\s+(\d+)`)
	gradePattern      = regexp.MustCompile(`\bgrade\s+(\d+)\b`)
	classPattern      = regexp.MustCompile(`\bclass\s+([a-z])\b`)
	isoDatePattern    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

var relativeDatePhrases = []struct {
	phrase string
	filter string
}{
	{"yesterday", models.DateFilterYesterday},
	{"today", models.DateFilterToday},
	{"last week", models.DateFilterLastWeek},
	{"past week", models.DateFilterLastWeek},
	{"last month", models.DateFilterLastMonth},
	{"past month", models.DateFilterLastMonth},
	{"next week", models.DateFilterNextWeek},
}

var notSubmittedPhrases = []string{"pending", "not submitted", "haven't submitted", "have not submitted", "missing homework"}

var submittedPhrases = []string{"submitted", "completed", "done"}

type keywordIntentResolver struct{}

// NewKeywordIntentResolver returns an offline resolver that understands a
// handful of common phrasings. It is used when no language model is configured.
func NewKeywordIntentResolver() IntentResolver {
	return keywordIntentResolver{}
}

func (keywordIntentResolver) Resolve(_ context.Context, query string, columns []string) (models.QueryIntent, error) {
	text := strings.ToLower(strings.TrimSpace(query))
	intent := models.DefaultQueryIntent()
	has := func(column string) bool { return slices.Contains(columns, column) }

	if strings.HasPrefix(text, "how many") || strings.HasPrefix(text, "count") || strings.Contains(text, "number of") {
		intent.Intent = models.IntentCount
	}

	if has(models.FieldHomeworkStatus) {
		switch {
		case containsAny(text, notSubmittedPhrases):
			intent.Filters[models.FieldHomeworkStatus] = models.HomeworkNotSubmitted
		case containsAny(text, submittedPhrases):
			intent.Filters[models.FieldHomeworkStatus] = models.HomeworkSubmitted
		}
	}

	if has(models.FieldQuizScore) {
		if match := aboveScorePattern.FindStringSubmatch(text); match != nil {
			intent.Filters[models.FieldQuizScore] = comparisonFilter(">", match[1])
		} else if match := belowScorePattern.FindStringSubmatch(text); match != nil {
			intent.Filters[models.FieldQuizScore] = comparisonFilter("<", match[1])
		}

		switch match := topNPattern.FindStringSubmatch(text); {
		case match != nil:
			if n, err := strconv.Atoi(match[1]); err == nil {
				setTop(&intent, n)
			}
		case containsAny(text, []string{"topper", "top student", "highest", "best student"}):
			setTop(&intent, 1)
		}
	}

	if match := gradePattern.FindStringSubmatch(text); match != nil && has(models.FieldGrade) {
		if grade, err := strconv.Atoi(match[1]); err == nil {
			intent.Filters[models.FieldGrade] = float64(grade)
		}
	}
	if match := classPattern.FindStringSubmatch(text); match != nil && has(models.FieldClass) {
		intent.Filters[models.FieldClass] = strings.ToUpper(match[1])
	}

	if has(models.FieldDate) {
		if match := isoDatePattern.FindStringSubmatch(text); match != nil {
			date := match[1]
			intent.SpecificDate = &date
		} else {
			for _, candidate := range relativeDatePhrases {
				if strings.Contains(text, candidate.phrase) {
					filter := candidate.filter
					intent.DateFilter = &filter
					break
				}
			}
		}
	}

	return intent, nil
}

func comparisonFilter(operator, raw string) map[string]interface{} {
	value, _ := strconv.ParseFloat(raw, 64)
	return map[string]interface{}{"operator": operator, "value": value}
}

func setTop(intent *models.QueryIntent, n int) {
	sortBy := models.FieldQuizScore
	intent.SortBy = &sortBy
	intent.Limit = &n
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
