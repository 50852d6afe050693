package service

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

// ErrInvalidCollection indicates the input rows carry no column information.
var ErrInvalidCollection = errors.New("record collection is not record shaped")

var errUnknownOperator = errors.New("unrecognised operator")

type comparison int

const (
	compareGreater comparison = iota
	compareLess
	compareGreaterOrEqual
	compareLessOrEqual
	compareNotEqual
	compareEqual
)

var operatorAliases = map[string]comparison{
	">":                     compareGreater,
	"greater than":          compareGreater,
	"<":                     compareLess,
	"less than":             compareLess,
	">=":                    compareGreaterOrEqual,
	"greater than or equal": compareGreaterOrEqual,
	"<=":                    compareLessOrEqual,
	"less than or equal":    compareLessOrEqual,
	"!=":                    compareNotEqual,
	"not equal":             compareNotEqual,
	"=":                     compareEqual,
	"equal":                 compareEqual,
}

type rowPredicate func(models.StudentRecord) bool

// QueryEngine applies a QueryIntent to a table of student records. A step
// that cannot be applied is skipped with a warning; the rest of the query
// still runs.
type QueryEngine struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewQueryEngine builds an engine using the wall clock.
func NewQueryEngine(logger zerolog.Logger) *QueryEngine {
	return &QueryEngine{
		logger: logger.With().Str("component", "query_engine").Logger(),
		now:    time.Now,
	}
}

// ApplyFilters narrows, sorts and limits a copy of table.
func (e *QueryEngine) ApplyFilters(table models.StudentTable, intent models.QueryIntent) models.StudentTable {
	result, _ := e.apply(table, intent)
	return result
}

// Execute runs the intent and packages the outcome. Count queries carry no data.
func (e *QueryEngine) Execute(table models.StudentTable, intent models.QueryIntent) (models.ResultSet, error) {
	if len(table.Rows) > 0 && len(table.Columns) == 0 {
		return models.ResultSet{}, ErrInvalidCollection
	}

	filtered, warnings := e.apply(table, intent)
	if intent.Filters == nil {
		intent.Filters = map[string]interface{}{}
	}

	result := models.ResultSet{
		Intent:      intent.Kind(),
		Count:       filtered.Len(),
		Columns:     filtered.Columns,
		ParsedQuery: intent,
		Warnings:    warnings,
	}
	if result.Intent != models.IntentCount {
		result.Data = filtered.Rows
		if result.Data == nil {
			result.Data = []models.StudentRecord{}
		}
	}
	return result, nil
}

func (e *QueryEngine) apply(table models.StudentTable, intent models.QueryIntent) (models.StudentTable, []string) {
	working := table.Clone()
	var warnings []string
	warn := func(format string, args ...interface{}) {
		message := fmt.Sprintf(format, args...)
		warnings = append(warnings, message)
		e.logger.Warn().Msg(message)
	}

	if working.HasColumn(models.FieldHomeworkStatus) {
		for i := range working.Rows {
			working.Rows[i].HomeworkStatus = models.NormalizeHomeworkStatus(working.Rows[i].HomeworkStatus)
		}
	}

	// Dates are typed at load time; rows with an invalid date never match a date predicate.

	for _, field := range slices.Sorted(maps.Keys(intent.Filters)) {
		if !working.HasColumn(field) {
			warn("column %q not found, skipping filter", field)
			continue
		}
		rows, err := filterField(working.Rows, field, intent.Filters[field])
		if errors.Is(err, errUnknownOperator) {
			warn("filter on %q ignored: %v", field, err)
			continue
		}
		if err != nil {
			warn("filter on %q skipped: %v", field, err)
			continue
		}
		working.Rows = rows
	}

	now := e.now()
	if intent.DateFilter != nil && working.HasColumn(models.FieldDate) {
		rows, err := filterDateWindow(working.Rows, *intent.DateFilter, now)
		if err != nil {
			warn("date filter skipped: %v", err)
		} else {
			working.Rows = rows
		}
	}

	if intent.SpecificDate != nil && working.HasColumn(models.FieldDate) {
		target := models.ParseDate(*intent.SpecificDate)
		if !target.Valid {
			warn("specific date %q is not a valid date, skipping", *intent.SpecificDate)
		} else {
			working.Rows = keep(working.Rows, func(row models.StudentRecord) bool {
				return row.Date.Equal(target)
			})
		}
	}

	if intent.SortBy != nil {
		field := strings.TrimSpace(*intent.SortBy)
		if working.HasColumn(field) {
			slices.SortStableFunc(working.Rows, func(a, b models.StudentRecord) int {
				return compareDescending(a, b, field)
			})
		} else {
			warn("sort column %q not found, keeping order", field)
		}
	}

	if intent.Limit != nil {
		limit := *intent.Limit
		switch {
		case limit < 0:
			warn("negative limit %d ignored", limit)
		case limit < len(working.Rows):
			working.Rows = working.Rows[:limit]
		}
	}

	return working, warnings
}

func filterField(rows []models.StudentRecord, field string, value interface{}) ([]models.StudentRecord, error) {
	if comparisonObject, ok := value.(map[string]interface{}); ok {
		rawOperator, hasOperator := comparisonObject["operator"]
		if !hasOperator {
			return nil, fmt.Errorf("comparison object has no operator")
		}
		operatorName, isString := rawOperator.(string)
		if !isString {
			return nil, fmt.Errorf("%w %v", errUnknownOperator, rawOperator)
		}
		op, known := operatorAliases[strings.ToLower(strings.TrimSpace(operatorName))]
		if !known {
			return nil, fmt.Errorf("%w %q", errUnknownOperator, operatorName)
		}
		target, hasValue := comparisonObject["value"]
		if !hasValue || target == nil {
			return nil, fmt.Errorf("comparison has no value")
		}
		predicate, err := comparisonPredicate(field, op, target)
		if err != nil {
			return nil, err
		}
		return keep(rows, predicate), nil
	}

	if value == nil {
		return nil, fmt.Errorf("null value")
	}
	predicate, err := comparisonPredicate(field, compareEqual, value)
	if err != nil {
		return nil, err
	}
	return keep(rows, predicate), nil
}

func comparisonPredicate(field string, op comparison, target interface{}) (rowPredicate, error) {
	switch models.KindOf(field) {
	case models.FieldKindNumber:
		expected, ok := numericValue(target)
		if !ok {
			return nil, fmt.Errorf("value %v is not numeric", target)
		}
		return func(row models.StudentRecord) bool {
			value, _ := row.Value(field)
			return compareOrdered(value.(float64), expected, op)
		}, nil
	case models.FieldKindDate:
		text, ok := target.(string)
		if !ok {
			return nil, fmt.Errorf("value %v is not a date", target)
		}
		expected := models.ParseDate(text)
		if !expected.Valid {
			return nil, fmt.Errorf("value %q is not a date", text)
		}
		return func(row models.StudentRecord) bool {
			if !row.Date.Valid {
				return op == compareNotEqual
			}
			return compareOrdered(row.Date.In(time.UTC).Unix(), expected.In(time.UTC).Unix(), op)
		}, nil
	case models.FieldKindText:
		if op != compareEqual && op != compareNotEqual {
			return nil, fmt.Errorf("ordering comparison is not supported on text column")
		}
		expected, ok := textValue(target)
		if !ok {
			return nil, fmt.Errorf("value %v is not text", target)
		}
		if field == models.FieldHomeworkStatus {
			expected = models.NormalizeHomeworkStatus(expected)
		}
		return func(row models.StudentRecord) bool {
			value, _ := row.Value(field)
			return (value.(string) == expected) == (op == compareEqual)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported column")
	}
}

func filterDateWindow(rows []models.StudentRecord, window string, now time.Time) ([]models.StudentRecord, error) {
	loc := now.Location()
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(window)), " ", "_")

	switch normalized {
	case models.DateFilterToday:
		today := models.DateOf(now)
		return keep(rows, func(row models.StudentRecord) bool { return row.Date.Equal(today) }), nil
	case models.DateFilterYesterday:
		yesterday := models.DateOf(now.AddDate(0, 0, -1))
		return keep(rows, func(row models.StudentRecord) bool { return row.Date.Equal(yesterday) }), nil
	case models.DateFilterLastWeek, models.DateFilterLastMonth:
		days := 7
		if normalized == models.DateFilterLastMonth {
			days = 30
		}
		cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
		return keep(rows, func(row models.StudentRecord) bool {
			return row.Date.Valid && !row.Date.In(loc).Before(cutoff)
		}), nil
	case models.DateFilterNextWeek:
		end := now.Add(7 * 24 * time.Hour)
		return keep(rows, func(row models.StudentRecord) bool {
			if !row.Date.Valid {
				return false
			}
			at := row.Date.In(loc)
			return !at.Before(now) && !at.After(end)
		}), nil
	default:
		return nil, fmt.Errorf("unknown date filter %q", window)
	}
}

func compareDescending(a, b models.StudentRecord, field string) int {
	if models.KindOf(field) == models.FieldKindDate {
		switch {
		case !a.Date.Valid && !b.Date.Valid:
			return 0
		case !a.Date.Valid:
			return 1
		case !b.Date.Valid:
			return -1
		}
		return cmp.Compare(b.Date.In(time.UTC).Unix(), a.Date.In(time.UTC).Unix())
	}

	left, _ := a.Value(field)
	right, _ := b.Value(field)
	switch lv := left.(type) {
	case float64:
		return cmp.Compare(right.(float64), lv)
	case string:
		return strings.Compare(right.(string), lv)
	default:
		return 0
	}
}

func compareOrdered[T cmp.Ordered](value, expected T, op comparison) bool {
	switch op {
	case compareGreater:
		return value > expected
	case compareLess:
		return value < expected
	case compareGreaterOrEqual:
		return value >= expected
	case compareLessOrEqual:
		return value <= expected
	case compareNotEqual:
		return value != expected
	default:
		return value == expected
	}
}

func keep(rows []models.StudentRecord, predicate rowPredicate) []models.StudentRecord {
	kept := make([]models.StudentRecord, 0, len(rows))
	for _, row := range rows {
		if predicate(row) {
			kept = append(kept, row)
		}
	}
	return kept
}

func numericValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func textValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}
