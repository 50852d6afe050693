package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Intent kinds understood by the query engine.
const (
	IntentList   = "list"
	IntentCount  = "count"
	IntentFilter = "filter"
	IntentShow   = "show"
)

// Relative date windows accepted in QueryIntent.DateFilter.
const (
	DateFilterToday     = "today"
	DateFilterYesterday = "yesterday"
	DateFilterLastWeek  = "last_week"
	DateFilterLastMonth = "last_month"
	DateFilterNextWeek  = "next_week"
)

// ErrIntentNotObject is returned when an intent payload is not a JSON object.
var ErrIntentNotObject = errors.New("intent payload is not a json object")

// QueryIntent is the structured form of a free-text question. Every field is
// optional. Filter values are kept as decoded JSON: a literal means equality,
// an object with "operator" and "value" means a comparison.
type QueryIntent struct {
	Intent       string                 `json:"intent"`
	Filters      map[string]interface{} `json:"filters"`
	DateFilter   *string                `json:"date_filter"`
	SpecificDate *string                `json:"specific_date"`
	SortBy       *string                `json:"sort_by"`
	Limit        *int                   `json:"limit"`
}

// DefaultQueryIntent lists everything without narrowing.
func DefaultQueryIntent() QueryIntent {
	return QueryIntent{
		Intent:  IntentList,
		Filters: map[string]interface{}{},
	}
}

// Kind returns the intent, defaulting to list.
func (q QueryIntent) Kind() string {
	kind := strings.ToLower(strings.TrimSpace(q.Intent))
	if kind == "" {
		return IntentList
	}
	return kind
}

// ParseQueryIntent decodes an untrusted intent payload. Only a payload that is
// not a JSON object is rejected; every mistyped field is dropped and reported
// in the returned warnings.
func ParseQueryIntent(data []byte) (QueryIntent, []string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return DefaultQueryIntent(), nil, ErrIntentNotObject
	}
	intent, warnings := QueryIntentFromMap(raw)
	return intent, warnings, nil
}

// QueryIntentFromMap applies the defaulting rules of ParseQueryIntent to an
// already decoded object.
func QueryIntentFromMap(raw map[string]interface{}) (QueryIntent, []string) {
	intent := DefaultQueryIntent()
	var warnings []string

	if value, ok := raw["intent"]; ok && value != nil {
		if kind, isString := value.(string); isString && strings.TrimSpace(kind) != "" {
			intent.Intent = strings.ToLower(strings.TrimSpace(kind))
		} else {
			warnings = append(warnings, fmt.Sprintf("intent: unsupported value %v, using %q", value, IntentList))
		}
	}

	if value, ok := raw["filters"]; ok && value != nil {
		if filters, isMap := value.(map[string]interface{}); isMap {
			intent.Filters = filters
		} else {
			warnings = append(warnings, "filters: expected an object, ignoring")
		}
	}

	intent.DateFilter, warnings = optionalString(raw, "date_filter", warnings)
	intent.SpecificDate, warnings = optionalString(raw, "specific_date", warnings)
	intent.SortBy, warnings = optionalString(raw, "sort_by", warnings)

	if value, ok := raw["limit"]; ok && value != nil {
		if limit, valid := wholeNumber(value); valid && limit >= 0 {
			intent.Limit = &limit
		} else {
			warnings = append(warnings, fmt.Sprintf("limit: %v is not a non-negative integer, ignoring", value))
		}
	}

	return intent, warnings
}

func optionalString(raw map[string]interface{}, key string, warnings []string) (*string, []string) {
	value, ok := raw[key]
	if !ok || value == nil {
		return nil, warnings
	}
	text, isString := value.(string)
	if !isString {
		return nil, append(warnings, fmt.Sprintf("%s: expected a string, ignoring", key))
	}
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "null") {
		return nil, warnings
	}
	return &text, warnings
}

func wholeNumber(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return clampInt(v), true
	case int:
		return v, true
	case json.Number:
		if n, err := v.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return wholeNumber(f)
	default:
		return 0, false
	}
}

// clampInt saturates whole values outside the int range.
func clampInt(v float64) int {
	switch {
	case v >= float64(math.MaxInt):
		return math.MaxInt
	case v <= float64(math.MinInt):
		return math.MinInt
	default:
		return int(v)
	}
}
