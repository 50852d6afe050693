package models_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

func TestParseQueryIntentFull(t *testing.T) {
	intent, warnings, err := models.ParseQueryIntent([]byte(`{
		"intent": "Count",
		"filters": {"grade": 8, "quiz_score": {"operator": ">", "value": 80}},
		"date_filter": "last_week",
		"specific_date": null,
		"sort_by": "quiz_score",
		"limit": 5
	}`))
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, models.IntentCount, intent.Kind())
	require.Equal(t, float64(8), intent.Filters["grade"])
	require.NotNil(t, intent.DateFilter)
	require.Equal(t, "last_week", *intent.DateFilter)
	require.Nil(t, intent.SpecificDate)
	require.Equal(t, "quiz_score", *intent.SortBy)
	require.Equal(t, 5, *intent.Limit)
}

func TestParseQueryIntentDefaults(t *testing.T) {
	intent, warnings, err := models.ParseQueryIntent([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, models.IntentList, intent.Kind())
	require.NotNil(t, intent.Filters)
	require.Empty(t, intent.Filters)
	require.Nil(t, intent.Limit)
}

func TestParseQueryIntentDropsMistypedFields(t *testing.T) {
	intent, warnings, err := models.ParseQueryIntent([]byte(`{
		"intent": 3,
		"filters": ["grade"],
		"sort_by": 7,
		"date_filter": "null",
		"limit": 2.5
	}`))
	require.NoError(t, err)
	require.Len(t, warnings, 4)

	require.Equal(t, models.IntentList, intent.Kind())
	require.Empty(t, intent.Filters)
	require.Nil(t, intent.SortBy)
	require.Nil(t, intent.DateFilter)
	require.Nil(t, intent.Limit)
}

func TestParseQueryIntentRejectsNonObject(t *testing.T) {
	for _, payload := range []string{`[]`, `"list"`, `null`, `not json`} {
		intent, _, err := models.ParseQueryIntent([]byte(payload))
		require.ErrorIs(t, err, models.ErrIntentNotObject, payload)
		require.Equal(t, models.IntentList, intent.Kind())
	}
}

func TestParseQueryIntentSaturatesLargeLimit(t *testing.T) {
	intent, warnings, err := models.ParseQueryIntent([]byte(`{"limit": 1e20}`))
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.NotNil(t, intent.Limit)
	require.Equal(t, math.MaxInt, *intent.Limit)

	intent, warnings = models.QueryIntentFromMap(map[string]interface{}{"limit": json.Number("99999999999999999999")})
	require.Empty(t, warnings)
	require.Equal(t, math.MaxInt, *intent.Limit)

	intent, warnings, err = models.ParseQueryIntent([]byte(`{"limit": -1e20}`))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Nil(t, intent.Limit)
}
