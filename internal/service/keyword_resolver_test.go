package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoped-query-api/internal/models"
	"github.com/noah-isme/scoped-query-api/internal/service"
)

func TestKeywordResolverSuggestedQueries(t *testing.T) {
	resolver := service.NewKeywordIntentResolver()
	ctx := context.Background()

	topper, err := resolver.Resolve(ctx, "Who is the topper student?", models.StudentFields)
	require.NoError(t, err)
	require.Equal(t, models.FieldQuizScore, *topper.SortBy)
	require.Equal(t, 1, *topper.Limit)

	pending, err := resolver.Resolve(ctx, "Show students with pending homework", models.StudentFields)
	require.NoError(t, err)
	require.Equal(t, models.HomeworkNotSubmitted, pending.Filters[models.FieldHomeworkStatus])

	above, err := resolver.Resolve(ctx, "Show students who scored above 80", models.StudentFields)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"operator": ">", "value": 80.0}, above.Filters[models.FieldQuizScore])

	all, err := resolver.Resolve(ctx, "Show all students", models.StudentFields)
	require.NoError(t, err)
	require.Equal(t, models.IntentList, all.Kind())
	require.Empty(t, all.Filters)
	require.Nil(t, all.SortBy)
}

func TestKeywordResolverCombinedPhrases(t *testing.T) {
	intent, err := service.NewKeywordIntentResolver().Resolve(context.Background(),
		"How many Grade 8 students in class b haven't submitted homework since last week?", models.StudentFields)
	require.NoError(t, err)

	require.Equal(t, models.IntentCount, intent.Kind())
	require.Equal(t, 8.0, intent.Filters[models.FieldGrade])
	require.Equal(t, "B", intent.Filters[models.FieldClass])
	require.Equal(t, models.HomeworkNotSubmitted, intent.Filters[models.FieldHomeworkStatus])
	require.Equal(t, models.DateFilterLastWeek, *intent.DateFilter)
}

func TestKeywordResolverRespectsColumns(t *testing.T) {
	intent, err := service.NewKeywordIntentResolver().Resolve(context.Background(),
		"top 3 students on 2024-03-01", []string{models.FieldStudentName, models.FieldGrade})
	require.NoError(t, err)
	require.Nil(t, intent.SortBy)
	require.Nil(t, intent.SpecificDate)

	dated, err := service.NewKeywordIntentResolver().Resolve(context.Background(), "top 3 students on 2024-03-01", models.StudentFields)
	require.NoError(t, err)
	require.Equal(t, 3, *dated.Limit)
	require.Equal(t, "2024-03-01", *dated.SpecificDate)
}

func TestKeywordResolverIgnoresOversizedTopN(t *testing.T) {
	intent, err := service.NewKeywordIntentResolver().Resolve(context.Background(), "top 99999999999999999999 students", models.StudentFields)
	require.NoError(t, err)
	require.Nil(t, intent.Limit)
	require.Nil(t, intent.SortBy)
}
