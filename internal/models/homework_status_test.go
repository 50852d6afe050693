package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

func TestNormalizeHomeworkStatus(t *testing.T) {
	cases := map[string]string{
		"pending":           models.HomeworkNotSubmitted,
		"  Pending ":        models.HomeworkNotSubmitted,
		"Not Submitted":     models.HomeworkNotSubmitted,
		"haven't submitted": models.HomeworkNotSubmitted,
		"not_submitted":     models.HomeworkNotSubmitted,
		"SUBMITTED":         models.HomeworkSubmitted,
		"completed":         models.HomeworkSubmitted,
		"Done":              models.HomeworkSubmitted,
		"Late":              "late",
		"":                  "",
	}

	for input, expected := range cases {
		normalized := models.NormalizeHomeworkStatus(input)
		require.Equal(t, expected, normalized, "input %q", input)
		require.Equal(t, normalized, models.NormalizeHomeworkStatus(normalized), "normalizing %q twice", input)
	}
}

func TestIsCanonicalHomeworkStatus(t *testing.T) {
	require.True(t, models.IsCanonicalHomeworkStatus(models.HomeworkSubmitted))
	require.True(t, models.IsCanonicalHomeworkStatus(models.HomeworkNotSubmitted))
	require.False(t, models.IsCanonicalHomeworkStatus("pending"))
}
