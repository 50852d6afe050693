package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoped-query-api/internal/export"
	"github.com/noah-isme/scoped-query-api/internal/models"
)

func TestStudentDataset(t *testing.T) {
	rows := []models.StudentRecord{
		{StudentName: "Asha", Grade: 8, QuizScore: 85.5, Date: models.NewDate(2024, time.March, 1)},
		{StudentName: "Bilal", Grade: 9, QuizScore: 60},
	}

	dataset := export.StudentDataset([]string{models.FieldStudentName, models.FieldQuizScore, models.FieldDate}, rows)
	require.Equal(t, []string{"Student Name", "Quiz Score", "Date"}, dataset.Headers)
	require.Equal(t, [][]string{
		{"Asha", "85.5", "2024-03-01"},
		{"Bilal", "60", ""},
	}, dataset.Rows)
}

func TestRenderCSV(t *testing.T) {
	file, err := export.Render("", "results", "", export.Dataset{
		Headers: []string{"Student Name", "Region"},
		Rows:    [][]string{{"Asha, Jr.", "North"}},
	})
	require.NoError(t, err)
	require.Equal(t, "results.csv", file.Name)
	require.Equal(t, "Student Name,Region\n\"Asha, Jr.\",North\n", string(file.Body))
}

func TestRenderPDF(t *testing.T) {
	file, err := export.Render("PDF", "results", "Query results - Grade 8 • Class A", export.Dataset{
		Headers: []string{"Student Name"},
		Rows:    [][]string{{"Zoë"}},
	})
	require.NoError(t, err)
	require.Equal(t, "results.pdf", file.Name)
	require.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestRenderRejects(t *testing.T) {
	_, err := export.Render("xlsx", "results", "", export.Dataset{Headers: []string{"a"}})
	require.Error(t, err)

	_, err = export.Render("csv", "results", "", export.Dataset{})
	require.Error(t, err)
}
