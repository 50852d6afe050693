package service

import (
	"fmt"
	"math"

	"github.com/noah-isme/scoped-query-api/internal/dto"
	"github.com/noah-isme/scoped-query-api/internal/models"
)

// Summarize renders the one-line description of a result set.
func Summarize(result models.ResultSet) string {
	switch {
	case result.Count == 0:
		return "No records found matching your query."
	case result.Intent == models.IntentCount:
		return fmt.Sprintf("Found %d record(s) matching your criteria.", result.Count)
	case result.Count == 1:
		return "Found 1 record matching your query."
	default:
		return fmt.Sprintf("Found %d records matching your query.", result.Count)
	}
}

// DescribeScores computes mean, max and min quiz score. The mean is rounded to two decimals.
func DescribeScores(table models.StudentTable) dto.ScoreStatistics {
	if !table.HasColumn(models.FieldQuizScore) || table.Len() == 0 {
		return dto.ScoreStatistics{}
	}

	stats := dto.ScoreStatistics{
		Available: true,
		Max:       math.Inf(-1),
		Min:       math.Inf(1),
	}
	var total float64
	for _, row := range table.Rows {
		total += row.QuizScore
		stats.Max = math.Max(stats.Max, row.QuizScore)
		stats.Min = math.Min(stats.Min, row.QuizScore)
	}
	stats.Mean = math.Round(total/float64(table.Len())*100) / 100
	return stats
}

// DescribeResult computes score statistics over the rows of a result set.
func DescribeResult(result models.ResultSet) dto.ScoreStatistics {
	return DescribeScores(models.StudentTable{Columns: result.Columns, Rows: result.Data})
}

// ScopeStats summarises an admin's visible records.
func ScopeStats(table models.StudentTable) dto.ScopeStatistics {
	stats := dto.ScopeStatistics{
		TotalStudents: table.Len(),
		Scores:        DescribeScores(table),
	}
	for _, row := range table.Rows {
		switch row.HomeworkStatus {
		case models.HomeworkSubmitted:
			stats.HomeworkSubmitted++
		case models.HomeworkNotSubmitted:
			stats.HomeworkPending++
		}
	}
	return stats
}
