package dto

import (
	"encoding/json"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

// QueryRequest is the body of a free-text query.
type QueryRequest struct {
	Query string `json:"query" validate:"required,max=500"`
}

// ExportRequest asks for a query result as a downloadable file. ParsedQuery is
// the intent echoed by a previous query response; when set, Query is not resolved again.
type ExportRequest struct {
	Query       string          `json:"query" validate:"max=500"`
	ParsedQuery json.RawMessage `json:"parsed_query,omitempty"`
	Format      string          `json:"format" validate:"omitempty,oneof=csv pdf"`
}

// AdminSummary is an entry of the admin selection list.
type AdminSummary struct {
	AdminID string `json:"admin_id"`
	Name    string `json:"name"`
	Scope   string `json:"scope"`
}

// ScoreStatistics describes quiz scores over a set of records. When Available
// is false the statistics are not applicable and the numbers are zero.
type ScoreStatistics struct {
	Available bool    `json:"available"`
	Mean      float64 `json:"mean"`
	Max       float64 `json:"max"`
	Min       float64 `json:"min"`
}

// ScopeStatistics is the quick overview shown once an admin is selected.
type ScopeStatistics struct {
	TotalStudents     int             `json:"total_students"`
	HomeworkSubmitted int             `json:"homework_submitted"`
	HomeworkPending   int             `json:"homework_pending"`
	Scores            ScoreStatistics `json:"scores"`
}

// ScopeResponse describes what an admin can see.
type ScopeResponse struct {
	Admin       models.AdminProfile `json:"admin"`
	Description string              `json:"description"`
	Columns     []string            `json:"columns"`
	Stats       ScopeStatistics     `json:"stats"`
	Empty       bool                `json:"empty"`
}

// QueryResponse is the answer to a free-text query.
type QueryResponse struct {
	AdminID    string           `json:"admin_id"`
	Query      string           `json:"query"`
	Scope      string           `json:"scope"`
	Result     models.ResultSet `json:"result"`
	Summary    string           `json:"summary"`
	Statistics ScoreStatistics  `json:"statistics"`
	Notice     string           `json:"notice,omitempty"`
}

// AccessResponse is the outcome of a point access check.
type AccessResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
