package models

// ResultSet is the outcome of applying a QueryIntent to a scoped table.
// Data is nil for count queries.
type ResultSet struct {
	Intent      string          `json:"intent"`
	Count       int             `json:"count"`
	Data        []StudentRecord `json:"data"`
	Columns     []string        `json:"columns"`
	ParsedQuery QueryIntent     `json:"parsed_query"`
	Warnings    []string        `json:"warnings,omitempty"`
}
