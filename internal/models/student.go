package models

import "slices"

// Student record field names as they appear in the source data.
const (
	FieldStudentName    = "student_name"
	FieldGrade          = "grade"
	FieldClass          = "class"
	FieldRegion         = "region"
	FieldHomeworkStatus = "homework_status"
	FieldQuizScore      = "quiz_score"
	FieldDate           = "date"
)

// FieldKind classifies how a field's values are compared.
type FieldKind int

const (
	FieldKindUnknown FieldKind = iota
	FieldKindText
	FieldKindNumber
	FieldKindDate
)

// StudentFields lists every known field in canonical column order.
var StudentFields = []string{
	FieldStudentName,
	FieldGrade,
	FieldClass,
	FieldRegion,
	FieldHomeworkStatus,
	FieldQuizScore,
	FieldDate,
}

var fieldKinds = map[string]FieldKind{
	FieldStudentName:    FieldKindText,
	FieldGrade:          FieldKindNumber,
	FieldClass:          FieldKindText,
	FieldRegion:         FieldKindText,
	FieldHomeworkStatus: FieldKindText,
	FieldQuizScore:      FieldKindNumber,
	FieldDate:           FieldKindDate,
}

var fieldDisplayNames = map[string]string{
	FieldStudentName:    "Student Name",
	FieldGrade:          "Grade",
	FieldClass:          "Class",
	FieldRegion:         "Region",
	FieldHomeworkStatus: "Homework Status",
	FieldQuizScore:      "Quiz Score",
	FieldDate:           "Date",
}

// KindOf returns the comparison kind of a field.
func KindOf(field string) FieldKind {
	return fieldKinds[field]
}

// DisplayName returns the human friendly header for a field.
func DisplayName(field string) string {
	if name, ok := fieldDisplayNames[field]; ok {
		return name
	}
	return field
}

// StudentRecord is a single row of the student dataset.
type StudentRecord struct {
	StudentName    string  `json:"student_name"`
	Grade          int     `json:"grade"`
	Class          string  `json:"class"`
	Region         string  `json:"region"`
	HomeworkStatus string  `json:"homework_status"`
	QuizScore      float64 `json:"quiz_score"`
	Date           Date    `json:"date"`
}

// Value returns the value stored under field. Numbers are returned as float64.
func (r StudentRecord) Value(field string) (interface{}, bool) {
	switch field {
	case FieldStudentName:
		return r.StudentName, true
	case FieldGrade:
		return float64(r.Grade), true
	case FieldClass:
		return r.Class, true
	case FieldRegion:
		return r.Region, true
	case FieldHomeworkStatus:
		return r.HomeworkStatus, true
	case FieldQuizScore:
		return r.QuizScore, true
	case FieldDate:
		return r.Date, true
	default:
		return nil, false
	}
}

// StudentTable is an ordered collection of records together with the columns
// present in the source they came from.
type StudentTable struct {
	Columns []string        `json:"columns"`
	Rows    []StudentRecord `json:"rows"`
}

// HasColumn reports whether the table carries the named column.
func (t StudentTable) HasColumn(field string) bool {
	return slices.Contains(t.Columns, field)
}

// Len returns the number of rows.
func (t StudentTable) Len() int {
	return len(t.Rows)
}

// Clone copies the table so the result can be narrowed without touching t.
func (t StudentTable) Clone() StudentTable {
	return StudentTable{
		Columns: slices.Clone(t.Columns),
		Rows:    slices.Clone(t.Rows),
	}
}

// WithRows returns a table sharing t's columns with a different row set.
func (t StudentTable) WithRows(rows []StudentRecord) StudentTable {
	return StudentTable{Columns: t.Columns, Rows: rows}
}
