package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scoped-query-api/internal/models"
)

// DataFormatError reports a source file that does not have the expected shape.
type DataFormatError struct {
	Source string
	Reason string
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("invalid %s data: %s", e.Source, e.Reason)
}

type studentPayload struct {
	StudentName    string   `json:"student_name" validate:"required"`
	Grade          *float64 `json:"grade"`
	Class          string   `json:"class"`
	Region         string   `json:"region"`
	HomeworkStatus string   `json:"homework_status"`
	QuizScore      *float64 `json:"quiz_score"`
	Date           string   `json:"date"`
}

type adminPayload struct {
	AdminID       string   `json:"admin_id" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	AssignedGrade *float64 `json:"assigned_grade"`
	AssignedClass *string  `json:"assigned_class"`
	Region        *string  `json:"region"`
}

// Loader decodes the student and admin sources.
type Loader struct {
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewLoader constructs a loader that validates every row.
func NewLoader(validate *validator.Validate, logger zerolog.Logger) *Loader {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Loader{
		validator: validate,
		logger:    logger.With().Str("component", "record_loader").Logger(),
	}
}

// LoadStudents reads a JSON array of student objects and normalizes it.
func (l *Loader) LoadStudents(r io.Reader) (models.StudentTable, error) {
	items, err := readArray(r, "students")
	if err != nil {
		return models.StudentTable{}, err
	}

	present := map[string]struct{}{}
	rowFields := make([]map[string]struct{}, 0, len(items))
	rows := make([]models.StudentRecord, 0, len(items))
	for idx, item := range items {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(item, &keys); err != nil {
			return models.StudentTable{}, &DataFormatError{Source: "students", Reason: fmt.Sprintf("row %d is not an object", idx)}
		}
		fields := make(map[string]struct{}, len(keys))
		for key, raw := range keys {
			present[key] = struct{}{}
			if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				fields[key] = struct{}{}
			}
		}
		rowFields = append(rowFields, fields)

		var payload studentPayload
		if err := json.Unmarshal(item, &payload); err != nil {
			return models.StudentTable{}, &DataFormatError{Source: "students", Reason: fmt.Sprintf("row %d: %v", idx, err)}
		}
		if err := l.validator.Struct(payload); err != nil {
			return models.StudentTable{}, &DataFormatError{Source: "students", Reason: fmt.Sprintf("row %d: %v", idx, err)}
		}

		record := models.StudentRecord{
			StudentName:    strings.TrimSpace(payload.StudentName),
			Class:          payload.Class,
			Region:         payload.Region,
			HomeworkStatus: models.NormalizeHomeworkStatus(payload.HomeworkStatus),
			Date:           models.ParseDate(payload.Date),
		}
		if payload.Grade != nil {
			record.Grade = int(math.Round(*payload.Grade))
		}
		if payload.QuizScore != nil {
			record.QuizScore = *payload.QuizScore
		}
		if payload.Date != "" && !record.Date.Valid {
			l.logger.Warn().Int("row", idx).Str("date", payload.Date).Msg("unparsable date, marking invalid")
		}
		if record.HomeworkStatus != "" && !models.IsCanonicalHomeworkStatus(record.HomeworkStatus) {
			l.logger.Warn().Int("row", idx).Str("homework_status", record.HomeworkStatus).Msg("unrecognised homework status kept as is")
		}

		rows = append(rows, record)
	}

	columns := make([]string, 0, len(models.StudentFields))
	for _, field := range models.StudentFields {
		if _, ok := present[field]; ok {
			columns = append(columns, field)
		}
	}
	if err := requireColumns(rowFields, columns); err != nil {
		return models.StudentTable{}, err
	}

	l.logger.Info().Int("records", len(rows)).Strs("columns", columns).Msg("student records loaded")
	return models.StudentTable{Columns: columns, Rows: rows}, nil
}

// LoadAdmins reads a JSON array of admin profiles.
func (l *Loader) LoadAdmins(r io.Reader) ([]models.AdminProfile, error) {
	items, err := readArray(r, "admins")
	if err != nil {
		return nil, err
	}

	admins := make([]models.AdminProfile, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for idx, item := range items {
		var payload adminPayload
		if err := json.Unmarshal(item, &payload); err != nil {
			return nil, &DataFormatError{Source: "admins", Reason: fmt.Sprintf("row %d: %v", idx, err)}
		}
		if err := l.validator.Struct(payload); err != nil {
			return nil, &DataFormatError{Source: "admins", Reason: fmt.Sprintf("row %d: %v", idx, err)}
		}

		id := strings.TrimSpace(payload.AdminID)
		if _, dup := seen[id]; dup {
			return nil, &DataFormatError{Source: "admins", Reason: fmt.Sprintf("duplicate admin_id %q", id)}
		}
		seen[id] = struct{}{}

		admin := models.AdminProfile{
			AdminID:       id,
			Name:          strings.TrimSpace(payload.Name),
			AssignedClass: nonEmpty(payload.AssignedClass),
			Region:        nonEmpty(payload.Region),
		}
		if payload.AssignedGrade != nil {
			grade := int(math.Round(*payload.AssignedGrade))
			admin.AssignedGrade = &grade
		}
		admins = append(admins, admin)
	}

	l.logger.Info().Int("admins", len(admins)).Msg("admin profiles loaded")
	return admins, nil
}

// requireColumns rejects rows that lack a value for a column other rows carry.
func requireColumns(rowFields []map[string]struct{}, columns []string) error {
	for idx, fields := range rowFields {
		for _, column := range columns {
			if _, ok := fields[column]; !ok {
				return &DataFormatError{Source: "students", Reason: fmt.Sprintf("row %d: missing required field %q", idx, column)}
			}
		}
	}
	return nil
}

func readArray(r io.Reader, source string) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &DataFormatError{Source: source, Reason: "top-level value must be a JSON array"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &DataFormatError{Source: source, Reason: err.Error()}
	}
	return items, nil
}

func nonEmpty(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// DataSummary gives an overview of the whole dataset.
type DataSummary struct {
	TotalStudents     int      `json:"total_students"`
	Grades            []int    `json:"grades"`
	Classes           []string `json:"classes"`
	Regions           []string `json:"regions"`
	HomeworkSubmitted int      `json:"homework_submitted"`
	HomeworkPending   int      `json:"homework_pending"`
	AverageQuizScore  float64  `json:"avg_quiz_score"`
}

// RecordStore owns the canonical, read-only student and admin collections.
type RecordStore struct {
	students models.StudentTable
	admins   []models.AdminProfile
	byID     map[string]models.AdminProfile
}

// NewRecordStore wraps already loaded collections.
func NewRecordStore(students models.StudentTable, admins []models.AdminProfile) *RecordStore {
	byID := make(map[string]models.AdminProfile, len(admins))
	for _, admin := range admins {
		byID[admin.AdminID] = admin
	}
	return &RecordStore{
		students: students.Clone(),
		admins:   slices.Clone(admins),
		byID:     byID,
	}
}

// OpenRecordStore loads both sources from disk.
func OpenRecordStore(studentsPath, adminsPath string, loader *Loader) (*RecordStore, error) {
	students, err := loadFile(studentsPath, loader.LoadStudents)
	if err != nil {
		return nil, err
	}
	admins, err := loadFile(adminsPath, loader.LoadAdmins)
	if err != nil {
		return nil, err
	}
	return NewRecordStore(students, admins), nil
}

func loadFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return decode(file)
}

// Students returns a copy of the canonical table.
func (s *RecordStore) Students() models.StudentTable {
	return s.students.Clone()
}

// Columns lists the student columns present in the source.
func (s *RecordStore) Columns() []string {
	return slices.Clone(s.students.Columns)
}

// Admins returns the admin profiles in source order.
func (s *RecordStore) Admins() []models.AdminProfile {
	return slices.Clone(s.admins)
}

// AdminByID looks up a single admin profile.
func (s *RecordStore) AdminByID(id string) (models.AdminProfile, bool) {
	admin, ok := s.byID[strings.TrimSpace(id)]
	return admin, ok
}

// Summary computes dataset wide statistics.
func (s *RecordStore) Summary() DataSummary {
	summary := DataSummary{
		TotalStudents: s.students.Len(),
		Grades:        []int{},
		Classes:       []string{},
		Regions:       []string{},
	}
	var scoreTotal float64
	for _, row := range s.students.Rows {
		if !slices.Contains(summary.Grades, row.Grade) {
			summary.Grades = append(summary.Grades, row.Grade)
		}
		if row.Class != "" && !slices.Contains(summary.Classes, row.Class) {
			summary.Classes = append(summary.Classes, row.Class)
		}
		if row.Region != "" && !slices.Contains(summary.Regions, row.Region) {
			summary.Regions = append(summary.Regions, row.Region)
		}
		switch row.HomeworkStatus {
		case models.HomeworkSubmitted:
			summary.HomeworkSubmitted++
		case models.HomeworkNotSubmitted:
			summary.HomeworkPending++
		}
		scoreTotal += row.QuizScore
	}
	slices.Sort(summary.Grades)
	slices.Sort(summary.Classes)
	slices.Sort(summary.Regions)
	if summary.TotalStudents > 0 {
		summary.AverageQuizScore = math.Round(scoreTotal/float64(summary.TotalStudents)*100) / 100
	}
	return summary
}
