package integration_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoped-query-api/internal/config"
	"github.com/noah-isme/scoped-query-api/internal/dto"
	"github.com/noah-isme/scoped-query-api/internal/handler"
	"github.com/noah-isme/scoped-query-api/internal/middleware"
	"github.com/noah-isme/scoped-query-api/internal/repository"
	"github.com/noah-isme/scoped-query-api/internal/router"
	"github.com/noah-isme/scoped-query-api/internal/service"
)

const jwtSecret = "integration-secret"

const studentsFixture = `[
	{"student_name": "Asha", "grade": 8, "class": "A", "region": "North", "homework_status": "pending", "quiz_score": 85, "date": "2024-03-01"},
	{"student_name": "Bilal", "grade": 8, "class": "B", "region": "North", "homework_status": "submitted", "quiz_score": 60, "date": "2024-03-02"},
	{"student_name": "Chen", "grade": 9, "class": "A", "region": "South", "homework_status": "not submitted", "quiz_score": 92, "date": "2024-03-03"},
	{"student_name": "Dara", "grade": 8, "class": "A", "region": "North", "homework_status": "completed", "quiz_score": 78, "date": "2024-03-04"}
]`

const adminsFixture = `[
	{"admin_id": "grade8", "name": "Grade Eight", "assigned_grade": 8},
	{"admin_id": "class8a", "name": "Class 8A", "assigned_grade": 8, "assigned_class": "A"},
	{"admin_id": "grade12", "name": "Grade Twelve", "assigned_grade": 12}
]`

type envelope struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Data          json.RawMessage `json:"data"`
	CorrelationID string          `json:"correlation_id"`
}

func setupQueryApp(t *testing.T) *fiber.App {
	t.Helper()

	dir := t.TempDir()
	studentsPath := filepath.Join(dir, "students.json")
	adminsPath := filepath.Join(dir, "admins.json")
	require.NoError(t, os.WriteFile(studentsPath, []byte(studentsFixture), 0o600))
	require.NoError(t, os.WriteFile(adminsPath, []byte(adminsFixture), 0o600))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	store, err := repository.OpenRecordStore(studentsPath, adminsPath, repository.NewLoader(validate, logger))
	require.NoError(t, err)

	cfg := config.Config{AppName: "Scoped Query API", AppEnv: "test", AIProvider: "keyword", JWTSecret: jwtSecret}
	queryService := service.NewQueryService(store, service.NewKeywordIntentResolver(), service.NewQueryEngine(logger), nil, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		QueryHandler:    handler.NewQueryHandler(queryService, validate, logger),
		AdminMiddleware: middleware.AdminAuth(cfg.JWTSecret),
		QueryLimiter:    middleware.RateLimit("query", 100, time.Minute),
		Records:         store.Summary().TotalStudents,
	})
	return app
}

func tokenFor(t *testing.T, adminID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": adminID,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return token
}

func send(t *testing.T, app *fiber.App, method, path, adminID string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if adminID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, adminID))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestQueryFlowRespectsScope(t *testing.T) {
	app := setupQueryApp(t)

	resp := send(t, app, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Scoped Query API", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	resp = send(t, app, http.MethodPost, "/api/v1/admins/class8a/query", "class8a", dto.QueryRequest{Query: "Who is the topper student?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var answer dto.QueryResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &answer))
	require.Len(t, answer.Result.Data, 1)
	require.Equal(t, "Asha", answer.Result.Data[0].StudentName)
	require.Equal(t, "Grade 8 • Class A", answer.Scope)

	resp = send(t, app, http.MethodPost, "/api/v1/admins/grade8/query", "grade8", dto.QueryRequest{Query: "How many students have pending homework?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decodeEnvelope(t, resp)
	require.Equal(t, "Found 1 record(s) matching your criteria.", payload.Message)
	require.NoError(t, json.Unmarshal(payload.Data, &answer))
	require.Equal(t, 1, answer.Result.Count)
	require.Nil(t, answer.Result.Data)

	resp = send(t, app, http.MethodPost, "/api/v1/admins/grade8/query", "grade8", dto.QueryRequest{Query: "Show grade 9 students"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &answer))
	require.Equal(t, 0, answer.Result.Count)
	require.Equal(t, "No records found matching your query.", answer.Summary)
}

func TestQueryFlowRejectsOtherAdmins(t *testing.T) {
	app := setupQueryApp(t)

	resp := send(t, app, http.MethodPost, "/api/v1/admins/grade8/query", "", dto.QueryRequest{Query: "Show all students"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/api/v1/admins/grade8/query", "class8a", dto.QueryRequest{Query: "Show all students"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = send(t, app, http.MethodPost, "/api/v1/admins/grade12/query", "grade12", dto.QueryRequest{Query: "Show all students"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	correlationID := resp.Header.Get("X-Correlation-ID")
	conflict := decodeEnvelope(t, resp)
	require.Equal(t, "No students in your scope", conflict.Message)
	require.NotEmpty(t, correlationID)
	require.Equal(t, correlationID, conflict.CorrelationID)

	resp = send(t, app, http.MethodGet, "/api/v1/admins/class8a/access?grade=8&class=B", "class8a", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Access denied: you can only access Class A data", decodeEnvelope(t, resp).Message)
}

func TestQueryFlowExportsCSV(t *testing.T) {
	app := setupQueryApp(t)

	resp := send(t, app, http.MethodPost, "/api/v1/admins/grade8/query/export", "grade8", dto.ExportRequest{Query: "Show students who scored above 70"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="query_results_grade8.csv"`, resp.Header.Get("Content-Disposition"))

	defer resp.Body.Close()
	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Student Name", "Grade", "Class", "Region", "Homework Status", "Quiz Score", "Date"}, rows[0])
	require.Len(t, rows, 3)
	require.Equal(t, "Asha", rows[1][0])
	require.Equal(t, "Dara", rows[2][0])
}

func TestQueryFlowExportsEchoedParsedQuery(t *testing.T) {
	app := setupQueryApp(t)

	resp := send(t, app, http.MethodPost, "/api/v1/admins/grade8/query", "grade8", dto.QueryRequest{Query: "Who is the topper student?"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var answer struct {
		Result struct {
			ParsedQuery json.RawMessage `json:"parsed_query"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &answer))
	require.NotEmpty(t, answer.Result.ParsedQuery)

	resp = send(t, app, http.MethodPost, "/api/v1/admins/grade8/query/export", "grade8", dto.ExportRequest{ParsedQuery: answer.Result.ParsedQuery})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	defer resp.Body.Close()
	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Asha", rows[1][0])
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupQueryApp(t)

	send(t, app, http.MethodGet, "/api/v1/admins/grade8/scope", "grade8", nil)

	resp := send(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "queryapi_requests_total")
}
