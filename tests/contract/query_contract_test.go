package contract_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scoped-query-api/internal/handler"
	"github.com/noah-isme/scoped-query-api/internal/repository"
	"github.com/noah-isme/scoped-query-api/internal/service"
)

const contractStudents = `[
	{"student_name": "Asha", "grade": 8, "class": "A", "region": "North", "homework_status": "pending", "quiz_score": 85, "date": "2024-03-01"},
	{"student_name": "Bilal", "grade": 8, "class": "B", "region": "North", "homework_status": "submitted", "quiz_score": 60, "date": "not recorded"},
	{"student_name": "Chen", "grade": 9, "class": "A", "region": "South", "homework_status": "done", "quiz_score": 92, "date": "2024-03-03"}
]`

const contractAdmins = `[
	{"admin_id": "a1", "name": "Grade Eight", "assigned_grade": 8},
	{"admin_id": "root", "name": "Principal"}
]`

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func setupContractApp(t *testing.T) *fiber.App {
	t.Helper()

	loader := repository.NewLoader(nil, zerolog.Nop())
	students, err := loader.LoadStudents(strings.NewReader(contractStudents))
	require.NoError(t, err)
	admins, err := loader.LoadAdmins(strings.NewReader(contractAdmins))
	require.NoError(t, err)

	store := repository.NewRecordStore(students, admins)
	queryService := service.NewQueryService(store, service.NewKeywordIntentResolver(), service.NewQueryEngine(zerolog.Nop()), nil, zerolog.Nop())
	queryHandler := handler.NewQueryHandler(queryService, nil, zerolog.Nop())

	app := fiber.New()
	api := app.Group("/api/v1")
	queryHandler.RegisterDirectory(api)
	queryHandler.Register(api.Group("/admins/:adminID"))
	return app
}

func decodeBody(t *testing.T, resp *http.Response) interface{} {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload
}

func TestQueryResponseContract(t *testing.T) {
	schema := compileSchema(t, "query_response.schema.json")
	app := setupContractApp(t)

	for _, query := range append([]string{"How many students haven't submitted?", "Show students on 2024-03-01"}, service.SuggestedQueries...) {
		body, err := json.Marshal(map[string]string{"query": query})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/admins/root/query", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, query)

		require.NoError(t, schema.Validate(decodeBody(t, resp)), query)
	}
}

func TestScopeResponseContract(t *testing.T) {
	schema := compileSchema(t, "scope_response.schema.json")
	app := setupContractApp(t)

	for _, adminID := range []string{"a1", "root"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admins/"+adminID+"/scope", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.NoError(t, schema.Validate(decodeBody(t, resp)), adminID)
	}
}
