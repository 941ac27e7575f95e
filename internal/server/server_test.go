package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/pawsense/internal/config"
	"github.com/agenthands/pawsense/internal/diagnosis"
	"github.com/agenthands/pawsense/internal/knowledge"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)

	symptoms := []knowledge.Symptom{
		{ID: "cough", Name: "Cough", Category: "respiratory", SeverityLevels: []string{"mild", "severe"}},
		{ID: "vomiting", Name: "Vomiting", Category: "digestive"},
	}
	conditions := []knowledge.Condition{
		{ID: "cold", Name: "Cold", Category: "respiratory", Severity: "mild", RequiredSymptoms: []string{"cough"}, ConfidenceThreshold: 0.5},
	}
	treatments := []knowledge.Treatment{
		{ID: "cold_home", ConditionID: "cold", TreatmentType: "home_care", Description: "Rest"},
	}

	store := knowledge.NewStaticStore(symptoms, conditions, treatments, knowledge.RuleTable{})
	return &Server{Store: store, Engine: diagnosis.NewEngine(store)}
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.SetupRouter().ServeHTTP(w, req)
	return w
}

func TestDiagnoseEndpoint(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodPost, "/diagnose", `{
		"name": "Rex",
		"species": "Dog",
		"age": 4,
		"symptoms": ["cough"]
	}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result diagnosis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Emergency)
	require.Len(t, result.Conditions, 1)
	assert.Equal(t, "cold", result.Conditions[0].Condition.ID)
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, "Cold", result.Recommendations.PrimaryDiagnosis)
}

func TestDiagnoseEndpointEmergency(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodPost, "/diagnose", `{
		"species": "dog",
		"age": 4,
		"symptoms": ["difficulty_breathing"]
	}`)

	require.Equal(t, http.StatusOK, w.Code)

	var result diagnosis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Emergency)
	assert.Empty(t, result.Conditions)
	assert.NotEmpty(t, result.Alerts)
}

func TestDiagnoseEndpointRejectsMissingSpecies(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodPost, "/diagnose", `{"age": 4, "symptoms": ["cough"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiagnoseEndpointRejectsNegativeAge(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodPost, "/diagnose", `{"species": "dog", "age": -2}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiagnoseEndpointRejectsMalformedBody(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodPost, "/diagnose", `{"species": "dog", "age": "four"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSymptoms(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodGet, "/api/symptoms", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Symptoms []map[string]any `json:"symptoms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Symptoms, 2)
	assert.Equal(t, "cough", body.Symptoms[0]["id"])
	assert.Equal(t, "respiratory", body.Symptoms[0]["category"])
}

func TestListSymptomCategories(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodGet, "/api/symptoms/categories", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Categories []struct {
			Category string           `json:"category"`
			Symptoms []map[string]any `json:"symptoms"`
		} `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Categories, 2)
	assert.Equal(t, "respiratory", body.Categories[0].Category)
	assert.Len(t, body.Categories[0].Symptoms, 1)
}

func TestListConditions(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodGet, "/api/conditions", "")

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Conditions []map[string]any `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Conditions, 1)
	assert.Equal(t, "cold", body.Conditions[0]["id"])
	assert.Equal(t, "mild", body.Conditions[0]["severity"])
}

func TestNewServerServesPartialKnowledgeBase(t *testing.T) {
	// One broken source must not take the server down; the catalogs that
	// loaded cleanly stay queryable.
	gin.SetMode(gin.TestMode)
	t.Setenv("DATA_DIR", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "symptoms.json"), []byte(`{"symptoms": [
		{"id": "cough", "name": "Cough", "category": "respiratory"}
	]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conditions.json"), []byte(`{"conditions": [{`), 0o644))

	cfg := config.Default()
	cfg.Knowledge.DataDir = dir
	srv := NewServer(cfg)

	require.NotNil(t, srv)
	assert.Len(t, srv.Store.Symptoms(), 1)
	assert.Empty(t, srv.Store.Conditions())

	w := doRequest(t, srv, http.MethodGet, "/api/symptoms", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer()

	w := doRequest(t, srv, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
