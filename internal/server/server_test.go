// internal/server/server_test.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corep-assist/internal/common/logger"
	"corep-assist/internal/models"
	"corep-assist/internal/pipeline"
	"corep-assist/pkg/templates"
)

// ==========================================
// Test Helper Functions
// ==========================================

type fakeProcessor struct {
	response *models.QueryResponse
	err      error
	count    int
	countErr error
	lastReq  *models.QueryRequest
}

func (f *fakeProcessor) Process(_ context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeProcessor) DocumentCount(context.Context) (int, error) {
	return f.count, f.countErr
}

func createTestServer(t *testing.T, processor *fakeProcessor) http.Handler {
	t.Helper()
	return New(processor, templates.NewRegistry(), "1.0.0", logger.NewTestLogger(t)).Handler()
}

func doRequest(handler http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func queryBody(question, scenario, templateCode string) io.Reader {
	body, _ := json.Marshal(map[string]string{
		"question":      question,
		"scenario":      scenario,
		"template_code": templateCode,
	})
	return strings.NewReader(string(body))
}

// ==========================================
// Service Info & Health Tests
// ==========================================

func TestServer_Root(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "Regulatory Reporting Assistant API", payload["message"])
	assert.Equal(t, "1.0.0", payload["version"])

	endpoints, ok := payload["endpoints"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/api/query", endpoints["query"])
	assert.Equal(t, "/api/templates", endpoints["templates"])
	assert.Equal(t, "/api/health", endpoints["health"])
}

func TestServer_Root_UnknownPath(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeBody(t, rec)["detail"])
}

func TestServer_Health(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{count: 42})

	rec := doRequest(handler, http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, float64(42), payload["documents_loaded"])
}

func TestServer_Health_StoreUnreachable(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{countErr: errors.New("store offline")})

	rec := doRequest(handler, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "Health check failed")
}

func TestServer_Templates(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/api/templates", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)

	list, ok := payload["templates"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	entry := list[0].(map[string]interface{})
	assert.Equal(t, "C_01.00", entry["code"])
	assert.Equal(t, "Own Funds", entry["name"])
}

// ==========================================
// Query Endpoint Tests
// ==========================================

func TestServer_Query_Success(t *testing.T) {
	processor := &fakeProcessor{response: &models.QueryResponse{
		Template: "C_01.00",
		Fields: []models.GeneratedField{
			{FieldCode: "C_01.00_r010", FieldName: "Capital instruments and related share premium accounts", Value: "£300M"},
		},
		ValidationFlags:  []string{},
		AuditLog:         []string{"checked"},
		FormattedOutput:  "COREP Template: Own Funds (C_01.00)",
		RetrievedContext: []models.ContextPreview{{Content: "passage...", Source: "PRA_Rulebook"}},
	}}
	handler := createTestServer(t, processor)

	rec := doRequest(handler, http.MethodPost, "/api/query",
		queryBody("How do we report shares?", "Issued £300 million of ordinary shares", "C_01.00"))

	require.Equal(t, http.StatusOK, rec.Code)

	var response models.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "C_01.00", response.Template)
	require.Len(t, response.Fields, 1)
	assert.Equal(t, "£300M", response.Fields[0].Value)

	require.NotNil(t, processor.lastReq)
	assert.Equal(t, "How do we report shares?", processor.lastReq.Question)
	assert.Equal(t, "C_01.00", processor.lastReq.TemplateCode)
}

func TestServer_Query_ValidationFailure(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	body := strings.NewReader(`{"question": "How do we report shares?"}`)
	rec := doRequest(handler, http.MethodPost, "/api/query", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "scenario: required field missing")
}

func TestServer_Query_MalformedBody(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodPost, "/api/query", strings.NewReader("{not json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "Invalid request body")
}

func TestServer_Query_NoRelevantContext(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{err: pipeline.ErrRetrievalEmpty})

	rec := doRequest(handler, http.MethodPost, "/api/query", queryBody("q", "s", ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t,
		"No relevant regulatory context found. Please ensure documents are ingested.",
		decodeBody(t, rec)["detail"])
}

func TestServer_Query_GenerationError(t *testing.T) {
	processorErr := fmt.Errorf("%w: %s", pipeline.ErrGeneration, "GENERATION_FAILED: status 503")
	handler := createTestServer(t, &fakeProcessor{err: processorErr})

	rec := doRequest(handler, http.MethodPost, "/api/query", queryBody("q", "s", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "LLM processing error: GENERATION_FAILED: status 503", decodeBody(t, rec)["detail"])
}

func TestServer_Query_UnexpectedError(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{err: errors.New("store exploded")})

	rec := doRequest(handler, http.MethodPost, "/api/query", queryBody("q", "s", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Query processing error: store exploded", decodeBody(t, rec)["detail"])
}

func TestServer_Query_MethodNotAllowed(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/api/query", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================================
// Middleware Tests
// ==========================================

func TestServer_RequestIDAssigned(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/", nil)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_RequestIDPreserved(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id-123", rec.Header().Get("X-Request-ID"))
}

func TestServer_CORSHeaders(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/api/health", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := doRequest(handler, http.MethodOptions, "/api/query", nil)
	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Contains(t, preflight.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestServer_MetricsEndpoint(t *testing.T) {
	handler := createTestServer(t, &fakeProcessor{})

	rec := doRequest(handler, http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}
