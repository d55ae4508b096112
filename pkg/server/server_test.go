package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwl-core/cwlrun/pkg/config"
	"github.com/cwl-core/cwlrun/pkg/engine"
	"github.com/cwl-core/cwlrun/pkg/logging"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestServer() *Server {
	eng := engine.New(engine.WithConfig(config.Testing()))
	return New(DefaultConfig(), eng, logging.New(logging.DefaultConfig()))
}

func TestServer_HealthReportsOK(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_RunExecutesDocumentAndReturnsOutputs(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "double.cwl", `
class: ExpressionTool
inputs:
  id: "#x"
  depth: 0
expression:
  value: "{ result: inputs.x * 2 }"
`)

	srv := newTestServer()
	body, _ := json.Marshal(map[string]interface{}{
		"document": path,
		"inputs":   map[string]interface{}{"x": 9},
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/run", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		ExecutionID string                 `json:"executionId"`
		Outputs     map[string]interface{} `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.ExecutionID)
	assert.EqualValues(t, 18, payload.Outputs["result"])
}

func TestServer_RunRejectsMissingDocument(t *testing.T) {
	srv := newTestServer()
	body, _ := json.Marshal(map[string]interface{}{"inputs": map[string]interface{}{}})
	req := httptest.NewRequest(http.MethodPost, "/v1/run", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ValidateReportsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "bad.cwl", `
inputs: []
`)

	srv := newTestServer()
	body, _ := json.Marshal(map[string]interface{}{"document": path})
	req := httptest.NewRequest(http.MethodPost, "/v1/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Valid)
	assert.NotEmpty(t, payload.Error)
}

func TestServer_MetricsEndpointServesPrometheusFormat(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
