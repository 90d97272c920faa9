package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/opsgpt/internal/application/agent"
	"github.com/doeshing/opsgpt/internal/application/mediator"
	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/infrastructure/parser"
	"github.com/doeshing/opsgpt/internal/infrastructure/plugins"
	"github.com/doeshing/opsgpt/internal/infrastructure/security"
	"github.com/doeshing/opsgpt/internal/infrastructure/state"
	"github.com/doeshing/opsgpt/internal/pkg/logger"
)

type countingExecutor struct {
	calls int
}

func (e *countingExecutor) Execute(context.Context, string) (string, error) {
	e.calls++
	return "", nil
}

func newTestServer(t *testing.T) *Server {
	server, _ := newTestServerWithExecutor(t)
	return server
}

func newTestServerWithExecutor(t *testing.T) (*Server, *countingExecutor) {
	t.Helper()
	log := logger.NewNop()
	exec := &countingExecutor{}

	intentParser, err := parser.New(parser.DefaultPatterns(), nil, 0, log)
	require.NoError(t, err)

	registry := plugins.NewRegistry(log)
	troubleshooting := plugins.NewTroubleshootingPlugin(exec)
	registry.Register(troubleshooting.Descriptor(), troubleshooting)

	policy, err := security.NewPolicy(domain.SecuritySettings{DenyActions: []string{"restart_service"}})
	require.NoError(t, err)

	dir := t.TempDir()
	store, err := state.NewStore(domain.StateSettings{
		File:      filepath.Join(dir, "agent_state.json"),
		BackupDir: filepath.Join(dir, "backups"),
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	med := mediator.New(registry, policy, log)
	service := agent.NewService(intentParser, med, store, log)

	return NewServer("127.0.0.1:0", service, registry, store, log), exec
}

func postCommand(t *testing.T, handler http.Handler, body string) (*httptest.ResponseRecorder, domain.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/command", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp domain.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestCommandEndpointSimulatesByDefault(t *testing.T) {
	server := newTestServer(t)

	rec, resp := postCommand(t, server.Handler(), `{"command": "show logs from frontend"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Output, "[DRY RUN]")
	assert.Contains(t, resp.Output, "frontend")
}

func TestCommandEndpointConfirmModeStaysPending(t *testing.T) {
	server, exec := newTestServerWithExecutor(t)

	rec, resp := postCommand(t, server.Handler(), `{"command": "show logs from frontend", "mode": "confirm"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, true, resp.Metadata["pending_confirmation"])
	assert.Contains(t, resp.Output, "[DRY RUN]")
	assert.Zero(t, exec.calls, "HTTP confirm requests must never execute; there is no one at the server's terminal to approve them")
}

func TestCommandEndpointExecuteModeRunsHandler(t *testing.T) {
	server, exec := newTestServerWithExecutor(t)

	_, resp := postCommand(t, server.Handler(), `{"command": "show logs from frontend", "mode": "execute"}`)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, exec.calls)
}

func TestCommandEndpointReportsPolicyDenial(t *testing.T) {
	server := newTestServer(t)

	rec, resp := postCommand(t, server.Handler(), `{"command": "restart the payments service", "mode": "execute"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "pipeline failures are payload, not transport errors")
	assert.False(t, resp.Success)
	assert.Equal(t, "POLICY_DENIED", resp.Metadata["error_code"])
}

func TestCommandEndpointRejectsEmptyCommand(t *testing.T) {
	server := newTestServer(t)

	rec, resp := postCommand(t, server.Handler(), `{"command": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "required")
}

func TestCommandEndpointRejectsMalformedJSON(t *testing.T) {
	server := newTestServer(t)

	rec, _ := postCommand(t, server.Handler(), `{"command": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandEndpointRejectsGet(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/command", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpointReportsSession(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["session_id"])
}

func TestCapabilitiesEndpointListsPlugins(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/capabilities", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "troubleshooting"))
}
