package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/reconcile"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/mcp"
	"github.com/rpggio/worklog/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	entryRepo := sqlite.NewEntryRepository(db)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), nil)
	entrySvc := worklog.NewService(entryRepo, projectSvc, nil, nil)
	historySvc := history.NewService(sqlite.NewHistoryRepository(db), nil)

	router := NewServer(Options{
		Services: mcp.Services{
			Projects: projectSvc,
			Entries:  entrySvc,
			History:  historySvc,
			Sync:     reconcile.NewService(entryRepo, projectSvc, entrySvc, nil),
			Reports:  report.NewService(sqlite.NewReportRepository(db), entryRepo, historySvc, nil, nil, nil),
			Search:   search.NewService(nil, nil, sqlite.NewEmbeddingRepository(db), entryRepo, nil),
		},
		Auth: AuthMiddleware(&testResolver{tokenToUser: map[string]string{"token": "user1"}}),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, server *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(Options{}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_RequiresToken(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_ProjectsAndTasks(t *testing.T) {
	server := newTestServer(t)

	var proj project.Project
	status := do(t, server, http.MethodPost, "/api/projects", map[string]any{"name": "Seocho Center", "code": "SC"}, &proj)
	require.Equal(t, http.StatusCreated, status)

	var apiErr struct {
		Error mcp.APIError `json:"error"`
	}
	status = do(t, server, http.MethodPost, "/api/projects", map[string]any{"name": "Dup", "code": "SC"}, &apiErr)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "DUPLICATE_CODE", apiErr.Error.Code)

	var task worklog.Task
	status = do(t, server, http.MethodPost, "/api/tasks", map[string]any{
		"project_id":  proj.ID,
		"description": "order the signage",
		"date":        "2026-02-09",
	}, &task)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "#SC6020901", task.TaskTag)
	require.Equal(t, worklog.StateMedium, task.TaskState)

	var change mcp.StateChangeResponse
	status = do(t, server, http.MethodPut, "/api/logs/"+task.LogID+"/state", map[string]any{"state": "review"}, &change)
	require.Equal(t, http.StatusOK, status)
	require.True(t, change.Changed)
	require.Equal(t, worklog.StateReview, change.Log.TaskState)

	status = do(t, server, http.MethodPut, "/api/logs/"+task.LogID+"/state", map[string]any{"state": "waiting"}, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "INVALID_STATE", apiErr.Error.Code)

	var tasks mcp.TasksResponse
	status = do(t, server, http.MethodGet, "/api/tasks?state=review", nil, &tasks)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, tasks.Tasks, 1)

	var hist mcp.HistoryResponse
	do(t, server, http.MethodGet, "/api/logs/"+task.LogID+"/history", nil, &hist)
	require.Len(t, hist.Transitions, 2)
}

func TestAPI_Reports(t *testing.T) {
	server := newTestServer(t)

	var apiErr struct {
		Error mcp.APIError `json:"error"`
	}
	status := do(t, server, http.MethodPost, "/api/reports/2026-02-09", nil, &apiErr)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NO_LOGS", apiErr.Error.Code)

	status = do(t, server, http.MethodPost, "/api/logs", map[string]any{
		"content":  "received the fire inspection notice",
		"log_type": "F",
		"log_date": "2026-02-09",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var rep report.Report
	status = do(t, server, http.MethodPost, "/api/reports/2026-02-09", nil, &rep)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, rep.FCount)

	status = do(t, server, http.MethodPut, "/api/reports/2026-02-09", map[string]any{"content": "edited"}, &rep)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "edited", rep.Content)

	var list mcp.ReportsResponse
	do(t, server, http.MethodGet, "/api/reports?from=2026-02-01&to=2026-02-28", nil, &list)
	require.Len(t, list.Reports, 1)

	status = do(t, server, http.MethodDelete, "/api/reports/2026-02-09", nil, nil)
	require.Equal(t, http.StatusOK, status)
	status = do(t, server, http.MethodGet, "/api/reports/2026-02-09", nil, &apiErr)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "REPORT_NOT_FOUND", apiErr.Error.Code)
}

func TestAPI_OptionalFeatures(t *testing.T) {
	server := newTestServer(t)

	var apiErr struct {
		Error mcp.APIError `json:"error"`
	}
	status := do(t, server, http.MethodPost, "/api/logs/capture", map[string]any{"raw_input": "SC F call"}, &apiErr)
	require.Equal(t, http.StatusNotImplemented, status)
	require.Equal(t, "NOT_CONFIGURED", apiErr.Error.Code)

	status = do(t, server, http.MethodGet, "/api/search?q=permit&limit=x", nil, &apiErr)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "BAD_REQUEST", apiErr.Error.Code)
}
