package testserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/mcp"
	"github.com/rpggio/worklog/internal/testserver"
	"github.com/stretchr/testify/require"
)

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.False(t, res.IsError, "tool %s failed: %s", name, text.Text)
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
}

func getJSON(t *testing.T, ts *testserver.TestServer, token, path string, out any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestFunctional_Authentication(t *testing.T) {
	ts := testserver.New(t, "user1")

	// Initialize is not tied to a user, tool calls are.
	anonymous := ts.Connect(t, "")
	_, err := anonymous.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "list_projects", Arguments: map[string]any{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized")

	wrong := ts.Connect(t, "not-a-token")
	_, err = wrong.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "list_projects", Arguments: map[string]any{}})
	require.Error(t, err)

	require.Equal(t, http.StatusUnauthorized, getJSON(t, ts, "", "/api/projects", nil))
	require.Equal(t, http.StatusOK, getJSON(t, ts, ts.Token, "/api/projects", nil))
}

func TestFunctional_UsersAreIsolated(t *testing.T) {
	ts := testserver.New(t, "user1")
	otherToken := ts.AddAPIKey(t, "user2")

	session := ts.Connect(t, ts.Token)
	var proj project.Project
	callTool(t, session, "create_project", map[string]any{"name": "Seocho Center", "code": "SC"}, &proj)

	var mine mcp.ProjectsResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts, ts.Token, "/api/projects", &mine))
	require.Len(t, mine.Projects, 1)

	var theirs mcp.ProjectsResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts, otherToken, "/api/projects", &theirs))
	require.Empty(t, theirs.Projects)
	require.Equal(t, http.StatusNotFound, getJSON(t, ts, otherToken, "/api/projects/"+proj.ID, nil))

	// The same code is free for another user.
	other := ts.Connect(t, otherToken)
	callTool(t, other, "create_project", map[string]any{"name": "Other Seocho", "code": "SC"}, nil)
}

func TestFunctional_TaskFlowAcrossSurfaces(t *testing.T) {
	ts := testserver.New(t, "user1")
	session := ts.Connect(t, ts.Token)

	var proj project.Project
	callTool(t, session, "create_project", map[string]any{"name": "Pangyo Tower", "code": "PG"}, &proj)

	var task worklog.Task
	callTool(t, session, "create_task", map[string]any{
		"project_id":  proj.ID,
		"description": "confirm the crane schedule",
		"priority":    "high",
		"date":        "2026-02-08",
	}, &task)
	require.Equal(t, "#PG6020801", task.TaskTag)

	var second worklog.Task
	callTool(t, session, "create_task", map[string]any{
		"project_id":  proj.ID,
		"description": "send the revised quote",
		"date":        "2026-02-08",
	}, &second)
	require.Equal(t, "#PG6020802", second.TaskTag)

	callTool(t, session, "create_log", map[string]any{
		"content":     "crane vendor called back",
		"log_type":    "F",
		"log_date":    "2026-02-09",
		"project_id":  proj.ID,
		"task_id_tag": task.TaskTag,
	}, nil)
	callTool(t, session, "set_task_state", map[string]any{"id": task.LogID, "state": "done"}, nil)

	var hist mcp.HistoryResponse
	require.Equal(t, http.StatusOK, getJSON(t, ts, ts.Token, "/api/logs/"+task.LogID+"/history", &hist))
	require.Len(t, hist.Transitions, 2)
	require.Equal(t, worklog.StateHigh, hist.Transitions[0].State)
	require.NotNil(t, hist.Transitions[0].ValidTo)
	require.Nil(t, hist.Transitions[1].ValidTo)

	var rep report.Report
	callTool(t, session, "generate_report", map[string]any{"date": "2026-02-09"}, &rep)
	require.Equal(t, 1, rep.FCount)

	var stored report.Report
	require.Equal(t, http.StatusOK, getJSON(t, ts, ts.Token, "/api/reports/2026-02-09", &stored))
	require.Equal(t, rep.Content, stored.Content)
	require.Contains(t, stored.Content, "crane vendor called back")
}
