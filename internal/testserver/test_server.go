// Package testserver starts the full HTTP stack over an in-memory database
// for end-to-end tests.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/reconcile"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/mcp"
	"github.com/rpggio/worklog/internal/sqlite"
	"github.com/rpggio/worklog/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Token  string
	UserID string

	apiKeys *sqlite.APIKeyRepository
}

// New serves /mcp and /api with auth enabled and one API key issued to userID.
func New(t *testing.T, userID string) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	entryRepo := sqlite.NewEntryRepository(db)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), nil)
	entrySvc := worklog.NewService(entryRepo, projectSvc, nil, nil)
	historySvc := history.NewService(sqlite.NewHistoryRepository(db), nil)
	services := mcp.Services{
		Projects: projectSvc,
		Entries:  entrySvc,
		History:  historySvc,
		Sync:     reconcile.NewService(entryRepo, projectSvc, entrySvc, nil),
		Reports:  report.NewService(sqlite.NewReportRepository(db), entryRepo, historySvc, nil, nil, nil),
		Search:   search.NewService(nil, nil, sqlite.NewEmbeddingRepository(db), entryRepo, nil),
	}

	apiKeys := sqlite.NewAPIKeyRepository(db)
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(transport.Options{
		MCP:      mcpHandler,
		Services: services,
		Auth:     transport.AuthMiddleware(apiKeys),
	}))

	ts := &TestServer{Server: server, DB: db, UserID: userID, apiKeys: apiKeys}
	ts.Token = ts.AddAPIKey(t, userID)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})
	return ts
}

// AddAPIKey issues another key and returns its token.
func (ts *TestServer) AddAPIKey(t *testing.T, userID string) string {
	t.Helper()
	token, err := ts.apiKeys.Create(context.Background(), userID, "test")
	require.NoError(t, err)
	return token
}

// Connect opens an MCP client session over streamable HTTP. An empty token
// sends no Authorization header.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()
	httpClient := &http.Client{Transport: bearerTransport{token: token, base: http.DefaultTransport}}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.base.RoundTrip(req)
}
