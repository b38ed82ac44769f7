package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/reconcile"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, userID string, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context, userID string, status project.Status) ([]project.ProjectSummary, error)
	Get(ctx context.Context, userID, id string) (*project.Project, error)
	Update(ctx context.Context, userID string, req project.UpdateRequest) (*project.Project, error)
	Delete(ctx context.Context, userID, id string) error
}

// EntryService defines log entry and task operations needed by MCP.
type EntryService interface {
	Create(ctx context.Context, userID string, req worklog.CreateRequest) (*worklog.Entry, error)
	CreateTask(ctx context.Context, userID string, req worklog.CreateTaskRequest) (*worklog.Task, error)
	Get(ctx context.Context, userID, id string) (*worklog.Entry, error)
	List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error)
	ListTasks(ctx context.Context, userID string, opts worklog.TaskListOptions) ([]worklog.Task, error)
	Update(ctx context.Context, userID string, req worklog.UpdateRequest) (*worklog.Entry, error)
	SetState(ctx context.Context, userID, id string, state worklog.TaskState) (*worklog.Entry, bool, error)
	Delete(ctx context.Context, userID, id string) error
}

// HistoryService defines ledger reads needed by MCP.
type HistoryService interface {
	ForLog(ctx context.Context, userID, logID string) ([]history.Transition, error)
	EffectiveStates(ctx context.Context, userID string, logIDs []string, asOf time.Time) (map[string]worklog.TaskState, error)
}

// SyncService runs the backfill passes.
type SyncService interface {
	Sync(ctx context.Context, userID string) (reconcile.Result, error)
}

// AssistService defines the model-driven operations.
type AssistService interface {
	Capture(ctx context.Context, userID string, req assist.CaptureRequest) ([]worklog.Entry, error)
	ClassifyTasks(ctx context.Context, userID, day string) (assist.ClassifyResult, error)
}

// ReportService defines daily report operations needed by MCP.
type ReportService interface {
	Generate(ctx context.Context, userID, day string) (*report.Report, error)
	Get(ctx context.Context, userID, day string) (*report.Report, error)
	List(ctx context.Context, userID, from, to string) ([]report.Report, error)
	UpdateContent(ctx context.Context, userID, day, content string) (*report.Report, error)
	Delete(ctx context.Context, userID, day string) error
	Summarize(ctx context.Context, userID, from, to string) (*report.Summary, error)
}

// SearchService defines search operations needed by MCP.
type SearchService interface {
	Search(ctx context.Context, userID, query string, opts search.Options) ([]search.Match, error)
	Ask(ctx context.Context, userID, question string) (*search.Answer, error)
	Lexical(ctx context.Context, userID, query string, limit int) ([]worklog.Entry, error)
}

// EmbeddingIndexer backfills missing embeddings.
type EmbeddingIndexer interface {
	Backfill(ctx context.Context, userID string, limit int) (search.BackfillResult, error)
}

// Services contains all domain services needed by MCP. Assist and Indexer
// may be nil when no model is configured.
type Services struct {
	Projects ProjectService
	Entries  EntryService
	History  HistoryService
	Sync     SyncService
	Assist   AssistService
	Reports  ReportService
	Search   SearchService
	Indexer  EmbeddingIndexer
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      UserResolver
	AuthEnabled   bool
	DefaultUser   string
	TransportMode string // "stdio" or "http"
	Location      *time.Location
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultUser == "" {
		cfg.DefaultUser = "local"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "worklog",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and always runs unauthenticated.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultUser))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	t := &tools{svc: cfg.Services, loc: cfg.Location, logger: cfg.Logger}
	t.register(server)

	return server
}
