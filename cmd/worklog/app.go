package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rpggio/worklog/internal/config"
	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/reconcile"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/llm"
	"github.com/rpggio/worklog/internal/mcp"
	"github.com/rpggio/worklog/internal/sqlite"
)

// app holds the wired services of one process.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	loc      *time.Location
	db       *sqlite.DB
	apiKeys  *sqlite.APIKeyRepository
	indexer  *search.Indexer
	services mcp.Services
	assist   *assist.Service
}

// completer is what the chat-completion provider offers every service.
type completer interface {
	assist.Completer
	report.Completer
	search.Completer
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, err
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	chat, embedder := newModels(cfg.LLM, logger)

	projectRepo := sqlite.NewProjectRepository(db)
	entryRepo := sqlite.NewEntryRepository(db)
	embeddingRepo := sqlite.NewEmbeddingRepository(db)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		loc:     loc,
		db:      db,
		apiKeys: sqlite.NewAPIKeyRepository(db),
	}

	projectSvc := project.NewService(projectRepo, logger)
	historySvc := history.NewService(sqlite.NewHistoryRepository(db), logger)

	var indexer worklog.Indexer
	if embedder != nil {
		a.indexer = search.NewIndexer(embedder, embeddingRepo, entryRepo, cfg.LLM.IndexWorkers, logger)
		indexer = a.indexer
	}
	entrySvc := worklog.NewService(entryRepo, projectSvc, indexer, logger).WithLocation(loc)

	var assigner report.Assigner
	var reportCompleter report.Completer
	var searchCompleter search.Completer
	if chat != nil {
		a.assist = assist.NewService(chat, projectSvc, entrySvc, entryRepo, projectSvc, logger)
		assigner = a.assist
		reportCompleter = chat
		searchCompleter = chat
	}
	reportSvc := report.NewService(sqlite.NewReportRepository(db), entryRepo, historySvc, assigner, reportCompleter, logger).WithLocation(loc)

	a.services = mcp.Services{
		Projects: projectSvc,
		Entries:  entrySvc,
		History:  historySvc,
		Sync:     reconcile.NewService(entryRepo, projectSvc, entrySvc, logger),
		Reports:  reportSvc,
		Search:   search.NewService(embedder, searchCompleter, embeddingRepo, entryRepo, logger),
	}
	if a.assist != nil {
		a.services.Assist = a.assist
	}
	if a.indexer != nil {
		a.services.Indexer = a.indexer
	}
	return a, nil
}

// newModels builds the configured providers. A provider that cannot be built
// is logged and left out, so the features depending on it report NOT_CONFIGURED.
func newModels(cfg config.LLMConfig, logger *slog.Logger) (completer, search.Embedder) {
	var chat completer
	if cfg.Provider == "openai" {
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			MaxRetries: cfg.MaxRetries,
		})
		if err != nil {
			logger.Warn("chat model disabled", "error", err)
		} else {
			chat = client
		}
	}

	var embedder search.Embedder
	switch cfg.EmbeddingProvider {
	case "openai":
		baseURL := cfg.EmbeddingBaseURL
		if baseURL == "" {
			baseURL = cfg.BaseURL
		}
		client, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:         cfg.APIKey,
			BaseURL:        baseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.Dimensions,
			MaxRetries:     cfg.MaxRetries,
		})
		if err != nil {
			logger.Warn("embeddings disabled", "error", err)
		} else {
			embedder = client
		}
	case "gemini":
		client, err := llm.NewGeminiEmbedder(llm.GeminiConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.EmbeddingBaseURL,
			Model:      cfg.EmbeddingModel,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			logger.Warn("embeddings disabled", "error", err)
		} else {
			embedder = client
		}
	}
	return chat, embedder
}

// Close waits for background indexing and closes the database.
func (a *app) Close() error {
	if a.indexer != nil {
		a.indexer.Wait()
	}
	return a.db.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
