package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/worklog/internal/mcp"
)

// Options configures the HTTP router.
type Options struct {
	// MCP serves the streamable MCP endpoint. It authenticates on its own.
	MCP      http.Handler
	Services mcp.Services
	// Auth guards /api and puts the user in the request context:
	// AuthMiddleware or DefaultUserMiddleware.
	Auth     func(http.Handler) http.Handler
	Location *time.Location
	Logger   *slog.Logger
}

// NewServer creates the HTTP router: /health, /mcp and the REST API under /api.
func NewServer(opts Options) *chi.Mux {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	a := &api{svc: opts.Services, loc: opts.Location, logger: opts.Logger}
	r.Route("/api", func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		a.routes(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
