package search

import (
	"context"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Embedder turns text into a fixed-width vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer answers a prompt with free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Store persists embeddings and answers similarity queries.
type Store interface {
	Upsert(ctx context.Context, userID, logID string, vector []float32, chunk string) error
	Match(ctx context.Context, userID string, vector []float32, threshold float64, count int) ([]Match, error)
	// Unindexed returns, newest first, the IDs among the user's scan most
	// recent logs that have no embedding.
	Unindexed(ctx context.Context, userID string, scan int) ([]string, error)
}

// EntryReader loads entries to embed and to search lexically.
type EntryReader interface {
	Get(ctx context.Context, userID, id string) (*worklog.Entry, error)
	List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error)
}
