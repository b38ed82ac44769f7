package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
	"golang.org/x/sync/semaphore"
)

const (
	defaultIndexWorkers = 4
	defaultIndexTimeout = 30 * time.Second
)

// Indexer embeds entries. IndexAsync is fire-and-forget: failures are
// logged and never reach the caller, and work is dropped when all workers
// are busy.
type Indexer struct {
	embedder Embedder
	store    Store
	entries  EntryReader
	logger   *slog.Logger
	sem      *semaphore.Weighted
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewIndexer creates an indexer with at most workers concurrent background embeds.
func NewIndexer(embedder Embedder, store Store, entries EntryReader, workers int, logger *slog.Logger) *Indexer {
	if workers <= 0 {
		workers = defaultIndexWorkers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Indexer{
		embedder: embedder,
		store:    store,
		entries:  entries,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(workers)),
		timeout:  defaultIndexTimeout,
	}
}

// IndexAsync embeds an entry in the background.
func (ix *Indexer) IndexAsync(userID, entryID string) {
	if ix == nil || ix.embedder == nil {
		return
	}
	if !ix.sem.TryAcquire(1) {
		ix.logger.Warn("embedding skipped, indexer busy", "log_id", entryID)
		return
	}
	ix.wg.Add(1)
	go func() {
		defer ix.wg.Done()
		defer ix.sem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), ix.timeout)
		defer cancel()
		if err := ix.Index(ctx, userID, entryID); err != nil {
			ix.logger.Warn("embedding failed", "log_id", entryID, "error", err)
		}
	}()
}

// Wait blocks until background embeds finish.
func (ix *Indexer) Wait() {
	ix.wg.Wait()
}

// Index embeds one entry synchronously.
func (ix *Indexer) Index(ctx context.Context, userID, entryID string) error {
	if ix.embedder == nil {
		return ErrNotConfigured
	}
	entry, err := ix.entries.Get(ctx, userID, entryID)
	if err != nil {
		return fmt.Errorf("loading entry: %w", err)
	}
	text := embeddingText(*entry)
	if text == "" {
		return nil
	}
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embedding entry: %w", err)
	}
	if err := ix.store.Upsert(ctx, userID, entryID, vec, entry.Content); err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	return nil
}

// Backfill embeds up to limit recent entries that have no embedding yet.
// Individual failures are counted and skipped.
func (ix *Indexer) Backfill(ctx context.Context, userID string, limit int) (BackfillResult, error) {
	if ix.embedder == nil {
		return BackfillResult{}, ErrNotConfigured
	}
	if limit <= 0 {
		limit = DefaultBackfillLimit
	}
	if limit > MaxBackfillLimit {
		limit = MaxBackfillLimit
	}

	missing, err := ix.store.Unindexed(ctx, userID, backfillScan)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("finding unindexed logs: %w", err)
	}

	batch := missing
	if len(batch) > limit {
		batch = batch[:limit]
	}
	var res BackfillResult
	for _, id := range batch {
		if err := ix.Index(ctx, userID, id); err != nil {
			ix.logger.Warn("backfill embedding failed", "log_id", id, "error", err)
			res.Failed++
			continue
		}
		res.Created++
	}
	res.Remaining = len(missing) - res.Created
	return res, nil
}

func embeddingText(e worklog.Entry) string {
	parts := make([]string, 0, 3)
	if e.Source != nil {
		parts = append(parts, *e.Source+":")
	}
	parts = append(parts, e.Content)
	if len(e.Keywords) > 0 {
		parts = append(parts, strings.Join(e.Keywords, " "))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
