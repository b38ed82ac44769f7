package sqlite

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/rpggio/worklog/internal/domain/search"
)

// EmbeddingRepository implements search.Store for SQLite. Vectors are kept
// as little-endian float32 blobs and compared in process.
type EmbeddingRepository struct {
	db *DB
}

// NewEmbeddingRepository creates a new EmbeddingRepository
func NewEmbeddingRepository(db *DB) *EmbeddingRepository {
	return &EmbeddingRepository{db: db}
}

// Upsert stores or replaces the embedding of a log
func (r *EmbeddingRepository) Upsert(ctx context.Context, userID, logID string, vector []float32, chunk string) error {
	query := `
		INSERT INTO log_embeddings (log_id, user_id, vector, dims, content_chunk, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (log_id) DO UPDATE SET
			vector = excluded.vector,
			dims = excluded.dims,
			content_chunk = excluded.content_chunk,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		logID,
		userID,
		float32ToBlob(vector),
		len(vector),
		chunk,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Match returns up to count logs whose cosine similarity to vector is at
// least threshold, most similar first
func (r *EmbeddingRepository) Match(ctx context.Context, userID string, vector []float32, threshold float64, count int) ([]search.Match, error) {
	if count <= 0 {
		count = search.DefaultLimit
	}
	query := normalize(vector)

	rows, err := r.db.QueryContext(ctx, `
		SELECT e.log_id, e.vector, e.dims, l.content, l.log_date, p.name
		FROM log_embeddings e
		JOIN logs l ON l.id = e.log_id
		LEFT JOIN projects p ON p.id = l.project_id
		WHERE e.user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}
	defer rows.Close()

	h := &matchHeap{}
	for rows.Next() {
		var (
			m        search.Match
			blob     []byte
			dims     int
			projName sql.NullString
		)
		if err := rows.Scan(&m.LogID, &blob, &dims, &m.Content, &m.LogDate, &projName); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if dims != len(query) {
			continue
		}
		m.Similarity = dotProduct(query, normalize(blobToFloat32(blob, dims)))
		if m.Similarity < threshold {
			continue
		}
		m.ProjectName = projName.String

		if h.Len() < count {
			heap.Push(h, m)
		} else if m.Similarity > (*h)[0].Similarity {
			(*h)[0] = m
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embeddings: %w", err)
	}

	matches := make([]search.Match, h.Len())
	for i := len(matches) - 1; i >= 0; i-- {
		matches[i] = heap.Pop(h).(search.Match)
	}
	return matches, nil
}

// Unindexed returns, newest first, the IDs among the user's scan most recent
// logs that have no embedding
func (r *EmbeddingRepository) Unindexed(ctx context.Context, userID string, scan int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT recent.id FROM (
			SELECT id, created_at FROM logs
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) recent
		WHERE NOT EXISTS (SELECT 1 FROM log_embeddings e WHERE e.log_id = recent.id)
		ORDER BY recent.created_at DESC, recent.id DESC
	`, userID, scan)
	if err != nil {
		return nil, fmt.Errorf("failed to list unindexed logs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan log id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unindexed logs: %w", err)
	}
	return ids, nil
}

// matchHeap keeps the best matches with the weakest at the root.
type matchHeap []search.Match

func (h matchHeap) Len() int           { return len(h) }
func (h matchHeap) Less(i, j int) bool { return h[i].Similarity < h[j].Similarity }
func (h matchHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *matchHeap) Push(x any)        { *h = append(*h, x.(search.Match)) }
func (h *matchHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func float32ToBlob(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func blobToFloat32(b []byte, dims int) []float32 {
	v := make([]float32, dims)
	for i := 0; i < dims && i*4+4 <= len(b); i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
