package worklog

import (
	"context"
	"time"
)

// Repository persists entries.
type Repository interface {
	Create(ctx context.Context, userID string, e *Entry) error
	Get(ctx context.Context, userID, id string) (*Entry, error)
	GetMany(ctx context.Context, userID string, ids []string) ([]Entry, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]Entry, error)
	ListTasks(ctx context.Context, userID string, opts TaskListOptions) ([]Entry, error)
	// Create and Update record a state change in the ledger within the same
	// transaction as the row write.
	Update(ctx context.Context, userID string, e *Entry) error
	Delete(ctx context.Context, userID, id string) error
	// UpdateState persists the state and, in the same transaction, closes the
	// open ledger interval and appends a new one starting at at.
	UpdateState(ctx context.Context, userID, id string, state TaskState, at time.Time) error
	// FillProject sets project_id only where it is still null.
	FillProject(ctx context.Context, userID, id, projectID string) (bool, error)
	// FillTag sets task_id_tag only where it is still null. markTask also
	// records the entry as reviewed-as-task.
	FillTag(ctx context.Context, userID, id, tag string, markTask bool) (bool, error)
	SetReview(ctx context.Context, userID, id string, review Review) error
	// RecentDays returns up to n distinct log dates on or before maxDay, newest first.
	RecentDays(ctx context.Context, userID, maxDay string, n int) ([]string, error)
}

// TagMinter allocates fresh task tags for a project and day.
type TagMinter interface {
	MintTag(ctx context.Context, userID, projectID, day string) (string, error)
}

// Indexer is notified of new or changed content for best-effort embedding.
type Indexer interface {
	IndexAsync(userID, entryID string)
}
