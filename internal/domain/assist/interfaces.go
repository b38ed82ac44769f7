package assist

import (
	"context"

	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Completer answers a prompt with free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProjectLister lists the user's projects.
type ProjectLister interface {
	List(ctx context.Context, userID string, status project.Status) ([]project.ProjectSummary, error)
}

// EntryWriter creates entries through the normal write path.
type EntryWriter interface {
	Create(ctx context.Context, userID string, req worklog.CreateRequest) (*worklog.Entry, error)
}

// EntryStore reads entries and applies fill-if-null merges.
type EntryStore interface {
	List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error)
	RecentDays(ctx context.Context, userID, maxDay string, n int) ([]string, error)
	FillTag(ctx context.Context, userID, id, tag string, markTask bool) (bool, error)
	SetReview(ctx context.Context, userID, id string, review worklog.Review) error
}

// TagMinter allocates fresh task tags.
type TagMinter interface {
	MintTag(ctx context.Context, userID, projectID, day string) (string, error)
}
