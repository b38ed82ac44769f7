package reconcile

import (
	"context"

	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

// EntryStore is the subset of entry persistence the sync passes need.
type EntryStore interface {
	List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error)
	FillProject(ctx context.Context, userID, id, projectID string) (bool, error)
	FillTag(ctx context.Context, userID, id, tag string, markTask bool) (bool, error)
}

// ProjectLister lists the user's projects.
type ProjectLister interface {
	List(ctx context.Context, userID string, status project.Status) ([]project.ProjectSummary, error)
}

// StateWriter changes task state through the ledger write path.
type StateWriter interface {
	SetState(ctx context.Context, userID, id string, state worklog.TaskState) (*worklog.Entry, bool, error)
}
