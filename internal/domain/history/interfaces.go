package history

import (
	"context"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Repository reads the task-state ledger.
type Repository interface {
	// ListAsOf returns the ledger rows of logIDs with valid_from <= asOf.
	ListAsOf(ctx context.Context, userID string, logIDs []string, asOf time.Time) ([]Transition, error)
	ListForLog(ctx context.Context, userID, logID string) ([]Transition, error)
	// ListEntered returns rows moving into state with valid_from in [from, to].
	ListEntered(ctx context.Context, userID string, state worklog.TaskState, from, to time.Time) ([]Transition, error)
}
