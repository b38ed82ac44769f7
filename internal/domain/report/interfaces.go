package report

import (
	"context"
	"time"

	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Repository persists daily reports, one per user and day.
type Repository interface {
	// Upsert inserts or overwrites the report for (user, report date) and
	// returns the stored row.
	Upsert(ctx context.Context, userID string, r *Report) (*Report, error)
	Get(ctx context.Context, userID, day string) (*Report, error)
	// List returns reports with from <= date <= to, newest first. Empty bounds are open.
	List(ctx context.Context, userID, from, to string) ([]Report, error)
	UpdateContent(ctx context.Context, userID, day, content string, at time.Time) (*Report, error)
	Delete(ctx context.Context, userID, day string) error
}

// EntryReader loads the logs a report is built from.
type EntryReader interface {
	List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error)
	GetMany(ctx context.Context, userID string, ids []string) ([]worklog.Entry, error)
	RecentDays(ctx context.Context, userID, maxDay string, n int) ([]string, error)
}

// StateReader answers point-in-time task state questions from the ledger.
type StateReader interface {
	EffectiveStates(ctx context.Context, userID string, logIDs []string, asOf time.Time) (map[string]worklog.TaskState, error)
	CompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]string, error)
}

// Assigner runs the model-driven tag assignment for a day.
type Assigner interface {
	AssignDaily(ctx context.Context, userID string, in assist.DailyInput) (assist.MergeResult, error)
}

// Completer answers a prompt with free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
