package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Service answers point-in-time questions about task state.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new history service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// EffectiveStates returns the state in force at asOf for each of logIDs.
// Logs with no ledger row by then are left out; the live column is never consulted.
func (s *Service) EffectiveStates(ctx context.Context, userID string, logIDs []string, asOf time.Time) (map[string]worklog.TaskState, error) {
	if len(logIDs) == 0 {
		return map[string]worklog.TaskState{}, nil
	}
	rows, err := s.repo.ListAsOf(ctx, userID, logIDs, asOf)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return Effective(rows, asOf), nil
}

// ForLog returns the full ledger of one log, oldest first.
func (s *Service) ForLog(ctx context.Context, userID, logID string) ([]Transition, error) {
	rows, err := s.repo.ListForLog(ctx, userID, logID)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return rows, nil
}

// CompletedBetween returns the IDs of logs that moved to done within [from, to],
// in the order they were completed.
func (s *Service) CompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]string, error) {
	rows, err := s.repo.ListEntered(ctx, userID, worklog.StateDone, from, to)
	if err != nil {
		return nil, fmt.Errorf("reading completions: %w", err)
	}
	ids := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.LogID] {
			continue
		}
		seen[row.LogID] = true
		ids = append(ids, row.LogID)
	}
	return ids, nil
}
