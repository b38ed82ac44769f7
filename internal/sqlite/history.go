package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/worklog"
)

// HistoryRepository implements history.Repository for SQLite
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historySelect = `SELECT id, log_id, task_state, valid_from, valid_to FROM task_state_history`

func (r *HistoryRepository) query(ctx context.Context, query string, args ...interface{}) ([]history.Transition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task state history: %w", err)
	}
	defer rows.Close()

	var transitions []history.Transition
	for rows.Next() {
		var (
			t         history.Transition
			state     sql.NullString
			validFrom string
			validTo   sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.LogID, &state, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		t.State = worklog.TaskState(state.String)
		if t.ValidFrom, err = parseTime(validFrom); err != nil {
			return nil, err
		}
		if t.ValidTo, err = parseNullTime(validTo); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}
	return transitions, nil
}

// ListAsOf returns the ledger rows of logIDs that started no later than asOf
func (r *HistoryRepository) ListAsOf(ctx context.Context, userID string, logIDs []string, asOf time.Time) ([]history.Transition, error) {
	if len(logIDs) == 0 {
		return nil, nil
	}
	args := []interface{}{userID, formatTime(asOf)}
	for _, id := range logIDs {
		args = append(args, id)
	}
	query := historySelect + fmt.Sprintf(`
		WHERE user_id = ? AND valid_from <= ? AND log_id IN (%s)
		ORDER BY log_id, valid_from, id
	`, placeholders(len(logIDs)))
	return r.query(ctx, query, args...)
}

// ListForLog returns the full ledger of one log, oldest first
func (r *HistoryRepository) ListForLog(ctx context.Context, userID, logID string) ([]history.Transition, error) {
	return r.query(ctx, historySelect+` WHERE user_id = ? AND log_id = ? ORDER BY valid_from, id`, userID, logID)
}

// ListEntered returns rows moving into state with valid_from in [from, to], oldest first
func (r *HistoryRepository) ListEntered(ctx context.Context, userID string, state worklog.TaskState, from, to time.Time) ([]history.Transition, error) {
	return r.query(ctx, historySelect+`
		WHERE user_id = ? AND task_state = ? AND valid_from >= ? AND valid_from <= ?
		ORDER BY valid_from, id
	`, userID, string(state), formatTime(from), formatTime(to))
}
