package history

import (
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Effective resolves the state in force at asOf for every log that has one.
// Per log the row with the latest valid_from not after asOf wins (later ID on
// ties). A winning row already closed by asOf does not count. Logs without a
// qualifying row are absent from the result.
func Effective(rows []Transition, asOf time.Time) map[string]worklog.TaskState {
	latest := make(map[string]Transition, len(rows))
	for _, row := range rows {
		if row.ValidFrom.After(asOf) {
			continue
		}
		cur, ok := latest[row.LogID]
		if !ok || row.ValidFrom.After(cur.ValidFrom) || (row.ValidFrom.Equal(cur.ValidFrom) && row.ID > cur.ID) {
			latest[row.LogID] = row
		}
	}

	states := make(map[string]worklog.TaskState, len(latest))
	for logID, row := range latest {
		if row.ValidTo != nil && !row.ValidTo.After(asOf) {
			continue
		}
		if row.State == worklog.StateNone {
			continue
		}
		states[logID] = row.State
	}
	return states
}
