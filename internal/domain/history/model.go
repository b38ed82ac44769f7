package history

import (
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Transition is one interval of the task-state ledger. State is
// worklog.StateNone when the state was cleared. ValidTo is nil while the
// interval is current.
type Transition struct {
	ID        int64             `json:"id"`
	LogID     string            `json:"log_id"`
	State     worklog.TaskState `json:"task_state"`
	ValidFrom time.Time         `json:"valid_from"`
	ValidTo   *time.Time        `json:"valid_to,omitempty"`
}
