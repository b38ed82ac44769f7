package worklog

// ListOptions filters entry listings. Zero values mean "no filter".
type ListOptions struct {
	Day            string
	From           string
	To             string
	Days           []string
	ProjectID      string
	LogType        LogType
	Tag            string
	Tags           []string
	Keyword        string
	Query          string
	MissingProject bool
	MissingTag     bool
	TaggedOnly     bool
	// Oldest first when true, newest first otherwise.
	Ascending bool
	Limit     int
	Offset    int
}

// TaskListOptions filters the task board.
type TaskListOptions struct {
	ProjectID string
	States    []TaskState
	WithLogs  bool
	Limit     int
}

// DefaultTaskLimit caps task board listings.
const DefaultTaskLimit = 200
