package worklog

import "time"

// LogType is the kind of work event an entry records.
type LogType string

const (
	TypeReceived LogType = "F"
	TypeSent     LogType = "T"
	TypeExecuted LogType = "W"
	TypeInfo     LogType = "I"
	// TypeManualTask marks rows created directly as tasks rather than logged.
	TypeManualTask LogType = "E9"
)

// Valid reports whether t is a type users may log with.
func (t LogType) Valid() bool {
	switch t {
	case TypeReceived, TypeSent, TypeExecuted, TypeInfo, TypeManualTask:
		return true
	}
	return false
}

// TaskState is the priority/progress of a task. The zero value means unclassified.
type TaskState string

const (
	StateNone   TaskState = ""
	StateHigh   TaskState = "high"
	StateMedium TaskState = "medium"
	StateLow    TaskState = "low"
	StateReview TaskState = "review"
	StateDone   TaskState = "done"
)

// Valid reports whether s is a known state. StateNone is valid.
func (s TaskState) Valid() bool {
	switch s {
	case StateNone, StateHigh, StateMedium, StateLow, StateReview, StateDone:
		return true
	}
	return false
}

// Review records the outcome of the "is this a task" classifier.
type Review string

const (
	ReviewPending   Review = ""
	ReviewTask      Review = "task"
	ReviewDismissed Review = "dismissed"
)

// ProjectRef is the denormalized project summary carried by entries and tasks.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Entry is one logged work event.
type Entry struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	ProjectID    *string     `json:"project_id"`
	LogDate      string      `json:"log_date"`
	RawInput     string      `json:"raw_input"`
	Content      string      `json:"content"`
	Source       *string     `json:"source"`
	LogType      LogType     `json:"log_type"`
	CategoryCode *string     `json:"category_code"`
	Keywords     []string    `json:"keywords"`
	TaskTag      *string     `json:"task_id_tag"`
	TaskState    TaskState   `json:"task_state"`
	Review       Review      `json:"review"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Project      *ProjectRef `json:"project,omitempty"`
}

// HasProject reports whether the entry belongs to a project.
func (e Entry) HasProject() bool {
	return e.ProjectID != nil && *e.ProjectID != ""
}

// Tag returns the task tag or an empty string.
func (e Entry) Tag() string {
	if e.TaskTag == nil {
		return ""
	}
	return *e.TaskTag
}

// InTaskUniverse reports whether the entry takes part in task tracking.
func (e Entry) InTaskUniverse() bool {
	return e.Tag() != "" || e.TaskState != StateNone || e.Review == ReviewTask
}

// Classification is the combined review/state standing of an entry.
// It is one of Unreviewed, NotATask or Classified.
type Classification interface {
	classification()
}

// Unreviewed entries have not been looked at by the classifier or a user.
type Unreviewed struct{}

// NotATask entries were reviewed and dismissed.
type NotATask struct{}

// Classified entries are tasks. State may be StateNone when only the review said so.
type Classified struct {
	State TaskState
}

func (Unreviewed) classification() {}
func (NotATask) classification()   {}
func (Classified) classification() {}

// Classification derives the entry's standing. An explicit state always wins.
func (e Entry) Classification() Classification {
	switch {
	case e.TaskState != StateNone:
		return Classified{State: e.TaskState}
	case e.Review == ReviewDismissed:
		return NotATask{}
	case e.Review == ReviewTask || e.Tag() != "":
		return Classified{}
	default:
		return Unreviewed{}
	}
}
