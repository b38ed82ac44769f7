package project

import "time"

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusHold      Status = "hold"
)

// Project groups log entries and prefixes their task tags with Code.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectSummary is a project with entry counters for listing
type ProjectSummary struct {
	Project
	LogCount  int `json:"log_count"`
	OpenTasks int `json:"open_tasks"`
}
