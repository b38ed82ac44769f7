package worklog

import "errors"

var (
	// ErrEntryNotFound indicates the log entry doesn't exist for the user.
	ErrEntryNotFound = errors.New("log entry not found")
	// ErrInvalidInput indicates invalid entry input.
	ErrInvalidInput = errors.New("invalid log entry input")
	// ErrInvalidState indicates an unknown task state.
	ErrInvalidState = errors.New("invalid task state")
	// ErrProjectRequired indicates a task was requested without a project.
	ErrProjectRequired = errors.New("task requires a project")
)
