package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
	// ErrDuplicateCode indicates the user already has a project with the code.
	ErrDuplicateCode = errors.New("project code already in use")
	// ErrTagSequenceExhausted indicates the project has used every tag
	// sequence of the day.
	ErrTagSequenceExhausted = errors.New("no task tag sequence left for the day")
)
