package assist

import (
	"errors"

	"github.com/rpggio/worklog/internal/llm"
)

var (
	// ErrUnknownProjectCode indicates the model named a project the user doesn't have.
	ErrUnknownProjectCode = errors.New("unknown project code")
	// ErrEmptyInput indicates blank raw text.
	ErrEmptyInput = errors.New("raw input is empty")
	// ErrMalformedResponse indicates model output that failed parsing or schema checks.
	ErrMalformedResponse = llm.ErrMalformedResponse
)
