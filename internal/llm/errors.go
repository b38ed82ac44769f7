package llm

import "errors"

var (
	// ErrMalformedResponse indicates model output that could not be parsed
	// even after repair.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrDimensionMismatch indicates an embedding of unexpected width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrNotConfigured indicates a missing API key or model.
	ErrNotConfigured = errors.New("llm provider not configured")
)
