package search

import "errors"

var (
	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrNotConfigured indicates no embedder is available.
	ErrNotConfigured = errors.New("semantic search is not configured")
)
