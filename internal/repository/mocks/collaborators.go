package mocks

import (
	"context"
	"time"

	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/stretchr/testify/mock"
)

// Completer is a mock chat model.
type Completer struct {
	mock.Mock
}

func (m *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// Embedder is a mock embedding model.
type Embedder struct {
	mock.Mock
}

func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v, ok := args.Get(0).([]float32); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// TagMinter is a mock tag allocator.
type TagMinter struct {
	mock.Mock
}

func (m *TagMinter) MintTag(ctx context.Context, userID, projectID, day string) (string, error) {
	args := m.Called(ctx, userID, projectID, day)
	return args.String(0), args.Error(1)
}

// EntryWriter is a mock for the entry creation path.
type EntryWriter struct {
	mock.Mock
}

func (m *EntryWriter) Create(ctx context.Context, userID string, req worklog.CreateRequest) (*worklog.Entry, error) {
	args := m.Called(ctx, userID, req)
	if e, ok := args.Get(0).(*worklog.Entry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

// Assigner is a mock daily tag assigner.
type Assigner struct {
	mock.Mock
}

func (m *Assigner) AssignDaily(ctx context.Context, userID string, in assist.DailyInput) (assist.MergeResult, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(assist.MergeResult), args.Error(1)
}

// Indexer is a mock embedding indexer.
type Indexer struct {
	mock.Mock
}

func (m *Indexer) IndexAsync(userID, entryID string) {
	m.Called(userID, entryID)
}

// StateReader is a mock point-in-time state reader.
type StateReader struct {
	mock.Mock
}

func (m *StateReader) EffectiveStates(ctx context.Context, userID string, logIDs []string, asOf time.Time) (map[string]worklog.TaskState, error) {
	args := m.Called(ctx, userID, logIDs, asOf)
	if states, ok := args.Get(0).(map[string]worklog.TaskState); ok {
		return states, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StateReader) CompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]string, error) {
	args := m.Called(ctx, userID, from, to)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}
