package mocks

import (
	"context"
	"time"

	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, userID string, proj *project.Project) error {
	args := m.Called(ctx, userID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	args := m.Called(ctx, userID, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) GetByCode(ctx context.Context, userID, code string) (*project.Project, error) {
	args := m.Called(ctx, userID, code)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, userID string, status project.Status) ([]project.ProjectSummary, error) {
	args := m.Called(ctx, userID, status)
	if list, ok := args.Get(0).([]project.ProjectSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Update(ctx context.Context, userID string, proj *project.Project) error {
	args := m.Called(ctx, userID, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *ProjectRepository) NextSequence(ctx context.Context, userID, code, day string) (int, error) {
	args := m.Called(ctx, userID, code, day)
	return args.Int(0), args.Error(1)
}

// EntryRepository is a mock for worklog.Repository.
type EntryRepository struct {
	mock.Mock
}

func (m *EntryRepository) Create(ctx context.Context, userID string, e *worklog.Entry) error {
	args := m.Called(ctx, userID, e)
	return args.Error(0)
}

func (m *EntryRepository) Get(ctx context.Context, userID, id string) (*worklog.Entry, error) {
	args := m.Called(ctx, userID, id)
	if e, ok := args.Get(0).(*worklog.Entry); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) GetMany(ctx context.Context, userID string, ids []string) ([]worklog.Entry, error) {
	args := m.Called(ctx, userID, ids)
	if list, ok := args.Get(0).([]worklog.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]worklog.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) ListTasks(ctx context.Context, userID string, opts worklog.TaskListOptions) ([]worklog.Entry, error) {
	args := m.Called(ctx, userID, opts)
	if list, ok := args.Get(0).([]worklog.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EntryRepository) Update(ctx context.Context, userID string, e *worklog.Entry) error {
	args := m.Called(ctx, userID, e)
	return args.Error(0)
}

func (m *EntryRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *EntryRepository) UpdateState(ctx context.Context, userID, id string, state worklog.TaskState, at time.Time) error {
	args := m.Called(ctx, userID, id, state, at)
	return args.Error(0)
}

func (m *EntryRepository) FillProject(ctx context.Context, userID, id, projectID string) (bool, error) {
	args := m.Called(ctx, userID, id, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *EntryRepository) FillTag(ctx context.Context, userID, id, tag string, markTask bool) (bool, error) {
	args := m.Called(ctx, userID, id, tag, markTask)
	return args.Bool(0), args.Error(1)
}

func (m *EntryRepository) SetReview(ctx context.Context, userID, id string, review worklog.Review) error {
	args := m.Called(ctx, userID, id, review)
	return args.Error(0)
}

func (m *EntryRepository) RecentDays(ctx context.Context, userID, maxDay string, n int) ([]string, error) {
	args := m.Called(ctx, userID, maxDay, n)
	if days, ok := args.Get(0).([]string); ok {
		return days, args.Error(1)
	}
	return nil, args.Error(1)
}

// HistoryRepository is a mock for history.Repository.
type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) ListAsOf(ctx context.Context, userID string, logIDs []string, asOf time.Time) ([]history.Transition, error) {
	args := m.Called(ctx, userID, logIDs, asOf)
	if rows, ok := args.Get(0).([]history.Transition); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) ListForLog(ctx context.Context, userID, logID string) ([]history.Transition, error) {
	args := m.Called(ctx, userID, logID)
	if rows, ok := args.Get(0).([]history.Transition); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *HistoryRepository) ListEntered(ctx context.Context, userID string, state worklog.TaskState, from, to time.Time) ([]history.Transition, error) {
	args := m.Called(ctx, userID, state, from, to)
	if rows, ok := args.Get(0).([]history.Transition); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReportRepository is a mock for report.Repository.
type ReportRepository struct {
	mock.Mock
}

func (m *ReportRepository) Upsert(ctx context.Context, userID string, r *report.Report) (*report.Report, error) {
	args := m.Called(ctx, userID, r)
	if rep, ok := args.Get(0).(*report.Report); ok {
		return rep, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReportRepository) Get(ctx context.Context, userID, day string) (*report.Report, error) {
	args := m.Called(ctx, userID, day)
	if rep, ok := args.Get(0).(*report.Report); ok {
		return rep, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReportRepository) List(ctx context.Context, userID, from, to string) ([]report.Report, error) {
	args := m.Called(ctx, userID, from, to)
	if list, ok := args.Get(0).([]report.Report); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReportRepository) UpdateContent(ctx context.Context, userID, day, content string, at time.Time) (*report.Report, error) {
	args := m.Called(ctx, userID, day, content, at)
	if rep, ok := args.Get(0).(*report.Report); ok {
		return rep, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ReportRepository) Delete(ctx context.Context, userID, day string) error {
	args := m.Called(ctx, userID, day)
	return args.Error(0)
}

// EmbeddingStore is a mock for search.Store.
type EmbeddingStore struct {
	mock.Mock
}

func (m *EmbeddingStore) Upsert(ctx context.Context, userID, logID string, vector []float32, chunk string) error {
	args := m.Called(ctx, userID, logID, vector, chunk)
	return args.Error(0)
}

func (m *EmbeddingStore) Match(ctx context.Context, userID string, vector []float32, threshold float64, count int) ([]search.Match, error) {
	args := m.Called(ctx, userID, vector, threshold, count)
	if list, ok := args.Get(0).([]search.Match); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *EmbeddingStore) Unindexed(ctx context.Context, userID string, scan int) ([]string, error) {
	args := m.Called(ctx, userID, scan)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}
