package worklog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository"
	"github.com/rpggio/worklog/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 2, 9, 1, 30, 0, 0, time.UTC)

func newService(repo *mocks.EntryRepository, minter *mocks.TagMinter, indexer *mocks.Indexer) *worklog.Service {
	var m worklog.TagMinter
	if minter != nil {
		m = minter
	}
	var i worklog.Indexer
	if indexer != nil {
		i = indexer
	}
	return worklog.NewService(repo, m, i, nil).WithClock(func() time.Time { return fixedNow })
}

func TestEntryService_CreateDefaultsAndIndexes(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.EntryRepository{}
	repo.On("Create", ctx, userID, mock.Anything).Return(nil)
	indexer := &mocks.Indexer{}
	indexer.On("IndexAsync", userID, mock.Anything).Return()

	kst := time.FixedZone("KST", 9*3600)
	svc := newService(repo, nil, indexer).WithLocation(kst)
	entry, err := svc.Create(ctx, userID, worklog.CreateRequest{
		RawInput: "SC W checked drawings",
		Content:  "checked drawings",
		LogType:  worklog.TypeExecuted,
		Keywords: []string{"drawings", "drawings", " "},
		Source:   strPtr("  "),
	})
	require.NoError(t, err)
	require.Equal(t, "2026-02-09", entry.LogDate)
	require.Equal(t, []string{"drawings"}, entry.Keywords)
	require.Nil(t, entry.Source)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	indexer.AssertCalled(t, "IndexAsync", userID, entry.ID)
}

func TestEntryService_CreateWithStateWritesLedger(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.EntryRepository{}
	repo.On("Create", ctx, userID, mock.MatchedBy(func(e *worklog.Entry) bool {
		return e.TaskState == worklog.StateHigh && e.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	entry, err := newService(repo, nil, nil).Create(ctx, userID, worklog.CreateRequest{
		Content:   "submit papers",
		LogType:   worklog.TypeInfo,
		LogDate:   "2026-02-09",
		TaskState: worklog.StateHigh,
	})
	require.NoError(t, err)
	require.Equal(t, worklog.StateHigh, entry.TaskState)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEntryService_CreateFailureLeavesNoRow(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.EntryRepository{}
	repo.On("Create", ctx, userID, mock.Anything).Return(errors.New("disk full"))

	_, err := newService(repo, nil, nil).Create(ctx, userID, worklog.CreateRequest{
		Content:   "submit papers",
		LogType:   worklog.TypeInfo,
		TaskState: worklog.StateHigh,
	})
	require.Error(t, err)
	repo.AssertNumberOfCalls(t, "Create", 1)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEntryService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.EntryRepository{}
	svc := newService(repo, nil, nil)

	_, err := svc.Create(ctx, "user1", worklog.CreateRequest{Content: "x", LogType: "Z"})
	require.ErrorIs(t, err, worklog.ErrInvalidInput)

	_, err = svc.Create(ctx, "user1", worklog.CreateRequest{Content: "x", LogType: worklog.TypeInfo, LogDate: "02/09/2026"})
	require.ErrorIs(t, err, worklog.ErrInvalidInput)

	_, err = svc.Create(ctx, "user1", worklog.CreateRequest{Content: "x", LogType: worklog.TypeInfo, TaskState: "urgent"})
	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestEntryService_SetStateSameValueIsNoop(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.EntryRepository{}
	repo.On("Get", ctx, userID, "l1").Return(&worklog.Entry{ID: "l1", TaskState: worklog.StateHigh}, nil)

	_, changed, err := newService(repo, nil, nil).SetState(ctx, userID, "l1", worklog.StateHigh)
	require.NoError(t, err)
	require.False(t, changed)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEntryService_SetStateChange(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.EntryRepository{}
	repo.On("Get", ctx, userID, "l1").Return(&worklog.Entry{ID: "l1", TaskState: worklog.StateHigh}, nil)
	repo.On("UpdateState", ctx, userID, "l1", worklog.StateDone, fixedNow).Return(nil)

	entry, changed, err := newService(repo, nil, nil).SetState(ctx, userID, "l1", worklog.StateDone)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, worklog.StateDone, entry.TaskState)

	_, _, err = newService(repo, nil, nil).SetState(ctx, userID, "l1", "urgent")
	require.ErrorIs(t, err, worklog.ErrInvalidState)
}

func TestEntryService_UpdateRoutesStateThroughLedger(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	current := &worklog.Entry{ID: "l1", Content: "old", LogType: worklog.TypeInfo, LogDate: "2026-02-09"}
	repo := &mocks.EntryRepository{}
	repo.On("Get", ctx, userID, "l1").Return(current, nil)
	repo.On("Update", ctx, userID, mock.MatchedBy(func(e *worklog.Entry) bool {
		return e.Content == "new" && e.Tag() == "#SC6020901" && e.TaskState == worklog.StateLow && e.UpdatedAt.Equal(fixedNow)
	})).Return(nil)
	indexer := &mocks.Indexer{}
	indexer.On("IndexAsync", userID, "l1").Return()

	low := worklog.StateLow
	updated, err := newService(repo, nil, indexer).Update(ctx, userID, worklog.UpdateRequest{
		ID:        "l1",
		Content:   strPtr("new"),
		TaskTag:   strPtr("#SC6020901"),
		TaskState: &low,
	})
	require.NoError(t, err)
	require.Equal(t, worklog.StateLow, updated.TaskState)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	indexer.AssertExpectations(t)

	bad := worklog.TaskState("urgent")
	_, err = newService(repo, nil, indexer).Update(ctx, userID, worklog.UpdateRequest{ID: "l1", TaskState: &bad})
	require.ErrorIs(t, err, worklog.ErrInvalidState)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestEntryService_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.EntryRepository{}
	repo.On("Get", ctx, "user1", "missing").Return(nil, repository.ErrNotFound)
	repo.On("Delete", ctx, "user1", "missing").Return(repository.ErrNotFound)

	svc := newService(repo, nil, nil)
	_, err := svc.Get(ctx, "user1", "missing")
	require.ErrorIs(t, err, worklog.ErrEntryNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "user1", "missing"), worklog.ErrEntryNotFound)
}

func TestEntryService_CreateTask(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.EntryRepository{}
	repo.On("Create", ctx, userID, mock.MatchedBy(func(e *worklog.Entry) bool {
		return e.LogType == worklog.TypeManualTask && e.Tag() == "#SC6020901" && e.Review == worklog.ReviewTask &&
			e.TaskState == worklog.StateMedium
	})).Return(nil)
	minter := &mocks.TagMinter{}
	minter.On("MintTag", ctx, userID, "p1", "2026-02-09").Return("#SC6020901", nil)

	svc := newService(repo, minter, nil)
	task, err := svc.CreateTask(ctx, userID, worklog.CreateTaskRequest{ProjectID: "p1", Description: "prepare permit"})
	require.NoError(t, err)
	require.Equal(t, "#SC6020901", task.TaskTag)
	require.Equal(t, worklog.StateMedium, task.TaskState)

	_, err = svc.CreateTask(ctx, userID, worklog.CreateTaskRequest{Description: "no project"})
	require.ErrorIs(t, err, worklog.ErrProjectRequired)
}

func TestEntryService_ListTasksWithLogs(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	task := worklog.Entry{ID: "t1", ProjectID: strPtr("p1"), TaskTag: strPtr("#T1"), TaskState: worklog.StateHigh, Content: "task"}
	related := worklog.Entry{ID: "l2", ProjectID: strPtr("p1"), TaskTag: strPtr("#T1"), Content: "follow-up"}

	repo := &mocks.EntryRepository{}
	repo.On("ListTasks", ctx, userID, worklog.TaskListOptions{WithLogs: true, Limit: worklog.DefaultTaskLimit}).Return([]worklog.Entry{task}, nil)
	repo.On("List", ctx, userID, worklog.ListOptions{Tags: []string{"#T1"}, Ascending: true}).Return([]worklog.Entry{task, related}, nil)

	tasks, err := newService(repo, nil, nil).ListTasks(ctx, userID, worklog.TaskListOptions{WithLogs: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.NotEmpty(t, tasks[0].RelatedLogs)
}
