package assist_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deps struct {
	completer *mocks.Completer
	projects  *mocks.ProjectRepository
	writer    *mocks.EntryWriter
	entries   *mocks.EntryRepository
	minter    *mocks.TagMinter
}

func newDeps(ctx context.Context) *deps {
	d := &deps{
		completer: &mocks.Completer{},
		projects:  &mocks.ProjectRepository{},
		writer:    &mocks.EntryWriter{},
		entries:   &mocks.EntryRepository{},
		minter:    &mocks.TagMinter{},
	}
	d.projects.On("List", ctx, "user1", project.Status("")).Return([]project.ProjectSummary{
		{Project: project.Project{ID: "p-sc", Name: "Seocho", Code: "SC"}},
		{Project: project.Project{ID: "p-pg", Name: "Pangyo", Code: "PG"}},
	}, nil)
	return d
}

func (d *deps) service() *assist.Service {
	return assist.NewService(d.completer, d.projects, d.writer, d.entries, d.minter, nil)
}

func strPtr(s string) *string { return &s }

func TestCapture_EmptyInput(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	_, err := d.service().Capture(ctx, "user1", assist.CaptureRequest{RawInput: "   "})
	require.ErrorIs(t, err, assist.ErrEmptyInput)
	d.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestCapture_UnknownProjectWritesNothing(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	d.completer.On("Complete", ctx, mock.Anything).Return(`{"entries": [
		{"projectCode": "SC", "logType": "F", "content": "first"},
		{"projectCode": "ZZ", "logType": "W", "content": "second"}
	]}`, nil)

	_, err := d.service().Capture(ctx, "user1", assist.CaptureRequest{RawInput: "SC F first, then second"})
	require.ErrorIs(t, err, assist.ErrUnknownProjectCode)
	d.writer.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCapture_FallsBackToRawInput(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	d.completer.On("Complete", ctx, mock.Anything).Return("```json\n"+
		`{"projectCode": null, "logType": "f", "categoryCode": "H7", "content": "Director Moon: occupancy documents received", "extractedKeywords": ["occupancy"],}`+
		"\n```", nil)
	d.writer.On("Create", ctx, "user1", mock.MatchedBy(func(req worklog.CreateRequest) bool {
		return req.ProjectID != nil && *req.ProjectID == "p-sc" &&
			req.Source != nil && *req.Source == "Director Moon" &&
			req.Content == "occupancy documents received" &&
			req.TaskTag != nil && *req.TaskTag == "#SC6020901" &&
			req.LogType == worklog.TypeReceived &&
			req.LogDate == "2026-02-09"
	})).Return(&worklog.Entry{ID: "new"}, nil).Once()

	entries, err := d.service().Capture(ctx, "user1", assist.CaptureRequest{
		RawInput: "SC F H7 Director Moon submitted the occupancy documents #SC6020901",
		LogDate:  "2026-02-09",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	d.writer.AssertExpectations(t)
}

func TestCapture_MalformedReply(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	d.completer.On("Complete", ctx, mock.Anything).Return("sorry, I cannot help", nil)

	_, err := d.service().Capture(ctx, "user1", assist.CaptureRequest{RawInput: "SC W something"})
	require.ErrorIs(t, err, assist.ErrMalformedResponse)
}

func TestClassifyTasks_OnlyCandidates(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	days := []string{"2026-02-09", "2026-02-08"}
	d.entries.On("RecentDays", ctx, "user1", "2026-02-09", assist.RecentDayWindow).Return(days, nil)
	d.entries.On("List", ctx, "user1", worklog.ListOptions{Days: days, Ascending: true}).Return([]worklog.Entry{
		{ID: "a", LogDate: "2026-02-08", Content: "send quote"},
		{ID: "b", LogDate: "2026-02-08", Content: "lunch", Review: worklog.ReviewDismissed},
		{ID: "c", LogDate: "2026-02-09", Content: "permit", TaskState: worklog.StateHigh},
		{ID: "d", LogDate: "2026-02-09", Content: "weather note"},
	}, nil)
	d.completer.On("Complete", ctx, mock.MatchedBy(func(prompt string) bool {
		return !containsID(prompt, "b") && !containsID(prompt, "c")
	})).Return(`{"results": [
		{"logId": "a", "isTask": true},
		{"logId": "b", "isTask": true},
		{"logId": "d", "isTask": false},
		{"logId": "a", "isTask": false},
		{"logId": "zz", "isTask": true}
	]}`, nil)
	d.entries.On("SetReview", ctx, "user1", "a", worklog.ReviewTask).Return(nil).Once()
	d.entries.On("SetReview", ctx, "user1", "d", worklog.ReviewDismissed).Return(nil).Once()

	res, err := d.service().ClassifyTasks(ctx, "user1", "2026-02-09")
	require.NoError(t, err)
	require.Equal(t, assist.ClassifyResult{Candidates: 2, Tasks: 1, Dismissed: 1, Ignored: 3}, res)
	d.entries.AssertExpectations(t)
}

func TestClassifyTasks_NoCandidates(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	d.entries.On("RecentDays", ctx, "user1", "2026-02-09", assist.RecentDayWindow).Return([]string{}, nil)

	res, err := d.service().ClassifyTasks(ctx, "user1", "2026-02-09")
	require.NoError(t, err)
	require.Equal(t, assist.ClassifyResult{}, res)
	d.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestAssignDaily_MergesWithoutOverwriting(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)

	in := assist.DailyInput{
		Day: "2026-02-09",
		Logs: []worklog.Entry{
			{ID: "l1", Content: "quote requested"},
			{ID: "l2", Content: "manual", TaskTag: strPtr("#SC6020901")},
			{ID: "l3", Content: "permit question"},
		},
		OpenTasks: []assist.OpenTask{{Tag: "#SC6020902", Description: "quote", State: worklog.StateHigh}},
	}

	d.completer.On("Complete", ctx, mock.Anything).Return(`Here is the plan.
[ASSIGNMENTS]
{
  // today's logs
  "logAssignments": [
    {"logId": "l1", "taskIdTag": "SC6020902"},
    {"logId": "l2", "taskIdTag": "#SC6020999"},
    {"logId": "elsewhere", "taskIdTag": "#SC6020902"},
    {"logId": "l3", "taskIdTag": null}
  ],
  "newTasks": [
    {"description": "permit follow-up", "projectCode": "SC", "priority": "high", "logIds": ["l3"]},
    {"description": "call vendor", "projectCode": "PG", "logIds": ["elsewhere"]},
    {"description": "mystery", "projectCode": "ZZ", "logIds": []}
  ]
}
[/ASSIGNMENTS]`, nil)
	d.minter.On("MintTag", ctx, "user1", "p-sc", "2026-02-09").Return("#SC6020903", nil)
	d.minter.On("MintTag", ctx, "user1", "p-pg", "2026-02-09").Return("#PG6020901", nil)
	d.entries.On("FillTag", ctx, "user1", "l3", "#SC6020903", true).Return(true, nil).Once()
	d.entries.On("FillTag", ctx, "user1", "l1", "#SC6020902", true).Return(true, nil).Once()
	d.entries.On("FillTag", ctx, "user1", "l2", "#SC6020999", true).Return(false, nil).Once()
	d.writer.On("Create", ctx, "user1", mock.MatchedBy(func(req worklog.CreateRequest) bool {
		return req.LogType == worklog.TypeInfo &&
			req.Content == "call vendor" &&
			*req.ProjectID == "p-pg" &&
			*req.TaskTag == "#PG6020901" &&
			req.Review == worklog.ReviewTask
	})).Return(&worklog.Entry{ID: "created"}, nil).Once()

	res, err := d.service().AssignDaily(ctx, "user1", in)
	require.NoError(t, err)
	require.Equal(t, assist.MergeResult{
		NewTasks:       2,
		CreatedEntries: 1,
		TagsFilled:     2,
		Discarded:      1,
		SkippedTasks:   1,
	}, res)
	d.entries.AssertExpectations(t)
	d.writer.AssertExpectations(t)
}

func TestAssignDaily_MalformedFails(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	d.completer.On("Complete", ctx, mock.Anything).Return("[ASSIGNMENTS]\nnot json at all\n[/ASSIGNMENTS]", nil)

	_, err := d.service().AssignDaily(ctx, "user1", assist.DailyInput{
		Day:  "2026-02-09",
		Logs: []worklog.Entry{{ID: "l1", Content: "x"}},
	})
	require.ErrorIs(t, err, assist.ErrMalformedResponse)
	d.entries.AssertNotCalled(t, "FillTag", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignDaily_NoLogs(t *testing.T) {
	ctx := context.Background()
	d := newDeps(ctx)
	res, err := d.service().AssignDaily(ctx, "user1", assist.DailyInput{Day: "2026-02-09"})
	require.NoError(t, err)
	require.Equal(t, assist.MergeResult{}, res)
	d.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func containsID(prompt, id string) bool {
	return strings.Contains(prompt, "id="+id+" ")
}
