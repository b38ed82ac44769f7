package report_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/worklog/internal/domain/history"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func TestGenerate_UntaggedProjectTaskCompletedOnReportDay(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })

	kst := time.FixedZone("KST", 9*60*60)
	now := time.Date(2026, 2, 9, 10, 0, 0, 0, kst)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	entryRepo := sqlite.NewEntryRepository(db)
	projectSvc := project.NewService(sqlite.NewProjectRepository(db), nil)
	entrySvc := worklog.NewService(entryRepo, projectSvc, nil, nil).WithClock(clock).WithLocation(kst)
	historySvc := history.NewService(sqlite.NewHistoryRepository(db), nil)
	reportSvc := report.NewService(sqlite.NewReportRepository(db), entryRepo, historySvc, nil, nil, nil).
		WithClock(clock).WithLocation(kst)

	proj, err := projectSvc.Create(ctx, userID, project.CreateRequest{Name: "서초센터", Code: "서센"})
	require.NoError(t, err)

	entry, err := entrySvc.Create(ctx, userID, worklog.CreateRequest{
		RawInput:     "서센 F H7 문장근 부장 사용승인 서류 제출함",
		Content:      "사용승인 서류 제출함",
		Source:       strPtr("문장근 부장"),
		LogType:      worklog.TypeReceived,
		CategoryCode: strPtr("H7"),
		ProjectID:    &proj.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "2026-02-09", entry.LogDate)
	require.Empty(t, entry.Tag())

	_, changed, err := entrySvc.SetState(ctx, userID, entry.ID, worklog.StateHigh)
	require.NoError(t, err)
	require.True(t, changed)
	_, changed, err = entrySvc.SetState(ctx, userID, entry.ID, worklog.StateHigh)
	require.NoError(t, err)
	require.False(t, changed)
	_, changed, err = entrySvc.SetState(ctx, userID, entry.ID, worklog.StateDone)
	require.NoError(t, err)
	require.True(t, changed)

	rows, err := historySvc.ForLog(ctx, userID, entry.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, worklog.StateHigh, rows[0].State)
	require.Equal(t, worklog.StateDone, rows[1].State)

	rep, err := reportSvc.Generate(ctx, userID, "2026-02-09")
	require.NoError(t, err)
	require.Equal(t, 1, rep.TotalLogs)
	require.Equal(t, 1, rep.FCount)

	completed := rep.Content[strings.Index(rep.Content, "4. Completed items"):]
	require.Equal(t, "4. Completed items\n - [F] 문장근 부장: 사용승인 서류 제출함", completed)
	require.NotContains(t, rep.Content[:strings.Index(rep.Content, "3. Log")], "사용승인")
}
