package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestEntryRepository_CreateAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()
	seedProject(t, db, "user1", "p1", "서센")

	seedEntry(t, db, "user1", worklog.Entry{
		ID:           "l1",
		ProjectID:    strPtr("p1"),
		LogDate:      "2026-02-09",
		RawInput:     "서센 F H7 문장근 부장 사용승인 서류 제출함",
		Content:      "사용승인 서류 제출",
		Source:       strPtr("문장근 부장"),
		LogType:      worklog.TypeReceived,
		CategoryCode: strPtr("H7"),
		Keywords:     []string{"사용승인", "서류"},
	})

	e, err := repo.Get(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Equal(t, worklog.TypeReceived, e.LogType)
	require.Equal(t, "H7", *e.CategoryCode)
	require.Equal(t, "문장근 부장", *e.Source)
	require.Equal(t, []string{"사용승인", "서류"}, e.Keywords)
	require.NotNil(t, e.Project)
	require.Equal(t, "서센", e.Project.Code)
	require.Equal(t, worklog.ReviewPending, e.Review)
	require.Equal(t, worklog.StateNone, e.TaskState)

	_, err = repo.Get(ctx, "user2", "l1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEntryRepository_CreateUnknownProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)

	now := time.Now()
	err := repo.Create(context.Background(), "user1", &worklog.Entry{
		ID: "l1", ProjectID: strPtr("missing"), LogDate: "2026-02-09", RawInput: "x", Content: "x",
		LogType: worklog.TypeInfo, CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestEntryRepository_ListFilters(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()
	seedProject(t, db, "user1", "p1", "SC")

	base := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	seedEntry(t, db, "user1", worklog.Entry{ID: "a", LogDate: "2026-02-08", Content: "quote received", Keywords: []string{"quote"}, CreatedAt: base})
	seedEntry(t, db, "user1", worklog.Entry{ID: "b", ProjectID: strPtr("p1"), LogDate: "2026-02-09", Content: "permit filed", TaskTag: strPtr("#SC6020901"), CreatedAt: base.Add(time.Hour)})
	seedEntry(t, db, "user1", worklog.Entry{ID: "c", ProjectID: strPtr("p1"), LogDate: "2026-02-09", Content: "permit approved", LogType: worklog.TypeReceived, CreatedAt: base.Add(2 * time.Hour)})
	seedEntry(t, db, "user2", worklog.Entry{ID: "d", LogDate: "2026-02-09", Content: "permit elsewhere", CreatedAt: base})

	ids := func(entries []worklog.Entry) []string {
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.ID)
		}
		return out
	}

	all, err := repo.List(ctx, "user1", worklog.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, ids(all))

	day, err := repo.List(ctx, "user1", worklog.ListOptions{Day: "2026-02-09", Ascending: true})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, ids(day))

	missing, err := repo.List(ctx, "user1", worklog.ListOptions{MissingProject: true})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(missing))

	untagged, err := repo.List(ctx, "user1", worklog.ListOptions{MissingTag: true, Ascending: true})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, ids(untagged))

	tagged, err := repo.List(ctx, "user1", worklog.ListOptions{Tags: []string{"#SC6020901"}})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids(tagged))

	keyword, err := repo.List(ctx, "user1", worklog.ListOptions{Keyword: "quote"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(keyword))

	text, err := repo.List(ctx, "user1", worklog.ListOptions{Query: "permit", Ascending: true})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, ids(text))

	typed, err := repo.List(ctx, "user1", worklog.ListOptions{LogType: worklog.TypeReceived})
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, ids(typed))

	paged, err := repo.List(ctx, "user1", worklog.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids(paged))

	ranged, err := repo.List(ctx, "user1", worklog.ListOptions{To: "2026-02-08"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(ranged))
}

func TestEntryRepository_UpdateStateWritesLedger(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	history := NewHistoryRepository(db)
	ctx := context.Background()
	seedEntry(t, db, "user1", worklog.Entry{ID: "l1", LogDate: "2026-02-09", Content: "x"})

	t1 := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	require.NoError(t, repo.UpdateState(ctx, "user1", "l1", worklog.StateHigh, t1))

	rows, err := history.ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, worklog.StateHigh, rows[0].State)
	require.Nil(t, rows[0].ValidTo)

	require.NoError(t, repo.UpdateState(ctx, "user1", "l1", worklog.StateDone, t2))
	rows, err = history.ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].ValidTo)
	require.True(t, rows[0].ValidTo.Equal(t2))
	require.Equal(t, worklog.StateDone, rows[1].State)
	require.Nil(t, rows[1].ValidTo)

	e, err := repo.Get(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Equal(t, worklog.StateDone, e.TaskState)

	require.ErrorIs(t, repo.UpdateState(ctx, "user1", "missing", worklog.StateLow, t2), repository.ErrNotFound)
}

func TestEntryRepository_StateWritesAreAtomicWithRow(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	history := NewHistoryRepository(db)
	ctx := context.Background()

	t0 := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	seedEntry(t, db, "user1", worklog.Entry{ID: "l1", LogDate: "2026-02-09", Content: "x", TaskState: worklog.StateHigh, CreatedAt: t0})

	rows, err := history.ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, worklog.StateHigh, rows[0].State)
	require.True(t, rows[0].ValidFrom.Equal(t0))
	require.Nil(t, rows[0].ValidTo)

	e, err := repo.Get(ctx, "user1", "l1")
	require.NoError(t, err)

	// A failed row write leaves both the column and the ledger alone.
	broken := *e
	broken.ProjectID = strPtr("no-such-project")
	broken.TaskState = worklog.StateDone
	broken.UpdatedAt = t0.Add(time.Hour)
	require.ErrorIs(t, repo.Update(ctx, "user1", &broken), repository.ErrForeignKeyViolation)

	rows, err = history.ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got, err := repo.Get(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Equal(t, worklog.StateHigh, got.TaskState)

	t1 := t0.Add(2 * time.Hour)
	e.Content = "x done"
	e.TaskState = worklog.StateDone
	e.UpdatedAt = t1
	require.NoError(t, repo.Update(ctx, "user1", e))

	rows, err = history.ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].ValidTo.Equal(t1))
	require.Equal(t, worklog.StateDone, rows[1].State)

	// Same state again: no new interval.
	e.Content = "x done twice"
	e.UpdatedAt = t1.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, "user1", e))
	rows, err = history.ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	missing := *e
	missing.ID = "missing"
	require.ErrorIs(t, repo.Update(ctx, "user1", &missing), repository.ErrNotFound)
}

func TestEntryRepository_FillOnlyNulls(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()
	seedProject(t, db, "user1", "p1", "SC")
	seedProject(t, db, "user1", "p2", "PG")
	seedEntry(t, db, "user1", worklog.Entry{ID: "l1", LogDate: "2026-02-09", Content: "x", TaskTag: strPtr("#X")})
	seedEntry(t, db, "user1", worklog.Entry{ID: "l2", LogDate: "2026-02-09", Content: "y"})

	changed, err := repo.FillTag(ctx, "user1", "l1", "#Y", true)
	require.NoError(t, err)
	require.False(t, changed)

	changed, err = repo.FillTag(ctx, "user1", "l2", "#Y", true)
	require.NoError(t, err)
	require.True(t, changed)

	l1, err := repo.Get(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Equal(t, "#X", l1.Tag())
	require.Equal(t, worklog.ReviewPending, l1.Review)

	l2, err := repo.Get(ctx, "user1", "l2")
	require.NoError(t, err)
	require.Equal(t, "#Y", l2.Tag())
	require.Equal(t, worklog.ReviewTask, l2.Review)

	changed, err = repo.FillProject(ctx, "user1", "l2", "p1")
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = repo.FillProject(ctx, "user1", "l2", "p2")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestEntryRepository_SetReviewAndTasks(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()
	seedProject(t, db, "user1", "p1", "SC")

	seedEntry(t, db, "user1", worklog.Entry{ID: "reviewed", ProjectID: strPtr("p1"), LogDate: "2026-02-09", Content: "a"})
	seedEntry(t, db, "user1", worklog.Entry{ID: "dismissed", ProjectID: strPtr("p1"), LogDate: "2026-02-09", Content: "b"})
	seedEntry(t, db, "user1", worklog.Entry{ID: "noproject", LogDate: "2026-02-09", Content: "c", TaskTag: strPtr("#T1")})
	seedEntry(t, db, "user1", worklog.Entry{ID: "stated", ProjectID: strPtr("p1"), LogDate: "2026-02-09", Content: "d", TaskState: worklog.StateLow})

	require.NoError(t, repo.SetReview(ctx, "user1", "reviewed", worklog.ReviewTask))
	require.NoError(t, repo.SetReview(ctx, "user1", "dismissed", worklog.ReviewDismissed))
	require.ErrorIs(t, repo.SetReview(ctx, "user1", "missing", worklog.ReviewTask), repository.ErrNotFound)

	d, err := repo.Get(ctx, "user1", "dismissed")
	require.NoError(t, err)
	require.Equal(t, worklog.NotATask{}, d.Classification())

	tasks, err := repo.ListTasks(ctx, "user1", worklog.TaskListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	low, err := repo.ListTasks(ctx, "user1", worklog.TaskListOptions{States: []worklog.TaskState{worklog.StateLow}})
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "stated", low[0].ID)
}

func TestEntryRepository_RecentDays(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	for i, day := range []string{"2026-02-01", "2026-02-03", "2026-02-03", "2026-02-05", "2026-02-09"} {
		seedEntry(t, db, "user1", worklog.Entry{ID: string(rune('a' + i)), LogDate: day, Content: day})
	}

	days, err := repo.RecentDays(ctx, "user1", "2026-02-08", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-02-05", "2026-02-03"}, days)
}

func TestEntryRepository_UpdateAndDelete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()
	seedEntry(t, db, "user1", worklog.Entry{ID: "l1", LogDate: "2026-02-09", Content: "draft", RawInput: "first note"})
	require.NoError(t, repo.UpdateState(ctx, "user1", "l1", worklog.StateLow, time.Now()))

	e, err := repo.Get(ctx, "user1", "l1")
	require.NoError(t, err)
	e.Content = "final wording"
	e.Keywords = []string{"final"}
	e.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, "user1", e))

	found, err := repo.List(ctx, "user1", worklog.ListOptions{Query: "wording"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	stale, err := repo.List(ctx, "user1", worklog.ListOptions{Query: "draft"})
	require.NoError(t, err)
	require.Empty(t, stale)

	require.NoError(t, repo.Delete(ctx, "user1", "l1"))
	require.ErrorIs(t, repo.Delete(ctx, "user1", "l1"), repository.ErrNotFound)

	rows, err := NewHistoryRepository(db).ListForLog(ctx, "user1", "l1")
	require.NoError(t, err)
	require.Empty(t, rows)
}
