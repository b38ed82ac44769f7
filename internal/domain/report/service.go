package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository"
)

// recentDays is how many prior log dates are passed as context.
const recentDays = 5

// Service generates and manages daily reports.
type Service struct {
	repo      Repository
	entries   EntryReader
	states    StateReader
	assigner  Assigner
	completer Completer
	logger    *slog.Logger
	now       func() time.Time
	loc       *time.Location
}

// NewService creates a report service. assigner and completer may be nil, in
// which case tag assignment is skipped and Summarize is unavailable.
func NewService(repo Repository, entries EntryReader, states StateReader, assigner Assigner, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		repo:      repo,
		entries:   entries,
		states:    states,
		assigner:  assigner,
		completer: completer,
		logger:    logger,
		now:       time.Now,
		loc:       time.UTC,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithLocation sets the zone whose midnight bounds a report day.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Generate builds and stores the report for day. Tag assignment runs first, so
// regenerating a day converges once every log carries its tag.
func (s *Service) Generate(ctx context.Context, userID, day string) (*Report, error) {
	if day == "" {
		day = worklog.Today(s.now(), s.loc)
	}
	start, end, err := worklog.DayBounds(day, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	prev, err := worklog.ShiftDay(day, -1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	dayLogs, err := s.dayLogs(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if len(dayLogs) == 0 {
		return nil, ErrNoLogs
	}

	tasks, err := s.openTasks(ctx, userID, prev, end)
	if err != nil {
		return nil, err
	}

	if s.assigner != nil {
		in := assist.DailyInput{Day: day, Logs: dayLogs}
		for _, t := range tasks {
			if t.Tag == "" {
				continue
			}
			in.OpenTasks = append(in.OpenTasks, assist.OpenTask{
				Tag:         t.Tag,
				Description: t.Description,
				State:       t.State,
				Source:      t.Source,
			})
		}
		if in.Recent, err = s.recentLogs(ctx, userID, prev); err != nil {
			return nil, err
		}
		if previous, err := s.repo.Get(ctx, userID, prev); err == nil {
			in.PreviousReport = previous.Content
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("loading previous report: %w", err)
		}

		merged, err := s.assigner.AssignDaily(ctx, userID, in)
		if err != nil {
			return nil, fmt.Errorf("assigning tags: %w", err)
		}
		s.logger.Info("daily tags assigned", "day", day,
			"new_tasks", merged.NewTasks, "tags_filled", merged.TagsFilled, "created", merged.CreatedEntries)

		if dayLogs, err = s.dayLogs(ctx, userID, day); err != nil {
			return nil, err
		}
	}

	completed, err := s.completed(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := &Report{
		ID:         uuid.NewString(),
		UserID:     userID,
		ReportDate: day,
		Content:    Build(tasks, dayLogs, completed),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	countTypes(r, dayLogs)

	stored, err := s.repo.Upsert(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("storing report: %w", err)
	}
	return stored, nil
}

func (s *Service) dayLogs(ctx context.Context, userID, day string) ([]worklog.Entry, error) {
	logs, err := s.entries.List(ctx, userID, worklog.ListOptions{Day: day, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("listing day logs: %w", err)
	}
	return logs, nil
}

// openTasks resolves the task universe before the report day to the states
// in force at asOf, dropping unclassified and done tasks.
func (s *Service) openTasks(ctx context.Context, userID, through string, asOf time.Time) ([]OpenTask, error) {
	logs, err := s.entries.List(ctx, userID, worklog.ListOptions{To: through, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("listing task universe: %w", err)
	}
	var universe []worklog.Entry
	ids := make([]string, 0, len(logs))
	for _, e := range logs {
		if !e.HasProject() || (e.Tag() == "" && e.TaskState == worklog.StateNone) {
			continue
		}
		universe = append(universe, e)
		ids = append(ids, e.ID)
	}

	states, err := s.states.EffectiveStates(ctx, userID, ids, asOf)
	if err != nil {
		return nil, fmt.Errorf("resolving task states: %w", err)
	}

	var tasks []OpenTask
	for _, e := range universe {
		state, ok := states[e.ID]
		if !ok || state == worklog.StateDone {
			continue
		}
		tasks = append(tasks, OpenTask{
			LogID:       e.ID,
			Tag:         e.Tag(),
			Description: e.Content,
			Source:      e.Source,
			State:       state,
		})
	}
	return tasks, nil
}

func (s *Service) recentLogs(ctx context.Context, userID, through string) ([]worklog.Entry, error) {
	days, err := s.entries.RecentDays(ctx, userID, through, recentDays)
	if err != nil {
		return nil, fmt.Errorf("finding recent days: %w", err)
	}
	if len(days) == 0 {
		return nil, nil
	}
	logs, err := s.entries.List(ctx, userID, worklog.ListOptions{Days: days, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("listing recent logs: %w", err)
	}
	return logs, nil
}

// completed returns the entries that reached done within [from, to], in
// completion order.
func (s *Service) completed(ctx context.Context, userID string, from, to time.Time) ([]worklog.Entry, error) {
	ids, err := s.states.CompletedBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing completions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	entries, err := s.entries.GetMany(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading completed entries: %w", err)
	}
	order := make(map[string]int, len(ids))
	for i, id := range ids {
		order[id] = i
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return order[entries[i].ID] < order[entries[j].ID]
	})
	return entries, nil
}

func countTypes(r *Report, logs []worklog.Entry) {
	r.TotalLogs = len(logs)
	for _, e := range logs {
		switch e.LogType {
		case worklog.TypeReceived:
			r.FCount++
		case worklog.TypeSent:
			r.TCount++
		case worklog.TypeExecuted:
			r.WCount++
		case worklog.TypeInfo:
			r.ICount++
		}
	}
}

// Get returns the report of day.
func (s *Service) Get(ctx context.Context, userID, day string) (*Report, error) {
	if _, err := worklog.ParseDay(day, s.loc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	r, err := s.repo.Get(ctx, userID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("getting report: %w", err)
	}
	return r, nil
}

// List returns reports in [from, to], newest first. Empty bounds are open.
func (s *Service) List(ctx context.Context, userID, from, to string) ([]Report, error) {
	for _, day := range []string{from, to} {
		if day == "" {
			continue
		}
		if _, err := worklog.ParseDay(day, s.loc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	reports, err := s.repo.List(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// UpdateContent replaces the text of an existing report.
func (s *Service) UpdateContent(ctx context.Context, userID, day, content string) (*Report, error) {
	if _, err := worklog.ParseDay(day, s.loc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	r, err := s.repo.UpdateContent(ctx, userID, day, strings.TrimSpace(content), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("updating report: %w", err)
	}
	return r, nil
}

// Delete removes the report of day.
func (s *Service) Delete(ctx context.Context, userID, day string) error {
	if err := s.repo.Delete(ctx, userID, day); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReportNotFound
		}
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

const summaryInstructions = `You condense a project manager's work reports into an executive summary.

## Output
Short bullet points using "•", about 250 characters in total.

## Rules
1. Each bullet about 30 characters.
2. Use full project names instead of codes.
3. When a company is named, omit the person.
4. Only progress, issues and decisions.
`

// Summarize writes an executive summary over the stored reports in [from, to].
func (s *Service) Summarize(ctx context.Context, userID, from, to string) (*Summary, error) {
	if s.completer == nil {
		return nil, errors.New("summarizing: no model configured")
	}
	reports, err := s.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrReportNotFound
	}

	var b strings.Builder
	b.WriteString(summaryInstructions)
	b.WriteString("\n## Input\n")
	for i := len(reports) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n### %s\n%s\n", reports[i].ReportDate, reports[i].Content)
	}

	text, err := s.completer.Complete(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("summarizing reports: %w", err)
	}
	return &Summary{
		From:    from,
		To:      to,
		Reports: len(reports),
		Content: strings.TrimSpace(text),
	}, nil
}
