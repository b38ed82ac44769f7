package worklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/worklog/internal/repository"
)

// Service handles log entry business logic.
type Service struct {
	entries Repository
	minter  TagMinter
	indexer Indexer
	logger  *slog.Logger
	now     func() time.Time
	loc     *time.Location
}

// NewService creates a new entry service. minter and indexer may be nil.
func NewService(entries Repository, minter TagMinter, indexer Indexer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		entries: entries,
		minter:  minter,
		indexer: indexer,
		logger:  logger,
		now:     time.Now,
		loc:     time.UTC,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithLocation sets the zone used to derive log dates.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// CreateRequest describes a new entry.
type CreateRequest struct {
	RawInput     string
	Content      string
	Source       *string
	LogType      LogType
	CategoryCode *string
	Keywords     []string
	ProjectID    *string
	LogDate      string
	TaskTag      *string
	TaskState    TaskState
	Review       Review
}

// UpdateRequest describes a partial entry update. Nil fields are left unchanged;
// empty strings clear nullable fields.
type UpdateRequest struct {
	ID           string
	Content      *string
	Source       *string
	LogType      *LogType
	CategoryCode *string
	ProjectID    *string
	LogDate      *string
	TaskTag      *string
	TaskState    *TaskState
	Review       *Review
}

// CreateTaskRequest describes a task entered directly on the board.
type CreateTaskRequest struct {
	ProjectID   string
	Description string
	Source      *string
	Priority    TaskState
	Day         string
}

// Create stores a new entry. A non-empty state is written through the ledger.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Entry, error) {
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	day := req.LogDate
	if day == "" {
		day = Today(s.now(), s.loc)
	} else if _, err := ParseDay(day, s.loc); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		content = strings.TrimSpace(req.RawInput)
	}
	raw := req.RawInput
	if strings.TrimSpace(raw) == "" {
		raw = content
	}

	now := s.now()
	entry := &Entry{
		ID:           uuid.NewString(),
		UserID:       userID,
		ProjectID:    optionalString(req.ProjectID),
		LogDate:      day,
		RawInput:     raw,
		Content:      content,
		Source:       optionalString(req.Source),
		LogType:      req.LogType,
		CategoryCode: optionalString(req.CategoryCode),
		Keywords:     normalizeKeywords(req.Keywords),
		TaskTag:      optionalString(req.TaskTag),
		TaskState:    req.TaskState,
		Review:       req.Review,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.entries.Create(ctx, userID, entry); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: unknown project", ErrInvalidInput)
		}
		return nil, fmt.Errorf("creating entry: %w", err)
	}

	if s.indexer != nil {
		s.indexer.IndexAsync(userID, entry.ID)
	}
	return entry, nil
}

// CreateTask creates a manual task row under a project with a freshly minted tag.
func (s *Service) CreateTask(ctx context.Context, userID string, req CreateTaskRequest) (*Task, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrProjectRequired
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if s.minter == nil {
		return nil, errors.New("creating task: no tag minter configured")
	}

	priority := req.Priority
	if priority == StateNone {
		priority = StateMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidState
	}
	day := req.Day
	if day == "" {
		day = Today(s.now(), s.loc)
	}

	tag, err := s.minter.MintTag(ctx, userID, req.ProjectID, day)
	if err != nil {
		return nil, fmt.Errorf("minting tag: %w", err)
	}

	projectID := req.ProjectID
	entry, err := s.Create(ctx, userID, CreateRequest{
		RawInput:  req.Description,
		Content:   req.Description,
		Source:    req.Source,
		LogType:   TypeManualTask,
		ProjectID: &projectID,
		LogDate:   day,
		TaskTag:   &tag,
		TaskState: priority,
		Review:    ReviewTask,
	})
	if err != nil {
		return nil, err
	}
	return ToTask(*entry), nil
}

// Get fetches an entry by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Entry, error) {
	entry, err := s.entries.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("getting entry: %w", err)
	}
	return entry, nil
}

// List returns entries matching opts.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]Entry, error) {
	entries, err := s.entries.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return entries, nil
}

// ListTasks returns the task board: entries with a project that take part in
// task tracking, projected into tasks.
func (s *Service) ListTasks(ctx context.Context, userID string, opts TaskListOptions) ([]Task, error) {
	if opts.Limit <= 0 || opts.Limit > DefaultTaskLimit {
		opts.Limit = DefaultTaskLimit
	}
	entries, err := s.entries.ListTasks(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	tasks := ToTasks(entries)
	if !opts.WithLogs {
		return tasks, nil
	}

	tags := make([]string, 0, len(tasks))
	seen := make(map[string]bool)
	for _, t := range tasks {
		if t.TaskTag != "" && !seen[t.TaskTag] {
			seen[t.TaskTag] = true
			tags = append(tags, t.TaskTag)
		}
	}
	if len(tags) == 0 {
		return tasks, nil
	}
	related, err := s.entries.List(ctx, userID, ListOptions{Tags: tags, Ascending: true})
	if err != nil {
		return nil, fmt.Errorf("listing related logs: %w", err)
	}
	AttachRelated(tasks, related)
	return tasks, nil
}

// Update applies a partial update. A state change is written together with
// its ledger interval.
func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (*Entry, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, ErrInvalidInput
	}
	current, err := s.Get(ctx, userID, req.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	contentChanged := false
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
		}
		contentChanged = content != current.Content
		updated.Content = content
	}
	if req.Source != nil {
		updated.Source = optionalString(req.Source)
	}
	if req.LogType != nil {
		if !req.LogType.Valid() {
			return nil, fmt.Errorf("%w: unknown log type %q", ErrInvalidInput, *req.LogType)
		}
		updated.LogType = *req.LogType
	}
	if req.CategoryCode != nil {
		updated.CategoryCode = optionalString(req.CategoryCode)
	}
	if req.ProjectID != nil {
		updated.ProjectID = optionalString(req.ProjectID)
	}
	if req.LogDate != nil {
		if _, err := ParseDay(*req.LogDate, s.loc); err != nil {
			return nil, err
		}
		updated.LogDate = *req.LogDate
	}
	if req.TaskTag != nil {
		updated.TaskTag = optionalString(req.TaskTag)
	}
	if req.Review != nil {
		updated.Review = *req.Review
	}
	if req.TaskState != nil {
		if !req.TaskState.Valid() {
			return nil, ErrInvalidState
		}
		updated.TaskState = *req.TaskState
	}
	updated.UpdatedAt = s.now()

	if err := s.entries.Update(ctx, userID, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, fmt.Errorf("%w: unknown project", ErrInvalidInput)
		}
		return nil, fmt.Errorf("updating entry: %w", err)
	}

	if updated.TaskState != current.TaskState {
		s.logger.Debug("task state changed", "log_id", updated.ID, "from", current.TaskState, "to", updated.TaskState)
	}

	if contentChanged && s.indexer != nil {
		s.indexer.IndexAsync(userID, updated.ID)
	}
	return &updated, nil
}

// SetState changes the task state of an entry. It reports whether the state
// actually changed; a same-value write leaves the ledger untouched.
func (s *Service) SetState(ctx context.Context, userID, id string, state TaskState) (*Entry, bool, error) {
	if !state.Valid() {
		return nil, false, ErrInvalidState
	}
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}
	if current.TaskState == state {
		return current, false, nil
	}

	at := s.now()
	if err := s.entries.UpdateState(ctx, userID, id, state, at); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrEntryNotFound
		}
		return nil, false, fmt.Errorf("updating state: %w", err)
	}

	s.logger.Debug("task state changed", "log_id", id, "from", current.TaskState, "to", state)
	updated := *current
	updated.TaskState = state
	updated.UpdatedAt = at
	return &updated, true, nil
}

// Delete removes an entry permanently.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.entries.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return fmt.Errorf("deleting entry: %w", err)
	}
	return nil
}
