package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/worklog/internal/domain/worklog"
)

// Result counts the rows each pass changed.
type Result struct {
	ProjectUpdated int `json:"project_updated"`
	TagUpdated     int `json:"tag_updated"`
	StateUpdated   int `json:"state_updated"`
}

// Service runs the idempotent sync passes. Each pass skips rows whose write
// fails and only errors when its initial read fails.
type Service struct {
	entries  EntryStore
	projects ProjectLister
	states   StateWriter
	logger   *slog.Logger
}

// NewService creates a new sync service.
func NewService(entries EntryStore, projects ProjectLister, states StateWriter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{entries: entries, projects: projects, states: states, logger: logger}
}

// Sync runs project backfill, tag backfill and state canonicalization in order.
func (s *Service) Sync(ctx context.Context, userID string) (Result, error) {
	var res Result
	var err error

	if res.ProjectUpdated, err = s.BackfillProjects(ctx, userID); err != nil {
		return res, err
	}
	if res.TagUpdated, err = s.BackfillTags(ctx, userID); err != nil {
		return res, err
	}
	if res.StateUpdated, err = s.CanonicalizeStates(ctx, userID); err != nil {
		return res, err
	}

	s.logger.Info("sync finished", "user_id", userID,
		"project_updated", res.ProjectUpdated, "tag_updated", res.TagUpdated, "state_updated", res.StateUpdated)
	return res, nil
}

// BackfillProjects assigns a project to entries without one when their raw
// input names a registered project code.
func (s *Service) BackfillProjects(ctx context.Context, userID string) (int, error) {
	projects, err := s.projects.List(ctx, userID, "")
	if err != nil {
		return 0, fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) == 0 {
		return 0, nil
	}
	codes := make([]string, 0, len(projects))
	idByCode := make(map[string]string, len(projects))
	for _, p := range projects {
		codes = append(codes, p.Code)
		idByCode[p.Code] = p.ID
	}

	entries, err := s.entries.List(ctx, userID, worklog.ListOptions{MissingProject: true, Ascending: true})
	if err != nil {
		return 0, fmt.Errorf("listing entries without project: %w", err)
	}

	updated := 0
	for _, e := range entries {
		code, ok := worklog.MatchProjectCode(e.RawInput, codes)
		if !ok {
			continue
		}
		changed, err := s.entries.FillProject(ctx, userID, e.ID, idByCode[code])
		if err != nil {
			s.logger.Warn("project backfill failed", "log_id", e.ID, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

// BackfillTags sets the tag of untagged entries whose raw input ends with one.
func (s *Service) BackfillTags(ctx context.Context, userID string) (int, error) {
	entries, err := s.entries.List(ctx, userID, worklog.ListOptions{MissingTag: true, Ascending: true})
	if err != nil {
		return 0, fmt.Errorf("listing untagged entries: %w", err)
	}

	updated := 0
	for _, e := range entries {
		tag, ok := worklog.ExtractTag(e.RawInput)
		if !ok {
			continue
		}
		changed, err := s.entries.FillTag(ctx, userID, e.ID, tag, false)
		if err != nil {
			s.logger.Warn("tag backfill failed", "log_id", e.ID, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

// CanonicalizeStates makes entries sharing a tag agree on one state. Every
// change is a normal state write and lands in the ledger.
func (s *Service) CanonicalizeStates(ctx context.Context, userID string) (int, error) {
	entries, err := s.entries.List(ctx, userID, worklog.ListOptions{TaggedOnly: true, Ascending: true})
	if err != nil {
		return 0, fmt.Errorf("listing tagged entries: %w", err)
	}

	members := make([]Member, 0, len(entries))
	for _, e := range entries {
		members = append(members, Member{ID: e.ID, Tag: e.Tag(), State: e.TaskState, UpdatedAt: e.UpdatedAt})
	}

	updated := 0
	for _, c := range Canonicalize(members) {
		_, changed, err := s.states.SetState(ctx, userID, c.ID, c.To)
		if err != nil {
			s.logger.Warn("state canonicalization failed", "log_id", c.ID, "tag", c.Tag, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}
