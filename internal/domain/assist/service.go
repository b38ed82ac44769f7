package assist

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/llm"
)

// RecentDayWindow is how many distinct log dates feed classification and
// daily assignment context.
const RecentDayWindow = 5

// Service orchestrates the model calls that classify and tag entries.
// Every merge only fills values that are still empty, so manual choices
// survive.
type Service struct {
	completer Completer
	projects  ProjectLister
	writer    EntryWriter
	entries   EntryStore
	minter    TagMinter
	logger    *slog.Logger
}

// NewService creates an assist service.
func NewService(completer Completer, projects ProjectLister, writer EntryWriter, entries EntryStore, minter TagMinter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		completer: completer,
		projects:  projects,
		writer:    writer,
		entries:   entries,
		minter:    minter,
		logger:    logger,
	}
}

// CaptureRequest is a raw quick-entry.
type CaptureRequest struct {
	RawInput string
	LogDate  string
}

// ClassifyResult summarizes a classification run.
type ClassifyResult struct {
	Candidates int `json:"candidates"`
	Tasks      int `json:"tasks"`
	Dismissed  int `json:"dismissed"`
	Ignored    int `json:"ignored"`
}

// OpenTask is a task shown to the model as an existing tag target.
type OpenTask struct {
	Tag         string            `json:"task_id_tag"`
	Description string            `json:"description"`
	State       worklog.TaskState `json:"task_state"`
	Source      *string           `json:"source"`
}

// DailyInput is everything the daily assignment sees.
type DailyInput struct {
	Day            string
	Logs           []worklog.Entry
	OpenTasks      []OpenTask
	Recent         []worklog.Entry
	PreviousReport string
}

// MergeResult counts what a daily assignment changed.
type MergeResult struct {
	NewTasks       int `json:"new_tasks"`
	CreatedEntries int `json:"created_entries"`
	TagsFilled     int `json:"tags_filled"`
	Discarded      int `json:"discarded"`
	SkippedTasks   int `json:"skipped_tasks"`
}

type projectIndex struct {
	list     []project.ProjectSummary
	codes    []string
	idByCode map[string]string
}

func (s *Service) loadProjects(ctx context.Context, userID string) (projectIndex, error) {
	list, err := s.projects.List(ctx, userID, "")
	if err != nil {
		return projectIndex{}, fmt.Errorf("listing projects: %w", err)
	}
	idx := projectIndex{list: list, idByCode: make(map[string]string, len(list))}
	for _, p := range list {
		idx.codes = append(idx.codes, p.Code)
		idx.idByCode[p.Code] = p.ID
	}
	return idx, nil
}

func (s *Service) ask(ctx context.Context, prompt string) (string, error) {
	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	return reply, nil
}

// Capture parses a raw entry with the model and stores the resulting entries.
// A proposal naming an unknown project fails the whole capture before any write.
func (s *Service) Capture(ctx context.Context, userID string, req CaptureRequest) ([]worklog.Entry, error) {
	raw := strings.TrimSpace(req.RawInput)
	if raw == "" {
		return nil, ErrEmptyInput
	}

	projects, err := s.loadProjects(ctx, userID)
	if err != nil {
		return nil, err
	}
	reply, err := s.ask(ctx, parsePrompt(raw, projects.list))
	if err != nil {
		return nil, err
	}
	doc, err := llm.ParseJSON(reply)
	if err != nil {
		return nil, err
	}
	proposals, err := decodeProposals(doc)
	if err != nil {
		return nil, err
	}

	requests := make([]worklog.CreateRequest, 0, len(proposals))
	for _, p := range proposals {
		var projectID *string
		if p.ProjectCode != nil {
			id, ok := projects.idByCode[*p.ProjectCode]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProjectCode, *p.ProjectCode)
			}
			projectID = &id
		} else if code, ok := worklog.MatchProjectCode(raw, projects.codes); ok {
			id := projects.idByCode[code]
			projectID = &id
		}

		parsed := worklog.ParseContent(p.Content)
		tag := parsed.Tag
		if tag == nil {
			if t, ok := worklog.ExtractTag(raw); ok {
				tag = &t
			}
		}
		content := parsed.Content
		if content == "" {
			content = p.Content
		}

		requests = append(requests, worklog.CreateRequest{
			RawInput:     raw,
			Content:      content,
			Source:       parsed.Source,
			LogType:      p.LogType,
			CategoryCode: p.CategoryCode,
			Keywords:     p.Keywords,
			ProjectID:    projectID,
			LogDate:      req.LogDate,
			TaskTag:      tag,
		})
	}

	entries := make([]worklog.Entry, 0, len(requests))
	for _, r := range requests {
		entry, err := s.writer.Create(ctx, userID, r)
		if err != nil {
			return entries, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// ClassifyTasks asks the model which untouched logs of the recent days are
// tasks and records the verdicts. Verdicts for logs outside the candidate
// set are ignored.
func (s *Service) ClassifyTasks(ctx context.Context, userID, day string) (ClassifyResult, error) {
	days, err := s.entries.RecentDays(ctx, userID, day, RecentDayWindow)
	if err != nil {
		return ClassifyResult{}, fmt.Errorf("finding recent days: %w", err)
	}
	if len(days) == 0 {
		return ClassifyResult{}, nil
	}
	entries, err := s.entries.List(ctx, userID, worklog.ListOptions{Days: days, Ascending: true})
	if err != nil {
		return ClassifyResult{}, fmt.Errorf("listing recent entries: %w", err)
	}

	var candidates []worklog.Entry
	isCandidate := make(map[string]bool)
	for _, e := range entries {
		if _, ok := e.Classification().(worklog.Unreviewed); ok {
			candidates = append(candidates, e)
			isCandidate[e.ID] = true
		}
	}
	res := ClassifyResult{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return res, nil
	}

	reply, err := s.ask(ctx, classifyPrompt(candidates))
	if err != nil {
		return res, err
	}
	doc, err := llm.ParseJSON(reply)
	if err != nil {
		return res, err
	}
	verdicts, err := decodeVerdicts(doc)
	if err != nil {
		return res, err
	}

	for _, v := range verdicts {
		if !isCandidate[v.LogID] {
			res.Ignored++
			continue
		}
		isCandidate[v.LogID] = false

		review := worklog.ReviewDismissed
		if v.IsTask {
			review = worklog.ReviewTask
		}
		if err := s.entries.SetReview(ctx, userID, v.LogID, review); err != nil {
			s.logger.Warn("recording classification failed", "log_id", v.LogID, "error", err)
			continue
		}
		if v.IsTask {
			res.Tasks++
		} else {
			res.Dismissed++
		}
	}
	return res, nil
}

// AssignDaily asks the model to tag the day's logs and merges the proposal.
// A malformed reply fails the call; no existing tag is ever replaced.
func (s *Service) AssignDaily(ctx context.Context, userID string, in DailyInput) (MergeResult, error) {
	if len(in.Logs) == 0 {
		return MergeResult{}, nil
	}
	projects, err := s.loadProjects(ctx, userID)
	if err != nil {
		return MergeResult{}, err
	}

	reply, err := s.ask(ctx, assignPrompt(in, projects.list))
	if err != nil {
		return MergeResult{}, err
	}
	body, ok := llm.ExtractBlock(reply, "ASSIGNMENTS")
	if !ok {
		body = reply
	}
	doc, err := llm.ParseJSON(llm.StripLineComments(body))
	if err != nil {
		return MergeResult{}, err
	}
	plan, err := decodePlan(doc)
	if err != nil {
		return MergeResult{}, err
	}

	return s.mergePlan(ctx, userID, in.Day, in.Logs, plan, projects), nil
}

func (s *Service) mergePlan(ctx context.Context, userID, day string, logs []worklog.Entry, plan Plan, projects projectIndex) MergeResult {
	var res MergeResult
	inDay := make(map[string]bool, len(logs))
	for _, e := range logs {
		inDay[e.ID] = true
	}

	for _, nt := range plan.NewTasks {
		projectID, ok := projects.idByCode[nt.ProjectCode]
		if !ok {
			s.logger.Warn("new task skipped, unknown project", "project_code", nt.ProjectCode)
			res.SkippedTasks++
			continue
		}
		tag, err := s.minter.MintTag(ctx, userID, projectID, day)
		if err != nil {
			s.logger.Warn("new task skipped, tag allocation failed", "project_code", nt.ProjectCode, "error", err)
			res.SkippedTasks++
			continue
		}
		res.NewTasks++

		var members []string
		for _, id := range nt.LogIDs {
			if inDay[id] {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			if _, err := s.writer.Create(ctx, userID, worklog.CreateRequest{
				RawInput:  nt.Description,
				Content:   nt.Description,
				LogType:   worklog.TypeInfo,
				ProjectID: &projectID,
				LogDate:   day,
				TaskTag:   &tag,
				Review:    worklog.ReviewTask,
			}); err != nil {
				s.logger.Warn("creating task entry failed", "tag", tag, "error", err)
				continue
			}
			res.CreatedEntries++
			continue
		}
		for _, id := range members {
			res.TagsFilled += s.fillTag(ctx, userID, id, tag)
		}
	}

	for _, a := range plan.Assignments {
		if !inDay[a.LogID] {
			res.Discarded++
			continue
		}
		if a.TaskTag == nil {
			continue
		}
		res.TagsFilled += s.fillTag(ctx, userID, a.LogID, *a.TaskTag)
	}
	return res
}

func (s *Service) fillTag(ctx context.Context, userID, id, tag string) int {
	changed, err := s.entries.FillTag(ctx, userID, id, tag, true)
	if err != nil {
		s.logger.Warn("filling tag failed", "log_id", id, "tag", tag, "error", err)
		return 0
	}
	if changed {
		return 1
	}
	return 0
}
