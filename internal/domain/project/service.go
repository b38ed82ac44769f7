package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository"
)

// Service handles project operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name        string
	Code        string
	Description string
	Status      Status
}

// UpdateRequest defines a partial project update.
type UpdateRequest struct {
	ID          string
	Name        *string
	Code        *string
	Description *string
	Status      *Status
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Project, error) {
	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if err := ValidateCode(code); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusActive
	}
	if err := ValidateStatus(status); err != nil {
		return nil, err
	}

	now := time.Now()
	proj := &Project{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, userID, proj); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("creating project: %w", err)
	}

	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, userID, id string) (*Project, error) {
	proj, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// GetByCode fetches a project by its code.
func (s *Service) GetByCode(ctx context.Context, userID, code string) (*Project, error) {
	proj, err := s.repo.GetByCode(ctx, userID, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project by code: %w", err)
	}
	return proj, nil
}

// List returns project summaries, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status Status) ([]ProjectSummary, error) {
	if status != "" {
		if err := ValidateStatus(status); err != nil {
			return nil, err
		}
	}
	return s.repo.List(ctx, userID, status)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, userID string, req UpdateRequest) (*Project, error) {
	current, err := s.Get(ctx, userID, req.ID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return nil, err
		}
		updated.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		code := strings.TrimSpace(*req.Code)
		if err := ValidateCode(code); err != nil {
			return nil, err
		}
		updated.Code = code
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		if err := ValidateStatus(*req.Status); err != nil {
			return nil, err
		}
		updated.Status = *req.Status
	}
	updated.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, userID, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProjectNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return &updated, nil
}

// Delete removes a project. Its entries keep existing without a project.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

// MintTag allocates the next task tag for a project on day.
func (s *Service) MintTag(ctx context.Context, userID, projectID, day string) (string, error) {
	proj, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return "", err
	}
	date, err := worklog.ParseDay(day, time.UTC)
	if err != nil {
		return "", err
	}

	seq, err := s.repo.NextSequence(ctx, userID, proj.Code, day)
	if err != nil {
		return "", fmt.Errorf("allocating tag sequence: %w", err)
	}
	if seq > worklog.MaxTagSequence {
		return "", fmt.Errorf("%w: %s on %s", ErrTagSequenceExhausted, proj.Code, day)
	}
	tag := worklog.FormatTaskTag(proj.Code, date, seq)
	s.logger.Debug("minted task tag", "project", proj.Code, "day", day, "tag", tag)
	return tag, nil
}
