package project_test

import (
	"context"
	"testing"

	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository"
	"github.com/rpggio/worklog/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.ProjectRepository{}
	svc := project.NewService(repo, nil)

	_, err := svc.Create(ctx, userID, project.CreateRequest{Name: "", Code: "SC"})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	for _, code := range []string{"S", "ABCDE", "S-C", "서 센"} {
		_, err = svc.Create(ctx, userID, project.CreateRequest{Name: "Seocho", Code: code})
		require.ErrorIs(t, err, project.ErrInvalidInput, code)
	}

	_, err = svc.Create(ctx, userID, project.CreateRequest{Name: "Seocho", Code: "SC", Status: "archived"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_CreateDefaultsAndDuplicate(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.ProjectRepository{}
	repo.On("Create", ctx, userID, mock.MatchedBy(func(p *project.Project) bool { return p.Code == "서센" })).Return(nil).Once()
	repo.On("Create", ctx, userID, mock.MatchedBy(func(p *project.Project) bool { return p.Code == "PG" })).Return(repository.ErrConflict).Once()

	svc := project.NewService(repo, nil)
	proj, err := svc.Create(ctx, userID, project.CreateRequest{Name: " Seocho Center ", Code: "서센"})
	require.NoError(t, err)
	require.NotEmpty(t, proj.ID)
	require.Equal(t, "Seocho Center", proj.Name)
	require.Equal(t, project.StatusActive, proj.Status)

	_, err = svc.Create(ctx, userID, project.CreateRequest{Name: "Pangyo", Code: "PG"})
	require.ErrorIs(t, err, project.ErrDuplicateCode)
}

func TestProjectService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, userID, "p1").Return(&project.Project{ID: "p1", Name: "Seocho", Code: "SC", Status: project.StatusActive}, nil)
	repo.On("Update", ctx, userID, mock.Anything).Return(nil)

	svc := project.NewService(repo, nil)
	hold := project.StatusHold
	updated, err := svc.Update(ctx, userID, project.UpdateRequest{ID: "p1", Status: &hold})
	require.NoError(t, err)
	require.Equal(t, project.StatusHold, updated.Status)
	require.Equal(t, "Seocho", updated.Name)
	require.Equal(t, "SC", updated.Code)
}

func TestProjectService_NotFound(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, userID, "missing").Return(nil, repository.ErrNotFound)
	repo.On("Delete", ctx, userID, "missing").Return(repository.ErrNotFound)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, userID, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	require.ErrorIs(t, svc.Delete(ctx, userID, "missing"), project.ErrProjectNotFound)
}

func TestProjectService_MintTag(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, userID, "p1").Return(&project.Project{ID: "p1", Name: "Seocho", Code: "서센"}, nil)
	repo.On("NextSequence", ctx, userID, "서센", "2026-02-09").Return(5, nil)

	svc := project.NewService(repo, nil)
	tag, err := svc.MintTag(ctx, userID, "p1", "2026-02-09")
	require.NoError(t, err)
	require.Equal(t, "#서센6020905", tag)
}

func TestProjectService_MintTagSequenceLimit(t *testing.T) {
	ctx := context.Background()
	userID := "user1"

	repo := &mocks.ProjectRepository{}
	repo.On("Get", ctx, userID, "p1").Return(&project.Project{ID: "p1", Name: "Seocho", Code: "SC"}, nil)
	repo.On("NextSequence", ctx, userID, "SC", "2026-02-09").Return(worklog.MaxTagSequence, nil).Once()
	repo.On("NextSequence", ctx, userID, "SC", "2026-02-09").Return(worklog.MaxTagSequence+1, nil).Once()

	svc := project.NewService(repo, nil)
	tag, err := svc.MintTag(ctx, userID, "p1", "2026-02-09")
	require.NoError(t, err)
	require.Equal(t, "#SC6020999", tag)

	_, err = svc.MintTag(ctx, userID, "p1", "2026-02-09")
	require.ErrorIs(t, err, project.ErrTagSequenceExhausted)
	repo.AssertExpectations(t)
}
