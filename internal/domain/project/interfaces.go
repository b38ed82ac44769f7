package project

import "context"

// Repository provides persistence for projects.
type Repository interface {
	Create(ctx context.Context, userID string, proj *Project) error
	Get(ctx context.Context, userID, id string) (*Project, error)
	GetByCode(ctx context.Context, userID, code string) (*Project, error)
	List(ctx context.Context, userID string, status Status) ([]ProjectSummary, error)
	Update(ctx context.Context, userID string, proj *Project) error
	Delete(ctx context.Context, userID, id string) error
	// NextSequence atomically increments and returns the tag sequence for
	// (code, day).
	NextSequence(ctx context.Context, userID, code, day string) (int, error)
}
