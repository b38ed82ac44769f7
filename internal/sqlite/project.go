package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, user_id, name, code, description, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner, extra ...any) (*project.Project, error) {
	var (
		proj             project.Project
		created, updated string
	)
	dest := append([]any{
		&proj.ID,
		&proj.UserID,
		&proj.Name,
		&proj.Code,
		&proj.Description,
		&proj.Status,
		&created,
		&updated,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	if proj.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if proj.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &proj, nil
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, userID string, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, user_id, name, code, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		userID,
		proj.Name,
		proj.Code,
		proj.Description,
		proj.Status,
		formatTime(proj.CreatedAt),
		formatTime(proj.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, userID, id string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND user_id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return proj, nil
}

// GetByCode retrieves a project by its code
func (r *ProjectRepository) GetByCode(ctx context.Context, userID, code string) (*project.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE code = ? AND user_id = ?`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, code, userID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project by code: %w", err)
	}

	return proj, nil
}

// List returns the user's projects with entry counters, optionally filtered by status
func (r *ProjectRepository) List(ctx context.Context, userID string, status project.Status) ([]project.ProjectSummary, error) {
	query := `
		SELECT
			p.id, p.user_id, p.name, p.code, p.description, p.status, p.created_at, p.updated_at,
			COUNT(l.id) AS log_count,
			COUNT(CASE WHEN l.task_state IS NOT NULL AND l.task_state != 'done' THEN 1 END) AS open_tasks
		FROM projects p
		LEFT JOIN logs l ON l.project_id = p.id AND l.user_id = p.user_id
		WHERE p.user_id = ?
	`
	args := []interface{}{userID}
	if status != "" {
		query += " AND p.status = ?"
		args = append(args, status)
	}
	query += `
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var summaries []project.ProjectSummary
	for rows.Next() {
		var summary project.ProjectSummary
		proj, err := scanProject(rows, &summary.LogCount, &summary.OpenTasks)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project summary: %w", err)
		}
		summary.Project = *proj
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return summaries, nil
}

// Update updates a project's mutable fields
func (r *ProjectRepository) Update(ctx context.Context, userID string, proj *project.Project) error {
	query := `
		UPDATE projects
		SET name = ?, code = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.Name,
		proj.Code,
		proj.Description,
		proj.Status,
		formatTime(proj.UpdatedAt),
		proj.ID,
		userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update project: %w", err)
	}

	return requireAffected(result)
}

// Delete removes a project. Its logs are detached by the foreign key.
func (r *ProjectRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireAffected(result)
}

// NextSequence atomically increments and returns the tag sequence for a project code and day
func (r *ProjectRepository) NextSequence(ctx context.Context, userID, code, day string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO task_sequences (user_id, project_code, seq_date, last_seq)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (user_id, project_code, seq_date) DO UPDATE SET last_seq = last_seq + 1
	`
	if _, err := tx.ExecContext(ctx, upsert, userID, code, day); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var seq int
	err = tx.QueryRowContext(ctx,
		`SELECT last_seq FROM task_sequences WHERE user_id = ? AND project_code = ? AND seq_date = ?`,
		userID, code, day,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to get new sequence: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return seq, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
