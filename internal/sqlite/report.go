package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/repository"
)

// ReportRepository implements report.Repository for SQLite
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportSelect = `
	SELECT id, user_id, report_date, content, total_logs, f_count, t_count, w_count, i_count, created_at, updated_at
	FROM daily_reports
`

func scanReport(row rowScanner) (*report.Report, error) {
	var (
		rep              report.Report
		created, updated string
	)
	err := row.Scan(
		&rep.ID,
		&rep.UserID,
		&rep.ReportDate,
		&rep.Content,
		&rep.TotalLogs,
		&rep.FCount,
		&rep.TCount,
		&rep.WCount,
		&rep.ICount,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	if rep.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if rep.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Upsert inserts the report or overwrites the one stored for the same day
func (r *ReportRepository) Upsert(ctx context.Context, userID string, rep *report.Report) (*report.Report, error) {
	query := `
		INSERT INTO daily_reports (
			id, user_id, report_date, content, total_logs, f_count, t_count, w_count, i_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, report_date) DO UPDATE SET
			content = excluded.content,
			total_logs = excluded.total_logs,
			f_count = excluded.f_count,
			t_count = excluded.t_count,
			w_count = excluded.w_count,
			i_count = excluded.i_count,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID,
		userID,
		rep.ReportDate,
		rep.Content,
		rep.TotalLogs,
		rep.FCount,
		rep.TCount,
		rep.WCount,
		rep.ICount,
		formatTime(rep.CreatedAt),
		formatTime(rep.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert report: %w", err)
	}

	return r.Get(ctx, userID, rep.ReportDate)
}

// Get retrieves the report of a day
func (r *ReportRepository) Get(ctx context.Context, userID, day string) (*report.Report, error) {
	rep, err := scanReport(r.db.QueryRowContext(ctx, reportSelect+` WHERE user_id = ? AND report_date = ?`, userID, day))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

// List returns reports between from and to inclusive, newest first
func (r *ReportRepository) List(ctx context.Context, userID, from, to string) ([]report.Report, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}
	if from != "" {
		conditions = append(conditions, "report_date >= ?")
		args = append(args, from)
	}
	if to != "" {
		conditions = append(conditions, "report_date <= ?")
		args = append(args, to)
	}

	rows, err := r.db.QueryContext(ctx,
		reportSelect+" WHERE "+strings.Join(conditions, " AND ")+" ORDER BY report_date DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// UpdateContent replaces the text of an existing report
func (r *ReportRepository) UpdateContent(ctx context.Context, userID, day, content string, at time.Time) (*report.Report, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE daily_reports SET content = ?, updated_at = ? WHERE user_id = ? AND report_date = ?`,
		content, formatTime(at), userID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID, day)
}

// Delete removes the report of a day
func (r *ReportRepository) Delete(ctx context.Context, userID, day string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM daily_reports WHERE user_id = ? AND report_date = ?`, userID, day)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return requireAffected(result)
}
