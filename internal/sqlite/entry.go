package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/repository"
)

// EntryRepository implements worklog.Repository for SQLite
type EntryRepository struct {
	db *DB
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

const entrySelect = `
	SELECT
		l.id, l.user_id, l.project_id, l.log_date, l.raw_input, l.content, l.source,
		l.log_type, l.category_code, l.keywords, l.task_id_tag, l.task_state,
		l.no_task_needed, l.created_at, l.updated_at, p.name, p.code
	FROM logs l
	LEFT JOIN projects p ON p.id = l.project_id
`

func scanEntry(row rowScanner) (*worklog.Entry, error) {
	var (
		e                worklog.Entry
		projectID        sql.NullString
		source           sql.NullString
		category         sql.NullString
		keywords         string
		tag              sql.NullString
		state            sql.NullString
		noTaskNeeded     sql.NullBool
		created, updated string
		projName         sql.NullString
		projCode         sql.NullString
	)
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&projectID,
		&e.LogDate,
		&e.RawInput,
		&e.Content,
		&source,
		&e.LogType,
		&category,
		&keywords,
		&tag,
		&state,
		&noTaskNeeded,
		&created,
		&updated,
		&projName,
		&projCode,
	)
	if err != nil {
		return nil, err
	}

	e.ProjectID = stringPtr(projectID)
	e.Source = stringPtr(source)
	e.CategoryCode = stringPtr(category)
	e.TaskTag = stringPtr(tag)
	e.TaskState = worklog.TaskState(state.String)
	e.Review = reviewFromColumn(noTaskNeeded)
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &e.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords: %w", err)
		}
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if projectID.Valid && projName.Valid {
		e.Project = &worklog.ProjectRef{ID: projectID.String, Name: projName.String, Code: projCode.String}
	}
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]worklog.Entry, error) {
	defer rows.Close()
	var entries []worklog.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return entries, nil
}

// no_task_needed stores the review outcome: NULL pending, 0 task, 1 dismissed.
func reviewColumn(r worklog.Review) sql.NullBool {
	switch r {
	case worklog.ReviewTask:
		return sql.NullBool{Bool: false, Valid: true}
	case worklog.ReviewDismissed:
		return sql.NullBool{Bool: true, Valid: true}
	}
	return sql.NullBool{}
}

func reviewFromColumn(v sql.NullBool) worklog.Review {
	switch {
	case !v.Valid:
		return worklog.ReviewPending
	case v.Bool:
		return worklog.ReviewDismissed
	}
	return worklog.ReviewTask
}

func stateColumn(s worklog.TaskState) sql.NullString {
	if s == worklog.StateNone {
		return sql.NullString{}
	}
	return sql.NullString{String: string(s), Valid: true}
}

func encodeKeywords(keywords []string) (string, error) {
	if keywords == nil {
		keywords = []string{}
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "", fmt.Errorf("failed to encode keywords: %w", err)
	}
	return string(data), nil
}

// Create creates a new entry
func (r *EntryRepository) Create(ctx context.Context, userID string, e *worklog.Entry) error {
	keywords, err := encodeKeywords(e.Keywords)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO logs (
			id, user_id, project_id, log_date, raw_input, content, source, log_type,
			category_code, keywords, task_id_tag, task_state, no_task_needed, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		e.ID,
		userID,
		nullString(e.ProjectID),
		e.LogDate,
		e.RawInput,
		e.Content,
		nullString(e.Source),
		e.LogType,
		nullString(e.CategoryCode),
		keywords,
		nullString(e.TaskTag),
		stateColumn(e.TaskState),
		reviewColumn(e.Review),
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}

	if e.TaskState != worklog.StateNone {
		if err := moveState(ctx, tx, userID, e.ID, e.TaskState, formatTime(e.CreatedAt)); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves an entry by ID
func (r *EntryRepository) Get(ctx context.Context, userID, id string) (*worklog.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, entrySelect+` WHERE l.id = ? AND l.user_id = ?`, id, userID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

// GetMany retrieves the entries with the given IDs; unknown IDs are skipped
func (r *EntryRepository) GetMany(ctx context.Context, userID string, ids []string) ([]worklog.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := []interface{}{userID}
	for _, id := range ids {
		args = append(args, id)
	}
	query := entrySelect + fmt.Sprintf(` WHERE l.user_id = ? AND l.id IN (%s) ORDER BY l.created_at, l.id`, placeholders(len(ids)))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	return scanEntries(rows)
}

// ftsQuery turns free text into an FTS5 query matching every term.
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// List returns entries matching opts
func (r *EntryRepository) List(ctx context.Context, userID string, opts worklog.ListOptions) ([]worklog.Entry, error) {
	conditions := []string{"l.user_id = ?"}
	args := []interface{}{userID}

	if opts.Day != "" {
		conditions = append(conditions, "l.log_date = ?")
		args = append(args, opts.Day)
	}
	if opts.From != "" {
		conditions = append(conditions, "l.log_date >= ?")
		args = append(args, opts.From)
	}
	if opts.To != "" {
		conditions = append(conditions, "l.log_date <= ?")
		args = append(args, opts.To)
	}
	if len(opts.Days) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.log_date IN (%s)", placeholders(len(opts.Days))))
		for _, d := range opts.Days {
			args = append(args, d)
		}
	}
	if opts.ProjectID != "" {
		conditions = append(conditions, "l.project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if opts.LogType != "" {
		conditions = append(conditions, "l.log_type = ?")
		args = append(args, opts.LogType)
	}
	if opts.Tag != "" {
		conditions = append(conditions, "l.task_id_tag = ?")
		args = append(args, opts.Tag)
	}
	if len(opts.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.task_id_tag IN (%s)", placeholders(len(opts.Tags))))
		for _, t := range opts.Tags {
			args = append(args, t)
		}
	}
	if opts.Keyword != "" {
		conditions = append(conditions, "EXISTS (SELECT 1 FROM json_each(l.keywords) k WHERE k.value = ?)")
		args = append(args, opts.Keyword)
	}
	if q := ftsQuery(opts.Query); q != "" {
		conditions = append(conditions, "l.rowid IN (SELECT rowid FROM logs_fts WHERE logs_fts MATCH ?)")
		args = append(args, q)
	}
	if opts.MissingProject {
		conditions = append(conditions, "l.project_id IS NULL")
	}
	if opts.MissingTag {
		conditions = append(conditions, "l.task_id_tag IS NULL")
	}
	if opts.TaggedOnly {
		conditions = append(conditions, "l.task_id_tag IS NOT NULL")
	}

	order := "DESC"
	if opts.Ascending {
		order = "ASC"
	}
	query := entrySelect + " WHERE " + strings.Join(conditions, " AND ") +
		fmt.Sprintf(" ORDER BY l.log_date %s, l.created_at %s, l.id %s", order, order, order)

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return scanEntries(rows)
}

// ListTasks returns entries that belong to a project and take part in task
// tracking, newest first
func (r *EntryRepository) ListTasks(ctx context.Context, userID string, opts worklog.TaskListOptions) ([]worklog.Entry, error) {
	conditions := []string{
		"l.user_id = ?",
		"l.project_id IS NOT NULL",
		"(l.task_id_tag IS NOT NULL OR l.task_state IS NOT NULL OR l.no_task_needed = 0)",
	}
	args := []interface{}{userID}

	if opts.ProjectID != "" {
		conditions = append(conditions, "l.project_id = ?")
		args = append(args, opts.ProjectID)
	}
	var states []interface{}
	for _, s := range opts.States {
		if s != worklog.StateNone {
			states = append(states, s)
		}
	}
	if len(states) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.task_state IN (%s)", placeholders(len(states))))
		args = append(args, states...)
	}

	query := entrySelect + " WHERE " + strings.Join(conditions, " AND ") + " ORDER BY l.created_at DESC, l.id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return scanEntries(rows)
}

// Update writes every mutable column. When task_state differs from the stored
// one the ledger moves forward at UpdatedAt in the same transaction.
func (r *EntryRepository) Update(ctx context.Context, userID string, e *worklog.Entry) error {
	keywords, err := encodeKeywords(e.Keywords)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stored sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT task_state FROM logs WHERE id = ? AND user_id = ?`, e.ID, userID).Scan(&stored)
	if err == sql.ErrNoRows {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read task state: %w", err)
	}

	query := `
		UPDATE logs
		SET project_id = ?, log_date = ?, content = ?, source = ?, log_type = ?,
		    category_code = ?, keywords = ?, task_id_tag = ?, task_state = ?, no_task_needed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	stamp := formatTime(e.UpdatedAt)
	_, err = tx.ExecContext(ctx, query,
		nullString(e.ProjectID),
		e.LogDate,
		e.Content,
		nullString(e.Source),
		e.LogType,
		nullString(e.CategoryCode),
		keywords,
		nullString(e.TaskTag),
		stateColumn(e.TaskState),
		reviewColumn(e.Review),
		stamp,
		e.ID,
		userID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to update entry: %w", err)
	}

	if worklog.TaskState(stored.String) != e.TaskState {
		if err := moveState(ctx, tx, userID, e.ID, e.TaskState, stamp); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes an entry together with its ledger and embedding
func (r *EntryRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM logs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireAffected(result)
}

// UpdateState sets task_state and moves the ledger forward in one transaction:
// the open interval is closed at at and a new one starts there.
func (r *EntryRepository) UpdateState(ctx context.Context, userID, id string, state worklog.TaskState, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stamp := formatTime(at)
	result, err := tx.ExecContext(ctx,
		`UPDATE logs SET task_state = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		stateColumn(state), stamp, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task state: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := moveState(ctx, tx, userID, id, state, stamp); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// moveState closes the open ledger interval of a log and appends one for state.
func moveState(ctx context.Context, tx *sql.Tx, userID, id string, state worklog.TaskState, stamp string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE task_state_history SET valid_to = ? WHERE log_id = ? AND valid_to IS NULL`,
		stamp, id,
	); err != nil {
		return fmt.Errorf("failed to close state interval: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO task_state_history (log_id, user_id, task_state, valid_from) VALUES (?, ?, ?, ?)`,
		id, userID, stateColumn(state), stamp,
	); err != nil {
		return fmt.Errorf("failed to append state interval: %w", err)
	}
	return nil
}

// FillProject sets project_id only if it is still null
func (r *EntryRepository) FillProject(ctx context.Context, userID, id, projectID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE logs SET project_id = ?, updated_at = ? WHERE id = ? AND user_id = ? AND project_id IS NULL`,
		projectID, formatTime(time.Now()), id, userID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, repository.ErrForeignKeyViolation
		}
		return false, fmt.Errorf("failed to fill project: %w", err)
	}
	return changed(result)
}

// FillTag sets task_id_tag only if it is still null. markTask also records
// the entry as reviewed-as-task.
func (r *EntryRepository) FillTag(ctx context.Context, userID, id, tag string, markTask bool) (bool, error) {
	query := `UPDATE logs SET task_id_tag = ?, updated_at = ?`
	if markTask {
		query += `, no_task_needed = 0`
	}
	query += ` WHERE id = ? AND user_id = ? AND task_id_tag IS NULL`

	result, err := r.db.ExecContext(ctx, query, tag, formatTime(time.Now()), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to fill tag: %w", err)
	}
	return changed(result)
}

// SetReview records the classifier outcome
func (r *EntryRepository) SetReview(ctx context.Context, userID, id string, review worklog.Review) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE logs SET no_task_needed = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		reviewColumn(review), formatTime(time.Now()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set review: %w", err)
	}
	return requireAffected(result)
}

// RecentDays returns up to n distinct log dates on or before maxDay, newest first
func (r *EntryRepository) RecentDays(ctx context.Context, userID, maxDay string, n int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT log_date FROM logs
		WHERE user_id = ? AND log_date <= ?
		ORDER BY log_date DESC
		LIMIT ?
	`, userID, maxDay, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating days: %w", err)
	}
	return days, nil
}

func changed(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
