package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaVersion is stored in PRAGMA user_version once the schema is applied.
const schemaVersion = 1

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and every ":memory:"
	// connection would otherwise be a separate database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if dataSourceName != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to exec %q: %w", p, err)
		}
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema unless user_version says it is already there.
func (db *DB) RunMigrations() error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	migration := `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    code TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'completed', 'hold')),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (user_id, code)
);
CREATE INDEX IF NOT EXISTS idx_user_projects ON projects(user_id);

-- Log entries
CREATE TABLE IF NOT EXISTS logs (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    project_id TEXT,
    log_date TEXT NOT NULL,
    raw_input TEXT NOT NULL,
    content TEXT NOT NULL,
    source TEXT,
    log_type TEXT NOT NULL CHECK(log_type IN ('F', 'T', 'W', 'I', 'E9')),
    category_code TEXT,
    keywords TEXT NOT NULL DEFAULT '[]',
    task_id_tag TEXT,
    task_state TEXT CHECK(task_state IN ('high', 'medium', 'low', 'review', 'done')),
    no_task_needed INTEGER,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_user_logs_date ON logs(user_id, log_date);
CREATE INDEX IF NOT EXISTS idx_logs_project ON logs(project_id);
CREATE INDEX IF NOT EXISTS idx_logs_tag ON logs(user_id, task_id_tag);

-- Task-state ledger; task_state NULL records a cleared state
CREATE TABLE IF NOT EXISTS task_state_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    log_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    task_state TEXT,
    valid_from TEXT NOT NULL,
    valid_to TEXT,
    FOREIGN KEY (log_id) REFERENCES logs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_history_log ON task_state_history(log_id, valid_from);
CREATE INDEX IF NOT EXISTS idx_history_state ON task_state_history(user_id, task_state, valid_from);
CREATE UNIQUE INDEX IF NOT EXISTS idx_history_open ON task_state_history(log_id) WHERE valid_to IS NULL;

-- Daily reports
CREATE TABLE IF NOT EXISTS daily_reports (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    report_date TEXT NOT NULL,
    content TEXT NOT NULL,
    total_logs INTEGER NOT NULL DEFAULT 0,
    f_count INTEGER NOT NULL DEFAULT 0,
    t_count INTEGER NOT NULL DEFAULT 0,
    w_count INTEGER NOT NULL DEFAULT 0,
    i_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (user_id, report_date)
);

-- Per-project, per-day tag sequences
CREATE TABLE IF NOT EXISTS task_sequences (
    user_id TEXT NOT NULL,
    project_code TEXT NOT NULL,
    seq_date TEXT NOT NULL,
    last_seq INTEGER NOT NULL,
    PRIMARY KEY (user_id, project_code, seq_date)
);

-- Embeddings, little-endian float32
CREATE TABLE IF NOT EXISTS log_embeddings (
    log_id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    vector BLOB NOT NULL,
    dims INTEGER NOT NULL,
    content_chunk TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (log_id) REFERENCES logs(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_user_embeddings ON log_embeddings(user_id);

-- Full-text search (SQLite FTS5)
CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(
    content,
    raw_input,
    source,
    content='logs',
    content_rowid='rowid'
);

-- Triggers to keep FTS index synchronized
CREATE TRIGGER IF NOT EXISTS logs_ai AFTER INSERT ON logs BEGIN
    INSERT INTO logs_fts(rowid, content, raw_input, source)
    VALUES (new.rowid, new.content, new.raw_input, new.source);
END;

CREATE TRIGGER IF NOT EXISTS logs_ad AFTER DELETE ON logs BEGIN
    INSERT INTO logs_fts(logs_fts, rowid, content, raw_input, source)
    VALUES('delete', old.rowid, old.content, old.raw_input, old.source);
END;

CREATE TRIGGER IF NOT EXISTS logs_au AFTER UPDATE OF content, raw_input, source ON logs BEGIN
    INSERT INTO logs_fts(logs_fts, rowid, content, raw_input, source)
    VALUES('delete', old.rowid, old.content, old.raw_input, old.source);
    INSERT INTO logs_fts(rowid, content, raw_input, source)
    VALUES (new.rowid, new.content, new.raw_input, new.source);
END;

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    last_used TEXT,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_user_keys ON api_keys(user_id);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}
