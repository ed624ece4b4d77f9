// Package sqlite implements the store interface on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hathansen/pr-review-bot/internal/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at the given path and
// applies the schema. Use ":memory:" for tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway, and a single connection keeps
	// ":memory:" databases from evaporating between pool checkouts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pr INTEGER NOT NULL,
		head_ref TEXT NOT NULL,
		total_files INTEGER NOT NULL,
		total_issues INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS issues (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		fingerprint TEXT NOT NULL,
		filename TEXT NOT NULL,
		line INTEGER NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		suggestion TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		cwe TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_issues_run ON issues(run_id);

	CREATE TABLE IF NOT EXISTS ignore_decisions (
		thread INTEGER NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		reason TEXT NOT NULL,
		decided_at TIMESTAMP NOT NULL,
		PRIMARY KEY (thread, file, line)
	);

	CREATE TABLE IF NOT EXISTS pending_fixes (
		thread INTEGER NOT NULL,
		file TEXT NOT NULL,
		code TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (thread, file)
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread INTEGER NOT NULL,
		file TEXT NOT NULL DEFAULT '',
		line INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_thread ON conversations(thread);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun inserts a run and returns its generated id.
func (s *Store) SaveRun(ctx context.Context, run store.Run) (int64, error) {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (pr, head_ref, total_files, total_issues, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.PR, run.HeadRef, run.TotalFiles, run.TotalIssues, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	return res.LastInsertId()
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, id int64) (store.Run, error) {
	var run store.Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pr, head_ref, total_files, total_issues, created_at
		FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.PR, &run.HeadRef, &run.TotalFiles, &run.TotalIssues, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, store.ErrNotFound
	}
	if err != nil {
		return store.Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pr, head_ref, total_files, total_issues, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		if err := rows.Scan(&run.ID, &run.PR, &run.HeadRef, &run.TotalFiles, &run.TotalIssues, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveIssues inserts all records in one transaction.
func (s *Store) SaveIssues(ctx context.Context, issues []store.IssueRecord) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO issues (run_id, fingerprint, filename, line, kind, severity, message, suggestion, source, cwe, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, issue := range issues {
		createdAt := issue.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			issue.RunID, issue.Fingerprint, issue.Filename, issue.Line,
			issue.Kind, issue.Severity, issue.Message, issue.Suggestion,
			issue.Source, issue.CWE, createdAt); err != nil {
			return fmt.Errorf("failed to save issue: %w", err)
		}
	}
	return tx.Commit()
}

// IssuesByRun returns the issues of a run in insertion order.
func (s *Store) IssuesByRun(ctx context.Context, runID int64) ([]store.IssueRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, fingerprint, filename, line, kind, severity, message, suggestion, source, cwe, created_at
		FROM issues WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []store.IssueRecord
	for rows.Next() {
		var issue store.IssueRecord
		if err := rows.Scan(&issue.ID, &issue.RunID, &issue.Fingerprint, &issue.Filename,
			&issue.Line, &issue.Kind, &issue.Severity, &issue.Message,
			&issue.Suggestion, &issue.Source, &issue.CWE, &issue.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// SaveIgnoreDecision upserts the decision for its location.
func (s *Store) SaveIgnoreDecision(ctx context.Context, decision store.IgnoreDecision) error {
	decidedAt := decision.DecidedAt
	if decidedAt.IsZero() {
		decidedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ignore_decisions (thread, file, line, reason, decided_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread, file, line) DO UPDATE SET
			reason = excluded.reason,
			decided_at = excluded.decided_at`,
		decision.Thread, decision.File, decision.Line, decision.Reason, decidedAt)
	if err != nil {
		return fmt.Errorf("failed to save ignore decision: %w", err)
	}
	return nil
}

// IsIgnored reports whether the location has an ignore decision.
func (s *Store) IsIgnored(ctx context.Context, thread int, file string, line int) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM ignore_decisions WHERE thread = ? AND file = ? AND line = ?`,
		thread, file, line).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query ignore decision: %w", err)
	}
	return true, nil
}

// SavePendingFix upserts the fix for its (thread, file) key.
func (s *Store) SavePendingFix(ctx context.Context, fix store.PendingFix) error {
	updatedAt := fix.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_fixes (thread, file, code, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread, file) DO UPDATE SET
			code = excluded.code,
			updated_at = excluded.updated_at`,
		fix.Thread, fix.File, fix.Code, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pending fix: %w", err)
	}
	return nil
}

// GetPendingFix fetches the stored fix, or store.ErrNotFound.
func (s *Store) GetPendingFix(ctx context.Context, thread int, file string) (store.PendingFix, error) {
	var fix store.PendingFix
	err := s.db.QueryRowContext(ctx, `
		SELECT thread, file, code, updated_at
		FROM pending_fixes WHERE thread = ? AND file = ?`, thread, file).
		Scan(&fix.Thread, &fix.File, &fix.Code, &fix.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.PendingFix{}, store.ErrNotFound
	}
	if err != nil {
		return store.PendingFix{}, fmt.Errorf("failed to get pending fix: %w", err)
	}
	return fix, nil
}

// SaveConversation appends one exchange to the log.
func (s *Store) SaveConversation(ctx context.Context, entry store.ConversationRecord) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (thread, file, line, message, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.Thread, entry.File, entry.Line, entry.Message, entry.Response, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// ConversationsByThread returns a thread's exchanges, oldest first.
func (s *Store) ConversationsByThread(ctx context.Context, thread int) ([]store.ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread, file, line, message, response, created_at
		FROM conversations WHERE thread = ? ORDER BY id`, thread)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var entries []store.ConversationRecord
	for rows.Next() {
		var entry store.ConversationRecord
		if err := rows.Scan(&entry.ID, &entry.Thread, &entry.File, &entry.Line,
			&entry.Message, &entry.Response, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
