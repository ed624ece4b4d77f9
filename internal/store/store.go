// Package store defines the persistence layer for review history,
// developer decisions and bot conversations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. The sqlite adapter implements
// it; the bridge in internal/adapter/store exposes it through the
// narrower usecase ports.
type Store interface {
	// Run history
	SaveRun(ctx context.Context, run Run) (int64, error)
	GetRun(ctx context.Context, id int64) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Reported issues
	SaveIssues(ctx context.Context, issues []IssueRecord) error
	IssuesByRun(ctx context.Context, runID int64) ([]IssueRecord, error)

	// Developer decisions
	SaveIgnoreDecision(ctx context.Context, decision IgnoreDecision) error
	IsIgnored(ctx context.Context, thread int, file string, line int) (bool, error)
	SavePendingFix(ctx context.Context, fix PendingFix) error
	GetPendingFix(ctx context.Context, thread int, file string) (PendingFix, error)

	// Conversation log
	SaveConversation(ctx context.Context, entry ConversationRecord) error
	ConversationsByThread(ctx context.Context, thread int) ([]ConversationRecord, error)

	Close() error
}

// Run is one review invocation over a pull request.
type Run struct {
	ID          int64
	PR          int
	HeadRef     string
	TotalFiles  int
	TotalIssues int
	CreatedAt   time.Time
}

// IssueRecord is one reported issue, flattened for storage.
type IssueRecord struct {
	ID          int64
	RunID       int64
	Fingerprint string
	Filename    string
	Line        int
	Kind        string
	Severity    string
	Message     string
	Suggestion  string
	Source      string
	CWE         string
	CreatedAt   time.Time
}

// IgnoreDecision records a developer's /ignore on a specific finding
// location. One decision per (thread, file, line); re-ignoring the
// same location replaces the reason.
type IgnoreDecision struct {
	Thread    int
	File      string
	Line      int
	Reason    string
	DecidedAt time.Time
}

// PendingFix is a generated fix awaiting developer action, keyed by
// (thread, file). Regenerating replaces the previous code.
type PendingFix struct {
	Thread    int
	File      string
	Code      string
	UpdatedAt time.Time
}

// ConversationRecord is one exchange between a developer and the bot.
type ConversationRecord struct {
	ID        int64
	Thread    int
	File      string
	Line      int
	Message   string
	Response  string
	CreatedAt time.Time
}
