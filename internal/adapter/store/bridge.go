// Package storeadapter bridges the persistence layer to the narrower
// ports of the review orchestrator and the interaction router.
package storeadapter

import (
	"context"

	"github.com/hathansen/pr-review-bot/internal/domain"
	"github.com/hathansen/pr-review-bot/internal/store"
	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

// Bridge adapts store.Store to the usecase-facing interfaces. Keeping
// the conversion here avoids a dependency from the usecases on the
// storage records.
type Bridge struct {
	store store.Store
}

// NewBridge wraps a store.
func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// SaveRun persists a review run and returns its id.
func (b *Bridge) SaveRun(ctx context.Context, run review.Run) (int64, error) {
	return b.store.SaveRun(ctx, store.Run{
		PR:          run.PR,
		HeadRef:     run.HeadRef,
		TotalFiles:  run.TotalFiles,
		TotalIssues: run.TotalIssues,
	})
}

// SaveIssues flattens and persists the issues found in one file.
func (b *Bridge) SaveIssues(ctx context.Context, runID int64, filename string, issues []domain.Issue) error {
	records := make([]store.IssueRecord, 0, len(issues))
	for _, issue := range issues {
		records = append(records, store.IssueRecord{
			RunID:       runID,
			Fingerprint: issue.Fingerprint(),
			Filename:    filename,
			Line:        issue.Line,
			Kind:        string(issue.Kind),
			Severity:    string(issue.Severity),
			Message:     issue.Message,
			Suggestion:  issue.Suggestion,
			Source:      issue.Source,
			CWE:         issue.CWE,
		})
	}
	return b.store.SaveIssues(ctx, records)
}

// IsIgnored reports whether a developer ignored this location.
func (b *Bridge) IsIgnored(ctx context.Context, thread int, file string, line int) (bool, error) {
	return b.store.IsIgnored(ctx, thread, file, line)
}

// SavePendingFix stores generated fix code for later action.
func (b *Bridge) SavePendingFix(ctx context.Context, thread int, file, code string) error {
	return b.store.SavePendingFix(ctx, store.PendingFix{Thread: thread, File: file, Code: code})
}

// SaveIgnoreDecision records a developer's /ignore.
func (b *Bridge) SaveIgnoreDecision(ctx context.Context, thread int, file string, line int, reason string) error {
	return b.store.SaveIgnoreDecision(ctx, store.IgnoreDecision{
		Thread: thread, File: file, Line: line, Reason: reason,
	})
}

// SaveConversation appends one exchange to the persistent log.
func (b *Bridge) SaveConversation(ctx context.Context, thread int, file string, line int, message, response string) error {
	return b.store.SaveConversation(ctx, store.ConversationRecord{
		Thread: thread, File: file, Line: line, Message: message, Response: response,
	})
}
