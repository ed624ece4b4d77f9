// Package llm holds decorators shared by the inference clients.
package llm

import (
	"context"

	"github.com/hathansen/pr-review-bot/internal/redaction"
)

// FileReviewer is the remote file-review surface being decorated.
type FileReviewer interface {
	ReviewFile(ctx context.Context, filename, changeContext, code string) string
}

// Caller is the raw prompt surface being decorated.
type Caller interface {
	Call(ctx context.Context, prompt string) string
}

// ScrubbedReviewer removes secrets from code before it is sent to the
// remote analysis service.
type ScrubbedReviewer struct {
	scrubber *redaction.Scrubber
	next     FileReviewer
}

// NewScrubbedReviewer decorates a reviewer with secret scrubbing.
func NewScrubbedReviewer(scrubber *redaction.Scrubber, next FileReviewer) *ScrubbedReviewer {
	return &ScrubbedReviewer{scrubber: scrubber, next: next}
}

// ReviewFile scrubs the code and forwards the request.
func (r *ScrubbedReviewer) ReviewFile(ctx context.Context, filename, changeContext, code string) string {
	return r.next.ReviewFile(ctx, filename, changeContext, r.scrubber.Scrub(code))
}

// ScrubbedCaller removes secrets from prompts before they are sent to
// the remote analysis service. Conversation prompts embed fetched file
// content, so the whole prompt is scrubbed.
type ScrubbedCaller struct {
	scrubber *redaction.Scrubber
	next     Caller
}

// NewScrubbedCaller decorates a caller with secret scrubbing.
func NewScrubbedCaller(scrubber *redaction.Scrubber, next Caller) *ScrubbedCaller {
	return &ScrubbedCaller{scrubber: scrubber, next: next}
}

// Call scrubs the prompt and forwards the request.
func (c *ScrubbedCaller) Call(ctx context.Context, prompt string) string {
	return c.next.Call(ctx, c.scrubber.Scrub(prompt))
}
