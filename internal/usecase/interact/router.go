// Package interact routes inbound review-thread comments: it decides
// whether a comment addresses the bot, parses slash commands, and
// either dispatches a command handler or holds an open dialogue backed
// by the inference client. Conversation context is kept in memory,
// bounded per thread.
package interact

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

// Caller is the outbound inference client. An empty response means
// the service was unavailable; handlers fall back to a user-facing
// error instead of failing.
type Caller interface {
	Call(ctx context.Context, prompt string) string
}

// ContentFetcher resolves the current content of a file in the thread
// under discussion.
type ContentFetcher interface {
	FileContent(ctx context.Context, thread int, path string) (string, error)
}

// FixStore persists generated fixes for a later apply/reject step.
type FixStore interface {
	SavePendingFix(ctx context.Context, thread int, file, code string) error
}

// IgnoreStore records ignore decisions keyed by thread, file and line
// so the reporting layer can suppress them idempotently.
type IgnoreStore interface {
	SaveIgnoreDecision(ctx context.Context, thread int, file string, line int, reason string) error
}

// Logger provides structured logging for the router.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Message is one inbound comment. File and Line are zero-valued for
// top-level (non-inline) comments.
type Message struct {
	Thread int
	Author string
	Body   string
	File   string
	Line   int
}

// grammar is the ordered command table. First match wins, so more
// specific verbs must come before any that could shadow them.
type grammar struct {
	verb    domain.Verb
	pattern *regexp.Regexp
}

var commandGrammar = []grammar{
	{domain.VerbFix, regexp.MustCompile(`(?i)/fix(?:\s+(.+))?`)},
	{domain.VerbExplain, regexp.MustCompile(`(?i)/explain(?:\s+(.+))?`)},
	{domain.VerbSuggest, regexp.MustCompile(`(?i)/suggest(?:\s+(.+))?`)},
	{domain.VerbIgnore, regexp.MustCompile(`(?i)/ignore(?:\s+(.+))?`)},
	{domain.VerbHelp, regexp.MustCompile(`(?i)/help`)},
}

var greetings = []string{"hey bot", "hi bot"}

const (
	contextWindow  = 10
	historyContext = 3
	maxFixPreview  = 1000
)

type historyKey struct {
	thread int
	file   string
	line   int
}

// Router is the per-process message router. Safe for concurrent use;
// the conversation history is mutex-guarded.
type Router struct {
	handle  string
	caller  Caller
	fetcher ContentFetcher
	fixes   FixStore
	ignores IgnoreStore
	logger  Logger
	now     func() time.Time

	mu      sync.Mutex
	history map[historyKey][]domain.ConversationEntry
}

// NewRouter creates a router addressed by the given handle, such as
// "@pr-review-bot".
func NewRouter(handle string, caller Caller, fetcher ContentFetcher, fixes FixStore, ignores IgnoreStore, logger Logger) *Router {
	return &Router{
		handle:  strings.ToLower(handle),
		caller:  caller,
		fetcher: fetcher,
		fixes:   fixes,
		ignores: ignores,
		logger:  logger,
		now:     time.Now,
		history: make(map[historyKey][]domain.ConversationEntry),
	}
}

// ProcessMessage runs the gate, parse and dispatch states for one
// comment. The second return is false when the message was not
// addressed to the bot; no response should be posted in that case.
// Handler failures never propagate: they come back as short
// user-facing strings.
func (r *Router) ProcessMessage(ctx context.Context, msg Message) (string, bool) {
	if !r.addressed(msg.Body) {
		return "", false
	}

	cmd := ParseCommand(msg.Body)
	switch cmd.Verb {
	case domain.VerbFix:
		return r.handleFix(ctx, msg), true
	case domain.VerbExplain:
		return r.handleExplain(ctx, msg, cmd.Args), true
	case domain.VerbSuggest:
		return r.handleSuggest(ctx, msg, cmd.Args), true
	case domain.VerbIgnore:
		return r.handleIgnore(ctx, msg, cmd.Args), true
	case domain.VerbHelp:
		return helpText, true
	default:
		return r.handleDialogue(ctx, msg), true
	}
}

// addressed reports whether the message is meant for the bot: an
// explicit handle mention, a greeting, or any recognized command
// prefix.
func (r *Router) addressed(body string) bool {
	lower := strings.ToLower(body)
	if r.handle != "" && strings.Contains(lower, r.handle) {
		return true
	}
	for _, g := range greetings {
		if strings.Contains(lower, g) {
			return true
		}
	}
	for _, g := range commandGrammar {
		if strings.Contains(lower, "/"+string(g.verb)) {
			return true
		}
	}
	return false
}

// ParseCommand matches the text against the ordered grammar table.
// Unmatched text yields VerbNone, which routes to dialogue.
func ParseCommand(text string) domain.Command {
	for _, g := range commandGrammar {
		m := g.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		args := ""
		if len(m) > 1 {
			args = strings.TrimSpace(m[1])
		}
		return domain.Command{Verb: g.verb, Args: args}
	}
	return domain.Command{Verb: domain.VerbNone}
}

func (r *Router) handleFix(ctx context.Context, msg Message) string {
	if msg.File == "" {
		return "Cannot apply fix: no file specified. Use `/fix` on an inline comment."
	}

	content, err := r.fetcher.FileContent(ctx, msg.Thread, msg.File)
	if err != nil || content == "" {
		r.warn(ctx, "fix: file content unavailable", msg, err)
		return fmt.Sprintf("Cannot read file: %s", msg.File)
	}

	prompt := fixPrompt(msg.File, msg.Line, r.issueContext(msg), content)
	response := r.caller.Call(ctx, prompt)

	fixed := extractFixedCode(response)
	if fixed == "" {
		return "Could not generate a fix. Please try again or fix manually."
	}

	if err := r.fixes.SavePendingFix(ctx, msg.Thread, msg.File, fixed); err != nil {
		r.warn(ctx, "fix: store failed", msg, err)
		return "Generated a fix but could not store it. Please try again."
	}

	return fixResponse(msg.File, msg.Line, extractExplanation(response), fixed, extractTesting(response))
}

func (r *Router) handleExplain(ctx context.Context, msg Message, args string) string {
	if msg.File == "" {
		return "Please use `/explain` on an inline comment to get context."
	}

	content, err := r.fetcher.FileContent(ctx, msg.Thread, msg.File)
	if err != nil {
		r.warn(ctx, "explain: file content unavailable", msg, err)
		return fmt.Sprintf("Cannot read file: %s", msg.File)
	}

	question := args
	if question == "" {
		question = "Explain what this code does"
	}

	prompt := explainPrompt(msg.File, msg.Line, question, clipWindow(content, msg.Line, contextWindow))
	response := r.caller.Call(ctx, prompt)
	if response == "" {
		return serviceUnavailable
	}
	return explainResponse(response)
}

func (r *Router) handleSuggest(ctx context.Context, msg Message, args string) string {
	if msg.File == "" {
		return "Please use `/suggest` on an inline comment."
	}

	content, err := r.fetcher.FileContent(ctx, msg.Thread, msg.File)
	if err != nil {
		r.warn(ctx, "suggest: file content unavailable", msg, err)
		return fmt.Sprintf("Cannot read file: %s", msg.File)
	}

	focus := args
	if focus == "" {
		focus = "General improvements"
	}

	response := r.caller.Call(ctx, suggestPrompt(msg.File, focus, content))
	if response == "" {
		return serviceUnavailable
	}
	return suggestResponse(response)
}

func (r *Router) handleIgnore(ctx context.Context, msg Message, args string) string {
	reason := args
	if reason == "" {
		reason = "No reason provided"
	}

	if err := r.ignores.SaveIgnoreDecision(ctx, msg.Thread, msg.File, msg.Line, reason); err != nil {
		r.warn(ctx, "ignore: store failed", msg, err)
		return "Could not record the ignore decision. Please try again."
	}
	return ignoreResponse(reason)
}

func (r *Router) handleDialogue(ctx context.Context, msg Message) string {
	prompt := dialoguePrompt(msg.Thread, msg.File, msg.Line, r.conversationContext(msg), msg.Body)

	response := r.caller.Call(ctx, prompt)
	if response == "" {
		return serviceUnavailable
	}

	r.appendHistory(msg, response)
	return dialogueResponse(response)
}

// issueContext summarizes the most recent exchange on this thread
// location, giving the fix prompt something to anchor on.
func (r *Router) issueContext(msg Message) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.history[keyOf(msg)]
	if len(entries) == 0 {
		return "Issue reported during automated review"
	}
	last := entries[len(entries)-1]
	return last.Response
}

// conversationContext renders up to the last few exchanges for the
// same thread location.
func (r *Router) conversationContext(msg Message) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.history[keyOf(msg)]
	if len(entries) == 0 {
		return "No previous context"
	}
	if len(entries) > historyContext {
		entries = entries[len(entries)-historyContext:]
	}

	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "User: %s\nBot: %s\n", e.Message, e.Response)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r *Router) appendHistory(msg Message, response string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyOf(msg)
	r.history[key] = append(r.history[key], domain.ConversationEntry{
		Message:   msg.Body,
		Response:  response,
		Timestamp: r.now(),
	})
}

// History returns a copy of the stored exchanges for one location,
// used by the summary reporter.
func (r *Router) History(thread int, file string, line int) []domain.ConversationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.history[historyKey{thread: thread, file: file, line: line}]
	out := make([]domain.ConversationEntry, len(entries))
	copy(out, entries)
	return out
}

func keyOf(msg Message) historyKey {
	return historyKey{thread: msg.Thread, file: msg.File, line: msg.Line}
}

// clipWindow returns the lines around line within radius, clipped to
// the file bounds. line 0 means no target line, so the whole file is
// returned.
func clipWindow(content string, line, radius int) string {
	if line <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	start := line - radius
	if start < 0 {
		start = 0
	}
	end := line + radius
	if end > len(lines) {
		end = len(lines)
	}
	// A line past the end of the file yields an empty window, not the
	// whole file.
	if start > end {
		start = end
	}
	return strings.Join(lines[start:end], "\n")
}

func (r *Router) warn(ctx context.Context, message string, msg Message, err error) {
	if r.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"thread": msg.Thread,
		"file":   msg.File,
		"line":   msg.Line,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.logger.LogWarning(ctx, message, fields)
}
