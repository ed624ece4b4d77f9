// Package review orchestrates one review run over a pull request: it
// walks the changed files, combines remote and local analysis,
// suppresses ignored findings, posts comments within the comment
// budget and persists the outcome.
package review

import (
	"context"
	"fmt"
	"path"

	"github.com/hathansen/pr-review-bot/internal/diff"
	"github.com/hathansen/pr-review-bot/internal/domain"
)

// Host is the pull-request hosting service the bot reviews on.
type Host interface {
	ChangedFiles(ctx context.Context, pr int) ([]domain.FileChange, error)
	FileContent(ctx context.Context, path, ref string) (string, error)
	CreateLineComment(ctx context.Context, pr int, path string, line int, body string) error
	CreateComment(ctx context.Context, pr int, body string) error
	AddLabels(ctx context.Context, pr int, labels []string) error
}

// RemoteAnalyzer is the inference-backed file reviewer. An empty
// response means the service was unavailable; the run continues with
// local analysis only.
type RemoteAnalyzer interface {
	ReviewFile(ctx context.Context, filename, changeContext, code string) string
}

// Pipeline runs the local analyzers over one file.
type Pipeline interface {
	Run(ctx context.Context, content, filename string, changes []diff.LineChange) []domain.Issue
}

// Formatter renders issues and run summaries for posting.
type Formatter interface {
	FormatIssue(issue domain.Issue) string
	FormatSummary(result Result) string
}

// DocLinker resolves documentation links relevant to a finding.
type DocLinker interface {
	Links(text, filename string) []domain.DocLink
}

// Store persists review runs and their findings.
type Store interface {
	SaveRun(ctx context.Context, run Run) (int64, error)
	SaveIssues(ctx context.Context, runID int64, filename string, issues []domain.Issue) error
	IsIgnored(ctx context.Context, thread int, file string, line int) (bool, error)
}

// ResultWriter persists the machine-readable run results.
type ResultWriter interface {
	WriteResults(ctx context.Context, result Result) (string, error)
}

// Logger provides structured logging for the orchestrator.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Run is the persisted record of one review invocation.
type Run struct {
	PR          int
	HeadRef     string
	TotalFiles  int
	TotalIssues int
}

// FileAnalysis is the outcome for one changed file.
type FileAnalysis struct {
	Filename string         `json:"filename"`
	Issues   []domain.Issue `json:"issues"`
	Summary  string         `json:"summary,omitempty"`
	Stats    diff.Stats     `json:"stats"`
}

// Result is the outcome of a whole review run.
type Result struct {
	PR          int            `json:"pr_number"`
	Files       []FileAnalysis `json:"file_analyses"`
	TotalFiles  int            `json:"total_files"`
	TotalIssues int            `json:"total_issues"`
}

// Config carries the run-scoped settings.
type Config struct {
	Threshold      domain.Severity
	MaxComments    int
	IgnorePatterns []string
	AutoComment    bool
	Summarize      bool
	// Labels applied when the run finds, respectively does not find,
	// issues at High severity or above. Empty disables labeling.
	AttentionLabel string
	CleanLabel     string
}

// Orchestrator wires the collaborators for review runs.
type Orchestrator struct {
	host      Host
	remote    RemoteAnalyzer
	pipeline  Pipeline
	formatter Formatter
	docs      DocLinker
	store     Store
	writer    ResultWriter
	logger    Logger
	config    Config
}

// NewOrchestrator builds an orchestrator. remote, docs, store, writer
// and logger may be nil; the corresponding steps are skipped.
func NewOrchestrator(host Host, remote RemoteAnalyzer, pipeline Pipeline, formatter Formatter, docs DocLinker, store Store, writer ResultWriter, logger Logger, config Config) *Orchestrator {
	return &Orchestrator{
		host:      host,
		remote:    remote,
		pipeline:  pipeline,
		formatter: formatter,
		docs:      docs,
		store:     store,
		writer:    writer,
		logger:    logger,
		config:    config,
	}
}

// Run reviews one pull request at the given head ref. Per-file
// failures are logged and skipped; only the inability to list changed
// files fails the run.
func (o *Orchestrator) Run(ctx context.Context, pr int, headRef string) (Result, error) {
	files, err := o.host.ChangedFiles(ctx, pr)
	if err != nil {
		return Result{}, fmt.Errorf("listing changed files for PR %d: %w", pr, err)
	}

	result := Result{PR: pr, TotalFiles: len(files)}
	for _, file := range files {
		if o.shouldIgnore(file.Filename) {
			o.info(ctx, "skipping ignored file", map[string]interface{}{"filename": file.Filename})
			continue
		}
		if file.Status == domain.FileStatusRemoved {
			continue
		}

		analysis, ok := o.analyzeFile(ctx, pr, headRef, file)
		if !ok {
			continue
		}
		result.Files = append(result.Files, analysis)
		result.TotalIssues += len(analysis.Issues)
	}

	o.persist(ctx, pr, headRef, result)

	if o.config.AutoComment && result.TotalIssues > 0 {
		o.postComments(ctx, pr, result)
	}
	if o.config.Summarize {
		if err := o.host.CreateComment(ctx, pr, o.formatter.FormatSummary(result)); err != nil {
			o.warn(ctx, "posting summary failed", map[string]interface{}{"error": err.Error()})
		}
	}
	o.applyLabels(ctx, pr, result)

	if o.writer != nil {
		if _, err := o.writer.WriteResults(ctx, result); err != nil {
			o.warn(ctx, "writing results failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return result, nil
}

func (o *Orchestrator) analyzeFile(ctx context.Context, pr int, headRef string, file domain.FileChange) (FileAnalysis, bool) {
	content, err := o.host.FileContent(ctx, file.Filename, headRef)
	if err != nil {
		o.warn(ctx, "fetching file content failed", map[string]interface{}{
			"filename": file.Filename,
			"error":    err.Error(),
		})
		return FileAnalysis{}, false
	}
	if content == "" {
		return FileAnalysis{}, false
	}

	changes := diff.MapPatch(file.Patch)

	remote := remoteResult{Summary: localOnlySummary}
	if o.remote != nil {
		changeContext := fmt.Sprintf("PR #%d: %d additions, %d deletions", pr, file.Additions, file.Deletions)
		remote = parseRemoteResponse(o.remote.ReviewFile(ctx, file.Filename, changeContext, content))
	}

	issues := o.filterThreshold(remote.Issues)
	issues = append(issues, o.pipeline.Run(ctx, content, file.Filename, changes)...)
	issues = o.suppressIgnored(ctx, pr, file.Filename, issues)
	o.attachDocLinks(file.Filename, issues)

	return FileAnalysis{
		Filename: file.Filename,
		Issues:   issues,
		Summary:  remote.Summary,
		Stats:    diff.GetStats(file.Patch),
	}, true
}

// attachDocLinks enriches each surviving issue with documentation
// relevant to its message.
func (o *Orchestrator) attachDocLinks(filename string, issues []domain.Issue) {
	if o.docs == nil {
		return
	}
	for i := range issues {
		issues[i].DocLinks = o.docs.Links(issues[i].Message, filename)
	}
}

// shouldIgnore matches the filename, and its base name, against the
// configured glob patterns.
func (o *Orchestrator) shouldIgnore(filename string) bool {
	base := path.Base(filename)
	for _, pattern := range o.config.IgnorePatterns {
		if ok, _ := path.Match(pattern, filename); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (o *Orchestrator) filterThreshold(issues []domain.Issue) []domain.Issue {
	var out []domain.Issue
	for _, issue := range issues {
		if issue.Severity.AtLeast(o.config.Threshold) {
			out = append(out, issue)
		}
	}
	return out
}

// suppressIgnored drops issues the developers explicitly ignored via
// the /ignore command on an earlier run.
func (o *Orchestrator) suppressIgnored(ctx context.Context, pr int, filename string, issues []domain.Issue) []domain.Issue {
	if o.store == nil {
		return issues
	}
	out := issues[:0]
	for _, issue := range issues {
		ignored, err := o.store.IsIgnored(ctx, pr, filename, issue.Line)
		if err != nil {
			o.warn(ctx, "ignore lookup failed", map[string]interface{}{
				"filename": filename,
				"error":    err.Error(),
			})
			out = append(out, issue)
			continue
		}
		if !ignored {
			out = append(out, issue)
		}
	}
	return out
}

func (o *Orchestrator) persist(ctx context.Context, pr int, headRef string, result Result) {
	if o.store == nil {
		return
	}
	runID, err := o.store.SaveRun(ctx, Run{
		PR:          pr,
		HeadRef:     headRef,
		TotalFiles:  result.TotalFiles,
		TotalIssues: result.TotalIssues,
	})
	if err != nil {
		o.warn(ctx, "saving run failed", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, file := range result.Files {
		if err := o.store.SaveIssues(ctx, runID, file.Filename, file.Issues); err != nil {
			o.warn(ctx, "saving issues failed", map[string]interface{}{
				"filename": file.Filename,
				"error":    err.Error(),
			})
		}
	}
}

// postComments posts one inline comment per line-attributed issue
// until the global comment budget is reached.
func (o *Orchestrator) postComments(ctx context.Context, pr int, result Result) {
	posted := 0
	for _, file := range result.Files {
		for _, issue := range file.Issues {
			if o.config.MaxComments > 0 && posted >= o.config.MaxComments {
				o.warn(ctx, "comment budget reached", map[string]interface{}{
					"max_comments": o.config.MaxComments,
				})
				return
			}
			if issue.Line <= 0 {
				continue
			}
			body := o.formatter.FormatIssue(issue)
			if err := o.host.CreateLineComment(ctx, pr, file.Filename, issue.Line, body); err != nil {
				o.warn(ctx, "posting line comment failed", map[string]interface{}{
					"filename": file.Filename,
					"line":     issue.Line,
					"error":    err.Error(),
				})
				continue
			}
			posted++
		}
	}
}

func (o *Orchestrator) applyLabels(ctx context.Context, pr int, result Result) {
	if o.config.AttentionLabel == "" && o.config.CleanLabel == "" {
		return
	}

	label := o.config.CleanLabel
	for _, file := range result.Files {
		for _, issue := range file.Issues {
			if issue.Severity.AtLeast(domain.SeverityHigh) {
				label = o.config.AttentionLabel
			}
		}
	}
	if label == "" {
		return
	}
	if err := o.host.AddLabels(ctx, pr, []string{label}); err != nil {
		o.warn(ctx, "adding label failed", map[string]interface{}{"error": err.Error()})
	}
}

func (o *Orchestrator) warn(ctx context.Context, message string, fields map[string]interface{}) {
	if o.logger != nil {
		o.logger.LogWarning(ctx, message, fields)
	}
}

func (o *Orchestrator) info(ctx context.Context, message string, fields map[string]interface{}) {
	if o.logger != nil {
		o.logger.LogInfo(ctx, message, fields)
	}
}
