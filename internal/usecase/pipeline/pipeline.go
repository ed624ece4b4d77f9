// Package pipeline aggregates analyzer findings for one file: it runs
// every configured analyzer, merges and de-duplicates their issues,
// ranks them by severity and enforces the reporting budget.
package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/hathansen/pr-review-bot/internal/analyzer"
	"github.com/hathansen/pr-review-bot/internal/diff"
	"github.com/hathansen/pr-review-bot/internal/domain"
)

// Logger provides structured logging for the pipeline. Analyzer
// failures are logged here and never abort the run.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Service runs the analyzer aggregation pipeline.
type Service struct {
	analyzers []analyzer.Analyzer
	threshold domain.Severity
	maxIssues int
	logger    Logger
}

// NewService creates a pipeline over the given analyzers. Issues below
// threshold are dropped; at most maxIssues survive (0 means no cap).
// A nil logger disables logging.
func NewService(analyzers []analyzer.Analyzer, threshold domain.Severity, maxIssues int, logger Logger) *Service {
	return &Service{
		analyzers: analyzers,
		threshold: threshold,
		maxIssues: maxIssues,
		logger:    logger,
	}
}

// Run executes every analyzer over the file and returns the ranked,
// filtered issue list. changes, when present, come from mapping the
// file's patch and are used to attribute issues that carry no line
// number. A failing analyzer is isolated: its error is logged and the
// remaining analyzers still run.
func (s *Service) Run(ctx context.Context, content, filename string, changes []diff.LineChange) []domain.Issue {
	var merged []domain.Issue
	for _, a := range s.analyzers {
		issues, err := s.detect(ctx, a, content, filename)
		if err != nil {
			s.warn(ctx, "analyzer failed", map[string]interface{}{
				"analyzer": a.Name(),
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}
		merged = append(merged, issues...)
	}

	merged = attributeLines(merged, changes)
	merged = dedupe(merged)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Severity.Rank() > merged[j].Severity.Rank()
	})

	filtered := merged[:0]
	for _, issue := range merged {
		if issue.Severity.AtLeast(s.threshold) {
			filtered = append(filtered, issue)
		}
	}

	if s.maxIssues > 0 && len(filtered) > s.maxIssues {
		filtered = filtered[:s.maxIssues]
	}
	return filtered
}

// detect wraps one analyzer invocation so that a panicking analyzer is
// contained the same way as one returning an error.
func (s *Service) detect(ctx context.Context, a analyzer.Analyzer, content, filename string) (issues []domain.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues = nil
			err = fmt.Errorf("analyzer panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.Detect(content, filename)
}

// attributeLines fills in missing line numbers from the diff's change
// records: the first added line, or failing that the first changed
// line. Author-specified lines are never adjusted.
func attributeLines(issues []domain.Issue, changes []diff.LineChange) []domain.Issue {
	if len(changes) == 0 {
		return issues
	}

	fallback := changes[0].Line
	for _, c := range changes {
		if c.Kind == diff.Addition {
			fallback = c.Line
			break
		}
	}

	for i := range issues {
		if issues[i].Line == 0 {
			issues[i].Line = fallback
		}
	}
	return issues
}

// dedupe drops repeated findings, keeping the first occurrence, so
// overlapping rules across analyzers do not inflate the report.
func dedupe(issues []domain.Issue) []domain.Issue {
	seen := make(map[string]bool, len(issues))
	out := issues[:0]
	for _, issue := range issues {
		fp := issue.Fingerprint()
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, issue)
	}
	return out
}

func (s *Service) warn(ctx context.Context, message string, fields map[string]interface{}) {
	if s.logger != nil {
		s.logger.LogWarning(ctx, message, fields)
	}
}
