package review

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

const (
	localOnlySummary = "Using local pattern-based analysis"
	remoteSource     = "blackbox"
	maxTextSummary   = 500
)

type remoteResult struct {
	Issues  []domain.Issue
	Summary string
}

// remotePayload is the JSON shape the review prompt asks for.
type remotePayload struct {
	Issues []struct {
		Type       string `json:"type"`
		Severity   string `json:"severity"`
		Line       int    `json:"line"`
		Message    string `json:"message"`
		Suggestion string `json:"suggestion"`
		Snippet    string `json:"code_snippet"`
	} `json:"issues"`
	Summary string `json:"summary"`
}

var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// parseRemoteResponse extracts the structured issue list from an
// inference response. The service often wraps the JSON in prose, so
// the widest brace-delimited block is tried first; any failure
// degrades to an empty issue list with the response text (clipped) as
// the summary. The empty sentinel from the client degrades to the
// local-only marker.
func parseRemoteResponse(response string) remoteResult {
	if response == "" {
		return remoteResult{Summary: localOnlySummary}
	}

	block := jsonBlockRe.FindString(response)
	if block != "" {
		var payload remotePayload
		if err := json.Unmarshal([]byte(block), &payload); err == nil {
			return remoteResult{
				Issues:  convertRemoteIssues(payload),
				Summary: payload.Summary,
			}
		}
	}
	return remoteResult{Summary: clip(response, maxTextSummary)}
}

func convertRemoteIssues(payload remotePayload) []domain.Issue {
	var issues []domain.Issue
	for _, raw := range payload.Issues {
		issues = append(issues, domain.Issue{
			Kind:       parseKind(raw.Type),
			Severity:   domain.ParseSeverity(raw.Severity),
			Line:       raw.Line,
			Message:    raw.Message,
			Suggestion: raw.Suggestion,
			Snippet:    raw.Snippet,
			Source:     remoteSource,
		})
	}
	return issues
}

// parseKind is lenient the same way ParseSeverity is: anything
// unrecognized becomes a quality finding.
func parseKind(s string) domain.IssueKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(domain.KindBug):
		return domain.KindBug
	case string(domain.KindSecurity):
		return domain.KindSecurity
	case string(domain.KindPerformance):
		return domain.KindPerformance
	default:
		return domain.KindQuality
	}
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
