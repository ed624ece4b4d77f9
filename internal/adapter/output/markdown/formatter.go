// Package markdown renders issues and run summaries as GitHub-flavored
// markdown comment bodies.
package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hathansen/pr-review-bot/internal/domain"
	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

const (
	maxCriticalListed = 5
	maxFilesListed    = 10
	maxDocLinks       = 3
)

var severityEmojis = map[domain.Severity]string{
	domain.SeverityCritical: "🚨",
	domain.SeverityHigh:     "⚠️",
	domain.SeverityMedium:   "⚡",
	domain.SeverityLow:      "ℹ️",
	domain.SeverityInfo:     "💡",
}

var kindEmojis = map[domain.IssueKind]string{
	domain.KindSecurity:    "🔒",
	domain.KindBug:         "🐛",
	domain.KindPerformance: "⚡",
	domain.KindQuality:     "📝",
}

// Formatter implements the formatter port of the review orchestrator.
type Formatter struct {
	caser cases.Caser
}

// NewFormatter builds a formatter.
func NewFormatter() *Formatter {
	return &Formatter{caser: cases.Title(language.English)}
}

// FormatIssue renders one issue as an inline comment body.
func (f *Formatter) FormatIssue(issue domain.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s **%s** (%s): %s\n",
		kindEmoji(issue.Kind),
		f.caser.String(string(issue.Kind)),
		f.caser.String(string(issue.Severity)),
		issue.Message)

	if issue.Snippet != "" {
		fmt.Fprintf(&b, "\n```\n%s\n```\n", issue.Snippet)
	}
	if issue.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 **Suggestion:** %s\n", issue.Suggestion)
	}
	if issue.CWE != "" {
		fmt.Fprintf(&b, "\n📚 Reference: %s\n", issue.CWE)
	}
	if len(issue.DocLinks) > 0 {
		b.WriteString("\n📚 **Related Documentation:**\n")
		for i, link := range issue.DocLinks {
			if i == maxDocLinks {
				break
			}
			fmt.Fprintf(&b, "- [%s](%s)", link.Title, link.URL)
			if link.Description != "" {
				fmt.Fprintf(&b, " - %s", link.Description)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n---\n")
	b.WriteString("*Reply `/fix` to generate a fix, `/explain` for details, or `/ignore <reason>` to dismiss.*\n")
	return b.String()
}

// FormatSummary renders the run summary comment: overall assessment,
// statistics, severity and category breakdowns, the highest-impact
// issues and a per-file breakdown.
func (f *Formatter) FormatSummary(result review.Result) string {
	sevCounts, kindCounts := countIssues(result)

	var b strings.Builder
	fmt.Fprintf(&b, "## 🤖 Automated PR Review\n\n**Overall Assessment:** %s\n\n---\n\n", assessment(sevCounts))
	b.WriteString(statisticsSection(result))
	b.WriteString(findingsSection(f.caser, sevCounts, kindCounts))
	b.WriteString(criticalSection(result))
	b.WriteString(fileBreakdownSection(result))
	b.WriteString("---\n*Automated review by the PR review bot. Reply `/help` on any inline comment to interact.*\n")
	return b.String()
}

func countIssues(result review.Result) (map[domain.Severity]int, map[domain.IssueKind]int) {
	sevCounts := make(map[domain.Severity]int)
	kindCounts := make(map[domain.IssueKind]int)
	for _, file := range result.Files {
		for _, issue := range file.Issues {
			sevCounts[issue.Severity]++
			kindCounts[issue.Kind]++
		}
	}
	return sevCounts, kindCounts
}

func assessment(sevCounts map[domain.Severity]int) string {
	switch {
	case sevCounts[domain.SeverityCritical] > 0:
		return "🚨 Critical Issues Found"
	case sevCounts[domain.SeverityHigh] > 0:
		return "⚠️ Needs Attention"
	case sevCounts[domain.SeverityMedium] > 0:
		return "⚡ Minor Issues"
	case sevCounts[domain.SeverityLow] > 0 || sevCounts[domain.SeverityInfo] > 0:
		return "✅ Looks Good"
	default:
		return "✨ Excellent"
	}
}

func statisticsSection(result review.Result) string {
	var additions, deletions int
	for _, file := range result.Files {
		additions += file.Stats.Additions
		deletions += file.Stats.Deletions
	}
	return fmt.Sprintf(`### 📊 Statistics

- **Files Changed:** %d
- **Lines Added:** +%d
- **Lines Removed:** -%d
- **Issues Found:** %d

`, result.TotalFiles, additions, deletions, result.TotalIssues)
}

func findingsSection(caser cases.Caser, sevCounts map[domain.Severity]int, kindCounts map[domain.IssueKind]int) string {
	if len(sevCounts) == 0 {
		return "### ✅ No Issues Detected\n\nAll analyzers came back clean.\n\n"
	}

	var b strings.Builder
	b.WriteString("### 🔍 Key Findings\n\n**By Severity:**\n")
	for i := len(domain.Severities) - 1; i >= 0; i-- {
		sev := domain.Severities[i]
		if n := sevCounts[sev]; n > 0 {
			fmt.Fprintf(&b, "- %s %d %s\n", severityEmoji(sev), n, caser.String(string(sev)))
		}
	}

	b.WriteString("\n**By Category:**\n")
	for _, kind := range []domain.IssueKind{domain.KindSecurity, domain.KindBug, domain.KindPerformance, domain.KindQuality} {
		if n := kindCounts[kind]; n > 0 {
			fmt.Fprintf(&b, "- %s %d %s\n", kindEmoji(kind), n, caser.String(string(kind)))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func criticalSection(result review.Result) string {
	type located struct {
		file  string
		issue domain.Issue
	}
	var critical []located
	for _, file := range result.Files {
		for _, issue := range file.Issues {
			if issue.Severity.AtLeast(domain.SeverityHigh) {
				critical = append(critical, located{file: file.Filename, issue: issue})
			}
		}
	}
	if len(critical) == 0 {
		return "### ✅ No Critical Issues\n\nNo critical or high-severity issues were detected.\n\n"
	}

	var b strings.Builder
	b.WriteString("### ⚠️ Critical Issues\n\n")
	for i, c := range critical {
		if i == maxCriticalListed {
			fmt.Fprintf(&b, "\n*...and %d more. See inline comments for details.*\n", len(critical)-maxCriticalListed)
			break
		}
		fmt.Fprintf(&b, "%d. %s **%s:%d** - %s\n",
			i+1, severityEmoji(c.issue.Severity), c.file, c.issue.Line, c.issue.Message)
	}
	b.WriteString("\n")
	return b.String()
}

func fileBreakdownSection(result review.Result) string {
	if len(result.Files) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("### 📁 File Breakdown\n\n")
	for i, file := range result.Files {
		if i == maxFilesListed {
			fmt.Fprintf(&b, "\n*...and %d more files*\n", len(result.Files)-maxFilesListed)
			break
		}
		status := "✅"
		if len(file.Issues) > 0 {
			status = "⚠️"
		}
		fmt.Fprintf(&b, "%s **%s** (+%d/-%d) - %d issue(s)\n",
			status, file.Filename, file.Stats.Additions, file.Stats.Deletions, len(file.Issues))
	}
	b.WriteString("\n")
	return b.String()
}

func severityEmoji(sev domain.Severity) string {
	if e, ok := severityEmojis[sev]; ok {
		return e
	}
	return "ℹ️"
}

func kindEmoji(kind domain.IssueKind) string {
	if e, ok := kindEmojis[kind]; ok {
		return e
	}
	return "📝"
}
