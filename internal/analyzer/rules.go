package analyzer

import (
	"regexp"
	"strings"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

// LanguageAll marks a rule as applicable to every language.
const LanguageAll = "all"

const snippetLimit = 100

// Rule is a single pattern-based detection. Rules are plain data so
// that analyzer behavior can be extended without touching the matching
// engine.
type Rule struct {
	// Pattern is matched per line, or against the whole file when
	// Multiline is set.
	Pattern *regexp.Regexp

	// Unless suppresses a match when it also matches the same line
	// (or, for multiline rules, the matched region). It replaces the
	// lookahead-style negations a backtracking engine would use.
	Unless *regexp.Regexp

	// Language restricts the rule to files of one language, or
	// LanguageAll.
	Language string

	// Multiline rules span line boundaries and are matched against
	// the full content, with the reported line computed from the
	// match offset.
	Multiline bool

	Kind       domain.IssueKind
	Severity   domain.Severity
	Message    string
	Suggestion string
	CWE        string
}

// RuleAnalyzer runs a rule table over file contents. Per-line rules
// skip matches that start inside a line comment; multiline rules are
// matched against the raw content.
type RuleAnalyzer struct {
	name  string
	rules []Rule
}

// NewRuleAnalyzer builds an analyzer from a rule table.
func NewRuleAnalyzer(name string, rules []Rule) *RuleAnalyzer {
	return &RuleAnalyzer{name: name, rules: rules}
}

func (a *RuleAnalyzer) Name() string { return a.name }

// Detect applies every rule applicable to the file's language.
func (a *RuleAnalyzer) Detect(content, filename string) ([]domain.Issue, error) {
	language := domain.DetectLanguage(filename)
	lines := strings.Split(content, "\n")

	var issues []domain.Issue
	for _, rule := range a.rules {
		if rule.Language != LanguageAll && rule.Language != language {
			continue
		}
		if rule.Multiline {
			issues = append(issues, a.matchContent(rule, content)...)
		} else {
			issues = append(issues, a.matchLines(rule, lines, language)...)
		}
	}
	return issues, nil
}

func (a *RuleAnalyzer) matchLines(rule Rule, lines []string, language string) []domain.Issue {
	var issues []domain.Issue
	for i, line := range lines {
		locs := rule.Pattern.FindAllStringIndex(line, -1)
		for _, loc := range locs {
			if inComment(line, loc[0], language) {
				continue
			}
			if rule.Unless != nil && rule.Unless.MatchString(line) {
				continue
			}
			issues = append(issues, a.issueAt(rule, i+1, strings.TrimSpace(line)))
		}
	}
	return issues
}

func (a *RuleAnalyzer) matchContent(rule Rule, content string) []domain.Issue {
	var issues []domain.Issue
	for _, loc := range rule.Pattern.FindAllStringIndex(content, -1) {
		region := content[loc[0]:loc[1]]
		if rule.Unless != nil && rule.Unless.MatchString(region) {
			continue
		}
		line := strings.Count(content[:loc[0]], "\n") + 1
		issues = append(issues, a.issueAt(rule, line, strings.TrimSpace(region)))
	}
	return issues
}

func (a *RuleAnalyzer) issueAt(rule Rule, line int, snippet string) domain.Issue {
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return domain.Issue{
		Kind:       rule.Kind,
		Severity:   rule.Severity,
		Line:       line,
		Message:    rule.Message,
		Suggestion: rule.Suggestion,
		Snippet:    snippet,
		Source:     a.name,
		CWE:        rule.CWE,
	}
}

// rx compiles a case-insensitive rule pattern. The tables use it for
// per-line rules, mirroring how editors surface these findings
// regardless of casing.
func rx(expr string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + expr)
}

// rxs compiles a case-sensitive pattern, used by the multiline rules
// where keyword casing is structural.
func rxs(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}

// inComment reports whether the offset falls after a line-comment
// marker for the given language. Block comments are not tracked; this
// is a heuristic, matching how the rule tables were tuned.
func inComment(line string, offset int, language string) bool {
	for _, marker := range commentMarkers(language) {
		if idx := strings.Index(line, marker); idx >= 0 && idx < offset {
			return true
		}
	}
	return false
}

func commentMarkers(language string) []string {
	switch language {
	case "python", "ruby":
		return []string{"#"}
	case "javascript", "java", "go", "c", "cpp", "csharp", "rust", "swift", "kotlin", "php":
		return []string{"//"}
	default:
		return nil
	}
}
