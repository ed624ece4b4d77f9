package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

// thresholds holds the low/medium/high cutoffs for one complexity
// metric. An issue is raised above low; severity climbs with the
// higher cutoffs.
type thresholds struct {
	low, medium, high int
}

func (t thresholds) severity(value int) domain.Severity {
	switch {
	case value > t.high:
		return domain.SeverityHigh
	case value > t.medium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// ComplexityAnalyzer measures cyclomatic complexity, cognitive
// complexity and nesting depth per function and flags functions that
// exceed the configured cutoffs.
type ComplexityAnalyzer struct {
	cyclomatic thresholds
	cognitive  thresholds
	nesting    thresholds
}

func NewComplexityAnalyzer() *ComplexityAnalyzer {
	return &ComplexityAnalyzer{
		cyclomatic: thresholds{low: 10, medium: 20, high: 30},
		cognitive:  thresholds{low: 15, medium: 25, high: 40},
		nesting:    thresholds{low: 3, medium: 5, high: 7},
	}
}

func (a *ComplexityAnalyzer) Name() string { return "complexity" }

type function struct {
	name      string
	startLine int
	code      string
}

func (a *ComplexityAnalyzer) Detect(content, filename string) ([]domain.Issue, error) {
	var funcs []function
	switch domain.DetectLanguage(filename) {
	case "python":
		funcs = extractPythonFunctions(content)
	case "javascript":
		funcs = extractBraceFunctions(content)
	default:
		return nil, nil
	}

	var issues []domain.Issue
	for _, fn := range funcs {
		cyclomatic := cyclomaticComplexity(fn.code)
		cognitive := cognitiveComplexity(fn.code)
		nesting := maxNesting(fn.code)

		if cyclomatic > a.cyclomatic.low {
			issues = append(issues, a.issue(fn, "Cyclomatic Complexity", cyclomatic, a.cyclomatic))
		}
		if cognitive > a.cognitive.low {
			issues = append(issues, a.issue(fn, "Cognitive Complexity", cognitive, a.cognitive))
		}
		if nesting > a.nesting.low {
			issues = append(issues, a.issue(fn, "Nesting Depth", nesting, a.nesting))
		}
	}
	return issues, nil
}

func (a *ComplexityAnalyzer) issue(fn function, metric string, value int, t thresholds) domain.Issue {
	return domain.Issue{
		Kind:       domain.KindQuality,
		Severity:   t.severity(value),
		Line:       fn.startLine,
		Message:    fmt.Sprintf("High %s in function %q (%d)", metric, fn.name, value),
		Suggestion: "Consider refactoring to reduce complexity, for example by extracting helper functions",
		Source:     a.Name(),
	}
}

var (
	complexityPythonDefRe = regexp.MustCompile(`^def\s+(\w+)`)
	jsFuncRe    = regexp.MustCompile(`function\s+(\w+)\s*\(`)

	decisionRes = []*regexp.Regexp{
		regexp.MustCompile(`\bif\b`),
		regexp.MustCompile(`\belif\b`),
		regexp.MustCompile(`\belse\b`),
		regexp.MustCompile(`\bfor\b`),
		regexp.MustCompile(`\bwhile\b`),
		regexp.MustCompile(`\band\b`),
		regexp.MustCompile(`\bor\b`),
		regexp.MustCompile(`\bcase\b`),
		regexp.MustCompile(`\bcatch\b`),
		regexp.MustCompile(`\?.*:`),
	}

	blockKeywords   = []string{"if", "for", "while", "try", "with"}
	nestingKeywords = []string{"if", "for", "while", "try", "with", "def", "class"}
)

// extractPythonFunctions walks top-level def blocks by indentation.
func extractPythonFunctions(content string) []function {
	lines := strings.Split(content, "\n")

	var funcs []function
	var current *function
	var body []string
	indent := 0

	flush := func() {
		if current == nil {
			return
		}
		current.code = strings.Join(body, "\n")
		funcs = append(funcs, *current)
		current = nil
		body = nil
	}

	for i, line := range lines {
		stripped := strings.TrimLeft(line, " \t")
		if m := complexityPythonDefRe.FindStringSubmatch(stripped); m != nil {
			flush()
			current = &function{name: m[1], startLine: i + 1}
			body = []string{line}
			indent = len(line) - len(stripped)
			continue
		}
		if current != nil {
			lineIndent := len(line) - len(stripped)
			if lineIndent > indent || stripped == "" {
				body = append(body, line)
			} else {
				flush()
			}
		}
	}
	flush()
	return funcs
}

// extractBraceFunctions finds named function declarations and captures
// their bodies by brace counting.
func extractBraceFunctions(content string) []function {
	lines := strings.Split(content, "\n")

	var funcs []function
	for i, line := range lines {
		m := jsFuncRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		funcs = append(funcs, function{
			name:      m[1],
			startLine: i + 1,
			code:      braceBody(lines, i),
		})
	}
	return funcs
}

func braceBody(lines []string, start int) string {
	depth := 0
	started := false
	var body []string
	for _, line := range lines[start:] {
		body = append(body, line)
		for _, ch := range line {
			switch ch {
			case '{':
				depth++
				started = true
			case '}':
				depth--
			}
		}
		if started && depth <= 0 {
			break
		}
	}
	return strings.Join(body, "\n")
}

// cyclomaticComplexity counts decision points plus one.
func cyclomaticComplexity(code string) int {
	complexity := 1
	for _, re := range decisionRes {
		complexity += len(re.FindAllStringIndex(code, -1))
	}
	return complexity
}

// cognitiveComplexity weights branching by the nesting level it occurs
// at, which tracks how hard the code is to read rather than how many
// paths it has.
func cognitiveComplexity(code string) int {
	complexity := 0
	nesting := 0

	for _, line := range strings.Split(code, "\n") {
		stripped := strings.TrimSpace(line)

		if containsAny(stripped, blockKeywords) {
			complexity += 1 + nesting
			if strings.HasSuffix(stripped, ":") || strings.HasSuffix(stripped, "{") {
				nesting++
			}
		}

		complexity += strings.Count(stripped, " and ")
		complexity += strings.Count(stripped, " or ")
		complexity += strings.Count(stripped, "&&")
		complexity += strings.Count(stripped, "||")

		if hasAnyPrefix(stripped, "else", "elif", "except", "finally", "}") {
			if nesting > 0 {
				nesting--
			}
		}
	}
	return complexity
}

// maxNesting returns the deepest block nesting observed.
func maxNesting(code string) int {
	maxDepth, depth := 0, 0

	for _, line := range strings.Split(code, "\n") {
		stripped := strings.TrimSpace(line)

		if containsAny(stripped, nestingKeywords) &&
			(strings.HasSuffix(stripped, ":") || strings.HasSuffix(stripped, "{")) {
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
			continue
		}

		if strings.HasPrefix(stripped, "}") ||
			(stripped != "" && !strings.HasPrefix(line, strings.Repeat(" ", depth*4))) {
			if depth > 0 {
				depth--
			}
		}
	}
	return maxDepth
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
