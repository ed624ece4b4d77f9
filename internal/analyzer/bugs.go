package analyzer

import "github.com/hathansen/pr-review-bot/internal/domain"

// NewBugDetector returns the pattern-based bug analyzer with its
// default rule table.
func NewBugDetector() *RuleAnalyzer {
	return NewRuleAnalyzer("bugs", defaultBugRules())
}

func defaultBugRules() []Rule {
	return []Rule{
		// Python
		{
			Pattern:    rx(`except\s*:`),
			Language:   "python",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityMedium,
			Message:    "Bare except clause catches all exceptions, including system exits",
			Suggestion: "Catch specific exception types instead",
		},
		{
			Pattern:    rx(`==\s*None|None\s*==`),
			Language:   "python",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityLow,
			Message:    `Use "is None" instead of "== None" for None comparisons`,
			Suggestion: `Replace with "is None" or "is not None"`,
		},
		{
			Pattern:    rx(`\.append\([^)]*\)\s*\.append\(`),
			Language:   "python",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityHigh,
			Message:    "Chaining append() calls - append() returns None",
			Suggestion: "Call append() on separate lines",
		},
		{
			Pattern:    rx(`def\s+\w+\([^)]*\)\s*:\s*pass\s*$`),
			Language:   "python",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityInfo,
			Message:    "Empty function definition",
			Suggestion: "Implement the function or add a docstring explaining why it is empty",
		},
		{
			Pattern:    rx(`import\s+pdb|pdb\.set_trace\(\)`),
			Language:   "python",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityHigh,
			Message:    "Debugger import/call found",
			Suggestion: "Remove debugger statements before merging",
		},
		{
			Pattern:  rx(`while\s+True\s*:`),
			Unless:   rx(`break`),
			Language: "python",
			Kind:     domain.KindBug,
			Severity: domain.SeverityMedium,
			Message:  "Potential infinite loop without break statement",
			Suggestion: "Add a break condition or use a bounded loop",
		},
		{
			Pattern:    rx(`open\([^)]+\)`),
			Unless:     rx(`\.close\(\)|with\s+open`),
			Language:   "python",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityMedium,
			Message:    "File opened but not explicitly closed",
			Suggestion: "Use a with statement to ensure the file is closed",
		},
		// JavaScript / TypeScript
		{
			Pattern:    rx(`==[^=]|==$`),
			Unless:     rx(`===|!==`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityMedium,
			Message:    "Use === instead of == for strict equality",
			Suggestion: "Replace == with ===",
		},
		{
			Pattern:    rx(`!=[^=]|!=$`),
			Unless:     rx(`!==`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityMedium,
			Message:    "Use !== instead of != for strict inequality",
			Suggestion: "Replace != with !==",
		},
		{
			Pattern:    rx(`var\s+\w+`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityLow,
			Message:    "Use let or const instead of var",
			Suggestion: "var has function scope; prefer block-scoped let or const",
		},
		{
			Pattern:    rx(`console\.log\(`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityInfo,
			Message:    "Console.log statement found - should be removed in production",
			Suggestion: "Remove or replace with a proper logger",
		},
		{
			Pattern:    rx(`debugger;`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityHigh,
			Message:    "Debugger statement found",
			Suggestion: "Remove debugger statements before merging",
		},
		{
			Pattern:    rx(`while\s*\(\s*true\s*\)`),
			Unless:     rx(`break`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityMedium,
			Message:    "Potential infinite loop without break statement",
			Suggestion: "Add a break condition or use a bounded loop",
		},
		{
			Pattern:    rx(`async\s+\w+[^{]*\{`),
			Unless:     rx(`await`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityLow,
			Message:    "Async function without await",
			Suggestion: "Drop the async keyword or await the asynchronous work",
		},
		{
			Pattern:    rx(`\.sort\(\)`),
			Unless:     rx(`\.sort\(\)\s*\.reverse|\[\.\.\.`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityInfo,
			Message:    "Array.sort() modifies array in-place",
			Suggestion: "Copy the array first if the original order is still needed",
		},
		// Language-independent
		{
			Pattern:    rx(`TODO|FIXME|XXX|HACK`),
			Language:   LanguageAll,
			Kind:       domain.KindBug,
			Severity:   domain.SeverityInfo,
			Message:    "TODO/FIXME comment found",
			Suggestion: "Track the follow-up in the issue tracker",
		},
		{
			Pattern:    rx(`\.length\s*(?:>|<|>=|<=|==|===)\s*0`),
			Language:   "javascript",
			Kind:       domain.KindBug,
			Severity:   domain.SeverityMedium,
			Message:    "Potential null/undefined access on .length",
			Suggestion: "Guard the receiver before reading .length",
		},
	}
}
