package analyzer

import "github.com/hathansen/pr-review-bot/internal/domain"

// NewPerformanceAnalyzer returns the performance analyzer. Most of its
// rules are multiline: they look at a statement and the line that
// follows it, so they match against the whole file.
func NewPerformanceAnalyzer() *RuleAnalyzer {
	return NewRuleAnalyzer("performance", defaultPerformanceRules())
}

func defaultPerformanceRules() []Rule {
	return []Rule{
		// Nested loops
		{
			Pattern:    rxs(`for\s+\w+\s+in\s+.*:\s*\n\s+for\s+\w+\s+in`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "Nested loops detected - O(n²) complexity",
			Suggestion: "Consider using hash maps, sets, or optimizing the algorithm",
		},
		{
			Pattern:    rxs(`for\s*\([^)]+\)\s*\{[^}]*for\s*\(`),
			Language:   "javascript",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "Nested loops detected - O(n²) complexity",
			Suggestion: "Consider using Map, Set, or optimizing the algorithm",
		},
		{
			Pattern:    rxs(`for.*:\s*\n\s+for.*:\s*\n\s+for`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityHigh,
			Message:    "Triple nested loops - O(n³) complexity - CRITICAL",
			Suggestion: "Refactor algorithm - this will be extremely slow for large inputs",
		},
		// Accumulation in loops
		{
			Pattern:    rxs(`for\s+\w+\s+in\s+.*:\s*\n\s+.*\.append\(`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityLow,
			Message:    "List append in loop - consider list comprehension",
			Suggestion: "Use list comprehension for better performance",
		},
		{
			Pattern:    rxs(`for\s+.*:\s*\n\s+\w+\s*\+=\s*["']`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "String concatenation in loop - use join() instead",
			Suggestion: `Use "".join(list) for O(n) instead of O(n²)`,
		},
		{
			Pattern:    rxs(`for\s*\([^)]+\)\s*\{[^}]*\w+\s*\+=\s*["']`),
			Language:   "javascript",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "String concatenation in loop - use array.join()",
			Suggestion: "Push to array and use join() for better performance",
		},
		// Expensive list and array operations
		{
			Pattern:    rxs(`\.pop\(0\)|\.insert\(0,`),
			Language:   "python",
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "O(n) operation on list - consider using deque",
			Suggestion: "Use collections.deque for O(1) operations at both ends",
		},
		{
			Pattern:    rxs(`\.shift\(\)|\.unshift\(`),
			Language:   "javascript",
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityLow,
			Message:    "O(n) operation on array - expensive for large arrays",
			Suggestion: "Consider using a different data structure if frequent",
		},
		{
			Pattern:    rxs(`for\s+\w+\s+in\s+range\(len\(\w+\)\):\s*\n\s+.*\w+\[`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityLow,
			Message:    "Repeated len() call in loop",
			Suggestion: "Cache len() result or iterate directly over the list",
		},
		// I/O and queries in loops
		{
			Pattern:    rxs(`for\s+.*:\s*\n\s+.*\.(?:execute|query|get|filter)\(`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityHigh,
			Message:    "Database query in loop - N+1 query problem",
			Suggestion: "Use bulk operations or prefetch data before loop",
		},
		{
			Pattern:    rxs(`for\s+.*:\s*\n\s+.*re\.(?:match|search|findall)\(`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "Regex operation in loop - compile pattern outside loop",
			Suggestion: "Use re.compile() before the loop for better performance",
		},
		{
			Pattern:    rxs(`for\s+.*:\s*\n\s+.*open\(`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityHigh,
			Message:    "File open in loop - expensive I/O operation",
			Suggestion: "Open file once before loop or batch operations",
		},
		{
			Pattern:    rxs(`for\s+.*:\s*\n\s+.*global\s+`),
			Language:   "python",
			Multiline:  true,
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityLow,
			Message:    "Global variable access in loop - slower than local",
			Suggestion: "Cache global variables in local scope before loop",
		},
		// Lookups and copies
		{
			Pattern:    rxs(`if\s+\w+\s+in\s+\[`),
			Language:   "python",
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityLow,
			Message:    "Linear search in list - O(n) lookup",
			Suggestion: "Use set for O(1) lookup if checking membership frequently",
		},
		{
			Pattern:    rxs(`sorted\(.*,\s*key=lambda`),
			Language:   "python",
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityInfo,
			Message:    "Lambda in sort key - consider using operator.itemgetter",
			Suggestion: "operator.itemgetter is faster than lambda for simple cases",
		},
		{
			Pattern:    rxs(`\.read\(\)|\.readlines\(\)`),
			Language:   "python",
			Kind:       domain.KindPerformance,
			Severity:   domain.SeverityMedium,
			Message:    "Reading entire file into memory",
			Suggestion: "Iterate over the file or read in chunks for large files",
		},
	}
}
