package diff

import (
	"regexp"
	"strings"
)

// Stats summarizes the size of a patch.
type Stats struct {
	Additions int
	Deletions int
}

// Changes returns the total number of changed lines.
func (s Stats) Changes() int {
	return s.Additions + s.Deletions
}

// Complexity grades how involved a change is.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ChangedFunction is a function or method declaration introduced by a
// patch.
type ChangedFunction struct {
	Name string
	Line int
}

// Declaration shapes per language, applied to added lines with the '+'
// prefix stripped.
var functionPatterns = map[string]*regexp.Regexp{
	"python":     regexp.MustCompile(`^\s*def\s+(\w+)\s*\(`),
	"javascript": regexp.MustCompile(`^\s*(?:function\s+(\w+)|const\s+(\w+)\s*=\s*(?:async\s*)?\()`),
	"java":       regexp.MustCompile(`^\s*(?:public|private|protected)?\s*\w+\s+(\w+)\s*\(`),
	"go":         regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*\(`),
}

const (
	significantChanges = 50
	significantPerSide = 10
)

// GetStats counts added and deleted lines, excluding the +++/--- file
// headers.
func GetStats(patch string) Stats {
	var s Stats
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			s.Additions++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			s.Deletions++
		}
	}
	return s
}

// ChangedFunctions extracts function declarations introduced by the
// patch. The reported line number is the new-file line of the added
// declaration. Languages without a registered pattern fall back to the
// python shape.
func ChangedFunctions(patch, language string) []ChangedFunction {
	if patch == "" {
		return nil
	}

	pattern, ok := functionPatterns[language]
	if !ok {
		pattern = functionPatterns["python"]
	}

	var funcs []ChangedFunction
	currentLine := 0

	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				currentLine = atoiOrZero(m[1]) - 1
			}
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			currentLine++
			if m := pattern.FindStringSubmatch(line[1:]); m != nil {
				funcs = append(funcs, ChangedFunction{Name: firstGroup(m), Line: currentLine})
			}
		case strings.HasPrefix(line, " "):
			currentLine++
		}
	}

	return funcs
}

// IsSignificant reports whether a patch warrants full analysis: a large
// total change, many lines on either side, a new function declaration,
// or a deletion-heavy refactor.
func IsSignificant(patch, language string) bool {
	if patch == "" {
		return false
	}

	stats := GetStats(patch)
	if stats.Changes() > significantChanges {
		return true
	}
	if stats.Additions > significantPerSide || stats.Deletions > significantPerSide {
		return true
	}
	if stats.Deletions > stats.Additions*2 {
		return true
	}
	return len(ChangedFunctions(patch, language)) > 0
}

// ChangeComplexity scores a patch by size, introduced declarations, and
// refactor shape.
func ChangeComplexity(patch, language string) Complexity {
	if patch == "" {
		return ComplexityLow
	}

	stats := GetStats(patch)
	funcs := ChangedFunctions(patch, language)

	score := float64(stats.Changes()) / 10
	if score > 5 {
		score = 5
	}
	score += float64(len(funcs)) * 2

	if stats.Deletions > stats.Additions*2 {
		score += 2
	}

	switch {
	case score < 3:
		return ComplexityLow
	case score < 7:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
