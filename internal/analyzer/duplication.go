package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

const (
	minDuplicateLines   = 5
	similarityThreshold = 0.85
)

// DuplicationDetector finds near-identical code blocks within a file
// and across the files seen earlier in the same run. It keeps a cache
// of blocks per file, so one instance must be shared across the run
// and a fresh instance used per run.
type DuplicationDetector struct {
	mu     sync.Mutex
	blocks map[string][]codeBlock
	dmp    *diffmatchpatch.DiffMatchPatch
}

func NewDuplicationDetector() *DuplicationDetector {
	return &DuplicationDetector{
		blocks: make(map[string][]codeBlock),
		dmp:    diffmatchpatch.New(),
	}
}

func (d *DuplicationDetector) Name() string { return "duplication" }

type codeBlock struct {
	startLine int
	endLine   int
	code      string
	normal    string
}

func (d *DuplicationDetector) Detect(content, filename string) ([]domain.Issue, error) {
	blocks := d.extractBlocks(content, filename)

	d.mu.Lock()
	defer d.mu.Unlock()

	issues := d.internalDuplicates(blocks)
	issues = append(issues, d.crossFileDuplicates(blocks, filename)...)
	d.blocks[filename] = blocks
	return issues, nil
}

func (d *DuplicationDetector) internalDuplicates(blocks []codeBlock) []domain.Issue {
	var issues []domain.Issue
	for i, b1 := range blocks {
		for _, b2 := range blocks[i+1:] {
			// Overlapping regions trivially resemble each other.
			if b2.startLine <= b1.endLine && b1.startLine <= b2.endLine {
				continue
			}
			sim := d.similarity(b1, b2)
			if sim < similarityThreshold {
				continue
			}
			issues = append(issues, domain.Issue{
				Kind:       domain.KindQuality,
				Severity:   domain.SeverityMedium,
				Line:       b1.startLine,
				Message:    fmt.Sprintf("Duplicate code detected (%d%% similar to lines %d-%d)", int(sim*100), b2.startLine, b2.endLine),
				Suggestion: "Extract common code into a reusable function",
				Snippet:    snippet(b1.code),
				Source:     d.Name(),
			})
		}
	}
	return issues
}

func (d *DuplicationDetector) crossFileDuplicates(blocks []codeBlock, current string) []domain.Issue {
	var issues []domain.Issue
	for filename, cached := range d.blocks {
		if filename == current {
			continue
		}
		for _, b1 := range blocks {
			for _, b2 := range cached {
				sim := d.similarity(b1, b2)
				if sim < similarityThreshold {
					continue
				}
				issues = append(issues, domain.Issue{
					Kind:       domain.KindQuality,
					Severity:   domain.SeverityHigh,
					Line:       b1.startLine,
					Message:    fmt.Sprintf("Duplicate code found in %s (%d%% similar to lines %d-%d)", filename, int(sim*100), b2.startLine, b2.endLine),
					Suggestion: "Extract common code into a shared module or utility",
					Snippet:    snippet(b1.code),
					Source:     d.Name(),
				})
			}
		}
	}
	return issues
}

// similarity compares normalized block text and returns a 0..1 ratio,
// computed from the Levenshtein distance of the character diff.
func (d *DuplicationDetector) similarity(a, b codeBlock) float64 {
	longest := len(a.normal)
	if len(b.normal) > longest {
		longest = len(b.normal)
	}
	if longest == 0 {
		return 0
	}
	diffs := d.dmp.DiffMain(a.normal, b.normal, false)
	distance := d.dmp.DiffLevenshtein(diffs)
	return 1 - float64(distance)/float64(longest)
}

// extractBlocks slices the file into candidate blocks: whole functions
// where the language is recognized, plus fixed-size sliding windows so
// duplicated fragments inside larger functions still surface.
func (d *DuplicationDetector) extractBlocks(content, filename string) []codeBlock {
	lines := strings.Split(content, "\n")

	var blocks []codeBlock
	switch domain.DetectLanguage(filename) {
	case "python":
		for _, fn := range extractPythonFunctions(content) {
			code := fn.code
			n := strings.Count(code, "\n") + 1
			if n < minDuplicateLines {
				continue
			}
			blocks = append(blocks, newBlock(fn.startLine, fn.startLine+n-1, code))
		}
	case "javascript":
		for _, fn := range extractBraceFunctions(content) {
			code := fn.code
			n := strings.Count(code, "\n") + 1
			if n < minDuplicateLines {
				continue
			}
			blocks = append(blocks, newBlock(fn.startLine, fn.startLine+n-1, code))
		}
	}

	blocks = append(blocks, slidingWindows(lines)...)
	return blocks
}

func slidingWindows(lines []string) []codeBlock {
	var blocks []codeBlock
	for i := 0; i+minDuplicateLines <= len(lines); i++ {
		window := lines[i : i+minDuplicateLines]

		nonEmpty := 0
		for _, l := range window {
			t := strings.TrimSpace(l)
			if t != "" && !strings.HasPrefix(t, "#") && !strings.HasPrefix(t, "//") {
				nonEmpty++
			}
		}
		if nonEmpty < minDuplicateLines/2 {
			continue
		}

		blocks = append(blocks, newBlock(i+1, i+minDuplicateLines, strings.Join(window, "\n")))
	}
	return blocks
}

func newBlock(start, end int, code string) codeBlock {
	return codeBlock{
		startLine: start,
		endLine:   end,
		code:      code,
		normal:    normalizeCode(code),
	}
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)(#|//).*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	identifierRe   = regexp.MustCompile(`(?i)\b[a-z_][a-z0-9_]*\b`)
)

// normalizeCode strips comments and whitespace and collapses
// identifiers to a placeholder so renamed copies still compare equal.
func normalizeCode(code string) string {
	code = blockCommentRe.ReplaceAllString(code, "")
	code = lineCommentRe.ReplaceAllString(code, "")
	code = whitespaceRe.ReplaceAllString(code, " ")
	code = identifierRe.ReplaceAllString(code, "VAR")
	return strings.TrimSpace(code)
}

func snippet(code string) string {
	if len(code) > snippetLimit {
		return code[:snippetLimit]
	}
	return code
}
