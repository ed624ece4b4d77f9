package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// FileChange describes one changed file in a pull request or branch diff.
type FileChange struct {
	Filename  string
	Status    string
	Patch     string
	Additions int
	Deletions int
}

// IssueKind categorizes what an issue is about.
type IssueKind string

const (
	KindBug         IssueKind = "bug"
	KindSecurity    IssueKind = "security"
	KindQuality     IssueKind = "quality"
	KindPerformance IssueKind = "performance"
)

// AutoFix carries a machine-generated replacement for the offending code.
type AutoFix struct {
	Original    string `json:"original"`
	Fixed       string `json:"fixed"`
	Description string `json:"description"`
}

// DocLink points at reference documentation relevant to an issue.
type DocLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Issue represents a single problem detected by an analyzer or by the
// remote analysis service. Line is the new-file line number, 0 when the
// analyzer could not attribute the issue to a line.
type Issue struct {
	Kind       IssueKind `json:"type"`
	Severity   Severity  `json:"severity"`
	Line       int       `json:"line,omitempty"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Snippet    string    `json:"code_snippet,omitempty"`
	Source     string    `json:"source,omitempty"`
	CWE        string    `json:"cwe,omitempty"`
	AutoFix    *AutoFix  `json:"auto_fix,omitempty"`
	DocLinks   []DocLink `json:"doc_links,omitempty"`
}

// Fingerprint returns a deterministic identifier for the issue, used for
// de-duplication and persistence.
func (i Issue) Fingerprint() string {
	payload := fmt.Sprintf("%s|%s|%d|%s|%s",
		i.Kind, i.Severity, i.Line, i.Message, i.Source)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// DetectLanguage maps a filename extension to a language identifier used
// by analyzer rule tables. Unknown extensions map to "unknown".
func DetectLanguage(filename string) string {
	for ext, lang := range extensionLanguages {
		if strings.HasSuffix(filename, ext) {
			return lang
		}
	}
	return "unknown"
}

var extensionLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "javascript",
	".jsx":   "javascript",
	".tsx":   "javascript",
	".java":  "java",
	".go":    "go",
	".rb":    "ruby",
	".php":   "php",
	".c":     "c",
	".cpp":   "cpp",
	".cs":    "csharp",
	".rs":    "rust",
	".swift": "swift",
	".kt":    "kotlin",
}
