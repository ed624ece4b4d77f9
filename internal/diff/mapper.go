package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// LineKind classifies a line of a unified diff.
type LineKind int

const (
	// Addition is a line present only in the new file (prefix '+').
	Addition LineKind = iota
	// Deletion is a line removed from the old file (prefix '-').
	Deletion
	// Context is an unchanged line (prefix ' ').
	Context
)

// String returns the lower-case name of the kind.
func (k LineKind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	case Context:
		return "context"
	default:
		return "unknown"
	}
}

// LineChange attributes one diff line to a new-file line number.
// For deletions, Line is the new-file line immediately after the
// deletion point.
type LineChange struct {
	Line int
	Kind LineKind
}

// hunkHeaderRe matches "@@ -oldStart[,oldCount] +newStart[,newCount] @@".
var hunkHeaderRe = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// MapPatch parses a unified-diff patch into an ordered list of line
// changes. Each hunk header resets the running line counter to the
// hunk's new-file start; malformed headers leave the counter untouched.
func MapPatch(patch string) []LineChange {
	if patch == "" {
		return nil
	}

	var changes []LineChange
	currentLine := 0

	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
				newStart, err := strconv.Atoi(m[1])
				if err == nil {
					// Incremented before first use.
					currentLine = newStart - 1
				}
			}
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			currentLine++
			changes = append(changes, LineChange{Line: currentLine, Kind: Addition})
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			// The line was removed, so no new-file line is consumed.
			changes = append(changes, LineChange{Line: currentLine + 1, Kind: Deletion})
		case strings.HasPrefix(line, " "):
			currentLine++
			changes = append(changes, LineChange{Line: currentLine, Kind: Context})
		}
	}

	return changes
}

// ChangedLines returns the new-file line numbers of all additions and
// deletions in the patch, in patch order.
func ChangedLines(patch string) []LineChange {
	var changed []LineChange
	for _, c := range MapPatch(patch) {
		if c.Kind != Context {
			changed = append(changed, c)
		}
	}
	return changed
}
