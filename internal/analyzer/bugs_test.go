package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

func messagesOf(issues []domain.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Message)
	}
	return out
}

func TestBugDetectorPython(t *testing.T) {
	content := "try:\n" +
		"    x = compute()\n" +
		"except:\n" +
		"    pass\n" +
		"if x == None:\n" +
		"    print(x)\n"

	issues, err := NewBugDetector().Detect(content, "main.py")

	require.NoError(t, err)
	msgs := messagesOf(issues)
	assert.Contains(t, msgs, "Bare except clause catches all exceptions, including system exits")
	assert.Contains(t, msgs, `Use "is None" instead of "== None" for None comparisons`)

	for _, issue := range issues {
		assert.Equal(t, "bugs", issue.Source)
		assert.Equal(t, domain.KindBug, issue.Kind)
	}
}

func TestBugDetectorNamedExceptNotFlagged(t *testing.T) {
	issues, err := NewBugDetector().Detect("except ValueError:\n    raise\n", "main.py")

	require.NoError(t, err)
	assert.NotContains(t, messagesOf(issues), "Bare except clause catches all exceptions, including system exits")
}

func TestBugDetectorInfiniteLoop(t *testing.T) {
	detector := NewBugDetector()

	flagged, err := detector.Detect("while True:\n    spin()\n", "main.py")
	require.NoError(t, err)
	assert.Contains(t, messagesOf(flagged), "Potential infinite loop without break statement")

	clean, err := detector.Detect("while True: break\n", "main.py")
	require.NoError(t, err)
	assert.NotContains(t, messagesOf(clean), "Potential infinite loop without break statement")
}

func TestBugDetectorJavaScript(t *testing.T) {
	content := "var count = 0;\n" +
		"debugger;\n" +
		"console.log(count);\n"

	issues, err := NewBugDetector().Detect(content, "app.js")

	require.NoError(t, err)
	msgs := messagesOf(issues)
	assert.Contains(t, msgs, "Use let or const instead of var")
	assert.Contains(t, msgs, "Debugger statement found")
	assert.Contains(t, msgs, "Console.log statement found - should be removed in production")
}

func TestBugDetectorRulesDoNotApplyAcrossLanguages(t *testing.T) {
	issues, err := NewBugDetector().Detect("var x = 1;\n", "main.py")

	require.NoError(t, err)
	assert.NotContains(t, messagesOf(issues), "Use let or const instead of var")
}
