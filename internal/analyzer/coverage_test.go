package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

func TestCoverageAnalyzerFlagsUntestedFunction(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	issues, err := analyzer.Detect("def parse_config(path):\n    return path\n", "config.py")

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, domain.KindQuality, issues[0].Kind)
	assert.Equal(t, domain.SeverityMedium, issues[0].Severity)
	assert.Equal(t, 1, issues[0].Line)
	assert.Contains(t, issues[0].Message, `"parse_config"`)
	require.NotNil(t, issues[0].AutoFix)
	assert.Contains(t, issues[0].AutoFix.Fixed, "def test_parse_config")
}

func TestCoverageAnalyzerTestFileSuppressesFinding(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	// Test files are indexed, not analyzed.
	issues, err := analyzer.Detect("def test_parse_config():\n    assert True\n", "test_config.py")
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = analyzer.Detect("def parse_config(path):\n    return path\n", "config.py")
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCoverageAnalyzerSkipsPrivateAndTestEntities(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	content := "def _helper():\n    pass\n\n" +
		"def test_something():\n    pass\n\n" +
		"class _Internal:\n    pass\n\n" +
		"class TestSuite:\n    pass\n"
	issues, err := analyzer.Detect(content, "util.py")

	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCoverageAnalyzerJavaScriptEntities(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	_, err := analyzer.Detect(`it('formatTotals handles zero items', () => {});`, "cart.test.js")
	require.NoError(t, err)

	content := "function formatTotals(items) {}\n" +
		"const applyDiscount = (cart) => cart;\n" +
		"class Cart {}\n"
	issues, err := analyzer.Detect(content, "cart.js")

	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, `"applyDiscount"`)
	assert.Contains(t, issues[1].Message, `"Cart"`)
}

func TestCoverageAnalyzerIgnoresOtherLanguages(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	issues, err := analyzer.Detect("func main() {}\n", "main.go")

	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestIsTestFile(t *testing.T) {
	assert.True(t, isTestFile("test_config.py"))
	assert.True(t, isTestFile("pkg/config_test.py"))
	assert.True(t, isTestFile("src/cart.test.js"))
	assert.True(t, isTestFile("src/cart.spec.ts"))
	assert.False(t, isTestFile("src/attestation.py"))
	assert.False(t, isTestFile("contest.js"))
}
