package sarif_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hathansen/pr-review-bot/internal/adapter/output/sarif"
	"github.com/hathansen/pr-review-bot/internal/domain"
	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

func writeAndDecode(t *testing.T, result review.Result) map[string]interface{} {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.sarif")

	got, err := sarif.NewWriter(path).Write(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestWriteProducesValidDocument(t *testing.T) {
	doc := writeAndDecode(t, review.Result{
		PR: 1,
		Files: []review.FileAnalysis{{
			Filename: "app.py",
			Issues: []domain.Issue{
				{Kind: domain.KindSecurity, Severity: domain.SeverityCritical, Line: 4, Message: "eval on user input", CWE: "CWE-95"},
				{Kind: domain.KindQuality, Severity: domain.SeverityInfo, Message: "file level note", Source: "bugs"},
			},
		}},
	})

	assert.Equal(t, "2.1.0", doc["version"])

	runs := doc["runs"].([]interface{})
	require.Len(t, runs, 1)
	results := runs[0].(map[string]interface{})["results"].([]interface{})
	require.Len(t, results, 2)

	first := results[0].(map[string]interface{})
	assert.Equal(t, "CWE-95", first["ruleId"])
	assert.Equal(t, "error", first["level"])

	location := first["locations"].([]interface{})[0].(map[string]interface{})
	physical := location["physicalLocation"].(map[string]interface{})
	region := physical["region"].(map[string]interface{})
	assert.Equal(t, float64(4), region["startLine"])

	// Unattributed issues carry no region.
	second := results[1].(map[string]interface{})
	assert.Equal(t, "bugs", second["ruleId"])
	assert.Equal(t, "note", second["level"])
	secondLoc := second["locations"].([]interface{})[0].(map[string]interface{})
	secondPhys := secondLoc["physicalLocation"].(map[string]interface{})
	assert.NotContains(t, secondPhys, "region")
}

func TestWriteEmptyRunHasEmptyResults(t *testing.T) {
	doc := writeAndDecode(t, review.Result{PR: 2})

	runs := doc["runs"].([]interface{})
	results := runs[0].(map[string]interface{})["results"].([]interface{})
	assert.Empty(t, results)
}
