package json_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonout "github.com/hathansen/pr-review-bot/internal/adapter/output/json"
	"github.com/hathansen/pr-review-bot/internal/domain"
	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()
	writer := jsonout.NewWriter(dir)

	result := review.Result{
		PR:          42,
		TotalFiles:  1,
		TotalIssues: 1,
		Files: []review.FileAnalysis{{
			Filename: "app.py",
			Issues: []domain.Issue{{
				Kind:     domain.KindBug,
				Severity: domain.SeverityMedium,
				Line:     3,
				Message:  "bare except",
			}},
			Summary: "One bug",
		}},
	}

	path, err := writer.WriteResults(context.Background(), result)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "analysis-results.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(42), decoded["pr_number"])

	files := decoded["file_analyses"].([]interface{})
	require.Len(t, files, 1)
	file := files[0].(map[string]interface{})
	assert.Equal(t, "app.py", file["filename"])
}

func TestWriteResultsCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	writer := jsonout.NewWriter(dir)

	path, err := writer.WriteResults(context.Background(), review.Result{PR: 1})

	require.NoError(t, err)
	assert.FileExists(t, path)
}
