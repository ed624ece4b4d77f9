// Package json writes the machine-readable results document of a
// review run, consumed by CI steps after the bot finishes.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

const defaultFilename = "analysis-results.json"

// Writer implements the result writer port of the review orchestrator.
type Writer struct {
	dir      string
	filename string
}

// NewWriter writes results into dir. An empty dir means the current
// working directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, filename: defaultFilename}
}

// WriteResults persists the run result and returns the file path.
func (w *Writer) WriteResults(ctx context.Context, result review.Result) (string, error) {
	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := filepath.Join(w.dir, w.filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return path, nil
}
