// Package sarif exports review results in SARIF 2.1.0 so CI systems
// and code-scanning dashboards can ingest them.
package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hathansen/pr-review-bot/internal/domain"
	"github.com/hathansen/pr-review-bot/internal/usecase/review"
)

const toolName = "pr-review-bot"

// Writer renders review results as a SARIF document.
type Writer struct {
	path string
}

// NewWriter writes the document to the given path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write persists the result and returns the file path.
func (w *Writer) Write(ctx context.Context, result review.Result) (string, error) {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(w.path)
	if err != nil {
		return "", fmt.Errorf("failed to create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(convert(result)); err != nil {
		return "", fmt.Errorf("failed to encode sarif: %w", err)
	}
	return w.path, nil
}

func convert(result review.Result) map[string]interface{} {
	var results []map[string]interface{}
	for _, file := range result.Files {
		for _, issue := range file.Issues {
			results = append(results, convertIssue(file.Filename, issue))
		}
	}
	if results == nil {
		results = []map[string]interface{}{}
	}

	return map[string]interface{}{
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"version": "2.1.0",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":           toolName,
						"informationUri": "https://github.com/hathansen/pr-review-bot",
					},
				},
				"results": results,
			},
		},
	}
}

func convertIssue(filename string, issue domain.Issue) map[string]interface{} {
	message := issue.Message
	if message == "" {
		message = "No description provided"
	}

	ruleID := issue.Source
	if issue.CWE != "" {
		ruleID = issue.CWE
	}
	if ruleID == "" {
		ruleID = string(issue.Kind)
	}

	out := map[string]interface{}{
		"ruleId":  ruleID,
		"level":   convertSeverity(issue.Severity),
		"message": map[string]interface{}{"text": message},
	}

	location := map[string]interface{}{
		"artifactLocation": map[string]interface{}{"uri": filename},
	}
	// SARIF regions are 1-based; omit the region rather than fabricate
	// a line for unattributed issues.
	if issue.Line >= 1 {
		location["region"] = map[string]interface{}{"startLine": issue.Line}
	}
	out["locations"] = []map[string]interface{}{
		{"physicalLocation": location},
	}
	return out
}

// convertSeverity maps severities onto SARIF's three levels plus note.
func convertSeverity(sev domain.Severity) string {
	switch sev {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
