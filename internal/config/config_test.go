package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hathansen/pr-review-bot/internal/config"
)

func TestMergeOverlayWins(t *testing.T) {
	base := config.Config{
		GitHub: config.GitHubConfig{Owner: "acme", Repo: "widget", Token: "base-token"},
		Review: config.ReviewConfig{
			SeverityThreshold: "low",
			MaxComments:       50,
			IgnorePatterns:    []string{"*.md"},
			Analyzers:         map[string]bool{"bugs": true},
		},
		Logging: config.LoggingConfig{Level: "info", Format: "human"},
	}
	overlay := config.Config{
		GitHub: config.GitHubConfig{Token: "repo-token"},
		Review: config.ReviewConfig{
			SeverityThreshold: "high",
			Analyzers:         map[string]bool{"duplication": false},
		},
		Logging: config.LoggingConfig{Level: "debug"},
	}

	merged := config.Merge(base, overlay)

	assert.Equal(t, "repo-token", merged.GitHub.Token)
	assert.Equal(t, "acme", merged.GitHub.Owner, "unset overlay fields keep base values")
	assert.Equal(t, "high", merged.Review.SeverityThreshold)
	assert.Equal(t, 50, merged.Review.MaxComments)
	assert.Equal(t, []string{"*.md"}, merged.Review.IgnorePatterns)
	assert.Equal(t, "debug", merged.Logging.Level)
	assert.Equal(t, "human", merged.Logging.Format)

	// Analyzer toggles merge per name rather than replacing the map.
	assert.Equal(t, map[string]bool{"bugs": true, "duplication": false}, merged.Review.Analyzers)
}

func TestMergeSingleConfig(t *testing.T) {
	cfg := config.Config{Bot: config.BotConfig{Handle: "@bot"}}

	assert.Equal(t, cfg, config.Merge(cfg))
}

func TestMergeThreeLayers(t *testing.T) {
	first := config.Config{Output: config.OutputConfig{Directory: "a"}}
	second := config.Config{Output: config.OutputConfig{Directory: "b"}}
	third := config.Config{Output: config.OutputConfig{SARIFPath: "out.sarif"}}

	merged := config.Merge(first, second, third)

	assert.Equal(t, "b", merged.Output.Directory)
	assert.Equal(t, "out.sarif", merged.Output.SARIFPath)
}
