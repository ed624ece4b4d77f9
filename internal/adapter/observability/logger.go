// Package observability bridges the shared structured logger to the
// usecase logger ports, so the orchestrator, analyzer pipeline and
// interaction router log through the same infrastructure as the HTTP
// clients.
package observability

import (
	"context"

	llmhttp "github.com/hathansen/pr-review-bot/internal/adapter/llm/http"
	"github.com/hathansen/pr-review-bot/internal/config"
)

// UsecaseLogger satisfies the review, pipeline and interact Logger
// interfaces by delegating to an llmhttp.Logger.
type UsecaseLogger struct {
	logger llmhttp.Logger
}

// NewUsecaseLogger wraps a structured logger.
func NewUsecaseLogger(logger llmhttp.Logger) *UsecaseLogger {
	return &UsecaseLogger{logger: logger}
}

// FromConfig builds the logger the configuration asks for.
func FromConfig(cfg config.LoggingConfig) *UsecaseLogger {
	base := llmhttp.NewDefaultLogger(
		llmhttp.ParseLogLevel(cfg.Level),
		llmhttp.ParseLogFormat(cfg.Format),
		cfg.RedactAPIKeys,
	)
	return NewUsecaseLogger(base)
}

// LogWarning logs a warning with structured fields.
func (l *UsecaseLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *UsecaseLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}
