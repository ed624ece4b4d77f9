package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger provides structured logging for calls to the inference service.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)

	// LogInfo and LogWarning log free-form events with structured fields,
	// used by the pipeline and the command router.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Provider    string
	Operation   string
	Timestamp   time.Time
	PromptChars int
	APIKey      string // Redacted to last 4 chars
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Provider      string
	Operation     string
	Timestamp     time.Time
	Duration      time.Duration
	ResponseChars int
	StatusCode    int
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Provider   string
	Operation  string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// ParseLogLevel maps a config string to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// ParseLogFormat maps a config string to a LogFormat, defaulting to human.
func ParseLogFormat(s string) LogFormat {
	if strings.ToLower(s) == "json" {
		return LogFormatJSON
	}
	return LogFormatHuman
}

// DefaultLogger writes logs in structured format to stderr via the
// standard logger.
type DefaultLogger struct {
	level      LogLevel
	redactKeys bool
	format     LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{
		level:      level,
		redactKeys: redactKeys,
		format:     format,
	}
}

// LogRequest logs an API request.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	redacted := l.RedactAPIKey(req.APIKey)

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","provider":"%s","operation":"%s","timestamp":"%s","prompt_chars":%d,"api_key":"%s"}`,
			req.Provider, req.Operation, req.Timestamp.Format(time.RFC3339),
			req.PromptChars, redacted)
	} else {
		log.Printf("[DEBUG] %s/%s: request sent (prompt=%d chars, key=%s)",
			req.Provider, req.Operation, req.PromptChars, redacted)
	}
}

// LogResponse logs an API response.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","provider":"%s","operation":"%s","timestamp":"%s","duration_ms":%d,"response_chars":%d,"status_code":%d}`,
			resp.Provider, resp.Operation, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.ResponseChars, resp.StatusCode)
	} else {
		log.Printf("[INFO] %s/%s: response received (duration=%.1fs, %d chars)",
			resp.Provider, resp.Operation, resp.Duration.Seconds(), resp.ResponseChars)
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, err ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	retryableStr := "non-retryable"
	if err.Retryable {
		retryableStr = "retryable"
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","provider":"%s","operation":"%s","timestamp":"%s","duration_ms":%d,"error":%q,"error_type":%d,"status_code":%d,"retryable":%t}`,
			err.Provider, err.Operation, err.Timestamp.Format(time.RFC3339),
			err.Duration.Milliseconds(), err.Error.Error(), err.ErrorType,
			err.StatusCode, err.Retryable)
	} else {
		log.Printf("[ERROR] %s/%s: call failed (status=%d, %s): %v",
			err.Provider, err.Operation, err.StatusCode, retryableStr, err.Error)
	}
}

// LogInfo logs an informational event with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logEvent("info", message, fields)
}

// LogWarning logs a warning event with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelError {
		return
	}
	l.logEvent("warning", message, fields)
}

func (l *DefaultLogger) logEvent(level, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		payload := map[string]interface{}{"level": level, "message": message}
		for k, v := range fields {
			payload[k] = v
		}
		if data, err := json.Marshal(payload); err == nil {
			log.Print(string(data))
			return
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, fields[k])
	}
	log.Printf("[%s] %s%s", strings.ToUpper(level), message, sb.String())
}

// RedactAPIKey shows only the last 4 characters of an API key with
// explicit redaction markers.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}

// NopLogger discards all log output. Useful in tests.
type NopLogger struct{}

func (NopLogger) LogRequest(context.Context, RequestLog)                          {}
func (NopLogger) LogResponse(context.Context, ResponseLog)                        {}
func (NopLogger) LogError(context.Context, ErrorLog)                              {}
func (NopLogger) LogInfo(context.Context, string, map[string]interface{})         {}
func (NopLogger) LogWarning(context.Context, string, map[string]interface{})      {}
