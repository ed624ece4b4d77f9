// Package blackbox implements the resilient client for the Blackbox
// inference service: one synchronous text-completion call wrapped in
// rate limiting, retry with backoff, and fail-open semantics.
package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	llmhttp "github.com/hathansen/pr-review-bot/internal/adapter/llm/http"
)

const (
	defaultBaseURL     = "https://www.blackbox.ai/api/chat"
	defaultTimeout     = 60 * time.Second
	defaultMinInterval = 500 * time.Millisecond
	defaultMaxTokens   = 1024

	// Responses shorter than this carry no usable analysis.
	minValidResponse = 50

	// The endpoint sometimes answers 200 with an HTML login page
	// instead of an analysis. Such a body is as useless as a 5xx.
	loginMarker = "Login to continue"

	providerName = "blackbox"
)

// Client is the resilient synchronous client for the inference service.
// A single instance serializes its rate-limit schedule across all
// callers, so it is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	limiter    *llmhttp.RateLimiter
	retryConf  llmhttp.RetryConfig
	logger     llmhttp.Logger
	metrics    llmhttp.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL sets a custom endpoint URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithRetryConfig overrides the retry settings.
func WithRetryConfig(conf llmhttp.RetryConfig) Option {
	return func(c *Client) { c.retryConf = conf }
}

// WithMinInterval sets the minimum interval between call starts.
func WithMinInterval(interval time.Duration) Option {
	return func(c *Client) { c.limiter = llmhttp.NewRateLimiter(interval) }
}

// WithLogger sets the structured logger.
func WithLogger(logger llmhttp.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics llmhttp.Metrics) Option {
	return func(c *Client) { c.metrics = metrics }
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    llmhttp.NewRateLimiter(defaultMinInterval),
		retryConf:  llmhttp.DefaultRetryConfig(),
		logger:     llmhttp.NopLogger{},
		metrics:    llmhttp.NopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends one prompt to the inference service and returns the
// response text. It blocks on the rate limiter, retries transient
// failures, and returns the empty string once all attempts are
// exhausted; callers must treat an empty response as "service
// unavailable, fall back to local-only behavior".
func (c *Client) Call(ctx context.Context, prompt string) string {
	c.limiter.Wait()

	start := time.Now()
	c.metrics.RecordRequest("call")
	c.logger.LogRequest(ctx, llmhttp.RequestLog{
		Provider:    providerName,
		Operation:   "call",
		Timestamp:   start,
		PromptChars: len(prompt),
		APIKey:      c.apiKey,
	})

	var response string
	operation := func(ctx context.Context) error {
		text, err := c.doRequest(ctx, prompt)
		if err != nil {
			return err
		}
		response = text
		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retryConf); err != nil {
		errType := llmhttp.ErrTypeUnknown
		status := 0
		retryable := false
		if e, ok := err.(*llmhttp.Error); ok {
			errType = e.Type
			status = e.StatusCode
			retryable = e.Retryable
		}
		c.metrics.RecordError("call", errType)
		c.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider:   providerName,
			Operation:  "call",
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			Error:      err,
			ErrorType:  errType,
			StatusCode: status,
			Retryable:  retryable,
		})
		// Fail open: the caller continues with local analysis only.
		return ""
	}

	c.metrics.RecordDuration("call", time.Since(start))
	c.logger.LogResponse(ctx, llmhttp.ResponseLog{
		Provider:      providerName,
		Operation:     "call",
		Timestamp:     time.Now(),
		Duration:      time.Since(start),
		ResponseChars: len(response),
		StatusCode:    http.StatusOK,
	})

	return response
}

// doRequest performs a single attempt against the endpoint.
func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Messages:      []chatMessage{{ID: "user-msg", Content: prompt, Role: "user"}},
		ID:            "chat-id",
		PreviewToken:  c.apiKey,
		CodeModelMode: true,
		MaxTokens:     c.maxTokens,
		Validated:     c.apiKey,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", llmhttp.NewInvalidRequestError(providerName, fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", llmhttp.NewInvalidRequestError(providerName, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", llmhttp.NewTimeoutError(providerName, "request timed out")
		}
		return "", llmhttp.NewTimeoutError(providerName, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llmhttp.NewServiceUnavailableError(providerName, fmt.Sprintf("read response: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp, data)
	}

	text := string(data)
	if len(text) < minValidResponse || strings.Contains(text, loginMarker) {
		return "", llmhttp.NewInvalidResponseError(providerName,
			fmt.Sprintf("unusable response body (%d chars)", len(text)))
	}

	return text, nil
}

// statusError maps a non-200 response to a typed error.
func (c *Client) statusError(resp *http.Response, body []byte) error {
	message := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return llmhttp.NewRateLimitError(providerName, message, parseRetryAfter(resp.Header.Get("Retry-After")))
	case http.StatusUnauthorized, http.StatusForbidden:
		return llmhttp.NewAuthenticationError(providerName, message)
	case http.StatusBadRequest:
		return llmhttp.NewInvalidRequestError(providerName, message)
	default:
		if resp.StatusCode >= 500 {
			return llmhttp.NewServiceUnavailableError(providerName, message)
		}
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: resp.StatusCode,
			Retryable:  false,
			Provider:   providerName,
		}
	}
}

// parseRetryAfter interprets a Retry-After header given in seconds.
// Unparseable values yield zero, which makes retry use the default wait.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
