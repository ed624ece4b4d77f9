package blackbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/hathansen/pr-review-bot/internal/adapter/llm/http"
)

const validBody = "The change looks correct overall, but watch the unchecked error return on line 42 and add a test for the empty-input path."

func fastRetry() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
		RateLimitWait:  time.Millisecond,
	}
}

func newTestClient(url string) *Client {
	return NewClient("test-key",
		WithBaseURL(url),
		WithMinInterval(0),
		WithRetryConfig(fastRetry()),
	)
}

func TestCallReturnsResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	got := newTestClient(server.URL).Call(context.Background(), "review this")

	assert.Equal(t, validBody, got)
}

func TestCallReturnsEmptySentinelAfterExhaustedRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	got := newTestClient(server.URL).Call(context.Background(), "review this")

	assert.Empty(t, got)
	assert.Equal(t, 3, attempts, "initial attempt plus two retries")
}

func TestCallRetriesAfterRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	got := newTestClient(server.URL).Call(context.Background(), "review this")

	assert.Equal(t, validBody, got)
	assert.Equal(t, 2, attempts)
}

func TestCallTreatsLoginPageAsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100) + "Login to continue" + strings.Repeat("y", 100)))
	}))
	defer server.Close()

	got := newTestClient(server.URL).Call(context.Background(), "review this")

	assert.Empty(t, got)
}

func TestCallTreatsShortBodyAsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	got := newTestClient(server.URL).Call(context.Background(), "review this")

	assert.Empty(t, got)
}

func TestCallDoesNotRetryAuthenticationFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	got := newTestClient(server.URL).Call(context.Background(), "review this")

	assert.Empty(t, got)
	assert.Equal(t, 1, attempts)
}

func TestCallRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	metrics := llmhttp.NewDefaultMetrics()
	client := NewClient("test-key",
		WithBaseURL(server.URL),
		WithMinInterval(0),
		WithRetryConfig(fastRetry()),
		WithMetrics(metrics),
	)

	client.Call(context.Background(), "review this")
	client.Call(context.Background(), "review this again")

	stats := metrics.GetStats()
	assert.Equal(t, 2, stats.TotalRequests)
	assert.Zero(t, stats.ErrorCount)
}

func TestTemplatedOperationsShareCallPath(t *testing.T) {
	var prompts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, decodeJSON(r, &req))
		require.Len(t, req.Messages, 1)
		prompts = append(prompts, req.Messages[0].Content)
		_, _ = w.Write([]byte(validBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	client.AnalyzeDiff(ctx, "+x = 1", "PR: add x")
	client.ExplainCode(ctx, "def f(): pass", "python")
	client.CheckSecurity(ctx, "eval(input())", "python")
	client.SuggestImprovements(ctx, "for i in range(10): s += str(i)", "python")
	client.ReviewFile(ctx, "main.py", "PR: add x", "x = 1")

	require.Len(t, prompts, 5)
	assert.Contains(t, prompts[0], "Analyze this code diff")
	assert.Contains(t, prompts[0], "PR: add x")
	assert.Contains(t, prompts[1], "Explain what this python code does")
	assert.Contains(t, prompts[2], "security analysis")
	assert.Contains(t, prompts[3], "Suggest improvements")
	assert.Contains(t, prompts[4], "File: main.py")
	assert.Contains(t, prompts[4], `"issues"`)
}
