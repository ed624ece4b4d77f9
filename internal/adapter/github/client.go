// Package github implements the pull-request host adapter on the
// GitHub REST API. It reuses the shared HTTP retry, rate limiting and
// typed error infrastructure so transient API failures and secondary
// rate limits are handled the same way as inference calls.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	llmhttp "github.com/hathansen/pr-review-bot/internal/adapter/llm/http"
	"github.com/hathansen/pr-review-bot/internal/domain"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second
	defaultRateInterval   = 500 * time.Millisecond
	filesPerPage          = 100
)

// Client is an HTTP client for the GitHub REST API, scoped to one
// repository. It implements the host port of the review orchestrator.
type Client struct {
	token      string
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
	retryConf  llmhttp.RetryConfig
	limiter    *llmhttp.RateLimiter

	mu       sync.Mutex
	headSHAs map[int]string
}

// NewClient creates a client for the given repository. The token is a
// personal access token or the GITHUB_TOKEN provided by Actions.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		token:      token,
		owner:      owner,
		repo:       repo,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryConf: llmhttp.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
		limiter:  llmhttp.NewRateLimiter(defaultRateInterval),
		headSHAs: make(map[int]string),
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// SetRateInterval sets the minimum spacing between API requests.
func (c *Client) SetRateInterval(interval time.Duration) {
	c.limiter = llmhttp.NewRateLimiter(interval)
}

// ChangedFiles lists the files changed by a pull request, following
// pagination until a short page is returned.
func (c *Client) ChangedFiles(ctx context.Context, pr int) ([]domain.FileChange, error) {
	var changes []domain.FileChange
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.owner, c.repo, pr, filesPerPage, page)

		var files []prFile
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &files); err != nil {
			return nil, fmt.Errorf("listing files for PR %d: %w", pr, err)
		}
		for _, f := range files {
			changes = append(changes, domain.FileChange{
				Filename:  f.Filename,
				Status:    f.Status,
				Patch:     f.Patch,
				Additions: f.Additions,
				Deletions: f.Deletions,
			})
		}
		if len(files) < filesPerPage {
			return changes, nil
		}
	}
}

// FileContent fetches the content of a file at the given ref.
func (c *Client) FileContent(ctx context.Context, path, ref string) (string, error) {
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, escapePath(path))
	if ref != "" {
		apiPath += "?ref=" + url.QueryEscape(ref)
	}

	var resp contents
	if err := c.doJSON(ctx, http.MethodGet, apiPath, nil, &resp); err != nil {
		return "", fmt.Errorf("fetching %s: %w", path, err)
	}
	if resp.Encoding != "base64" {
		return resp.Content, nil
	}

	// GitHub inserts newlines into the base64 payload.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(decoded), nil
}

// CreateLineComment posts an inline review comment on the right side
// of the diff at the given line of the PR's head commit.
func (c *Client) CreateLineComment(ctx context.Context, pr int, path string, line int, body string) error {
	sha, err := c.headSHA(ctx, pr)
	if err != nil {
		return err
	}

	apiPath := fmt.Sprintf("/repos/%s/%s/pulls/%d/comments", c.owner, c.repo, pr)
	req := lineCommentRequest{
		Body:     body,
		CommitID: sha,
		Path:     path,
		Line:     line,
		Side:     "RIGHT",
	}
	if err := c.doJSON(ctx, http.MethodPost, apiPath, req, nil); err != nil {
		return fmt.Errorf("commenting on %s:%d: %w", path, line, err)
	}
	return nil
}

// CreateComment posts a conversation-level comment on the pull request.
func (c *Client) CreateComment(ctx context.Context, pr int, body string) error {
	apiPath := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, pr)
	if err := c.doJSON(ctx, http.MethodPost, apiPath, issueCommentRequest{Body: body}, nil); err != nil {
		return fmt.Errorf("commenting on PR %d: %w", pr, err)
	}
	return nil
}

// AddLabels adds labels to the pull request.
func (c *Client) AddLabels(ctx context.Context, pr int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	apiPath := fmt.Sprintf("/repos/%s/%s/issues/%d/labels", c.owner, c.repo, pr)
	if err := c.doJSON(ctx, http.MethodPost, apiPath, labelsRequest{Labels: labels}, nil); err != nil {
		return fmt.Errorf("labeling PR %d: %w", pr, err)
	}
	return nil
}

// escapePath escapes each segment of a repository path while keeping
// the separators intact.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// headSHA resolves and caches the head commit of a pull request.
func (c *Client) headSHA(ctx context.Context, pr int) (string, error) {
	c.mu.Lock()
	sha, ok := c.headSHAs[pr]
	c.mu.Unlock()
	if ok {
		return sha, nil
	}

	var resp pullRequest
	apiPath := fmt.Sprintf("/repos/%s/%s/pulls/%d", c.owner, c.repo, pr)
	if err := c.doJSON(ctx, http.MethodGet, apiPath, nil, &resp); err != nil {
		return "", fmt.Errorf("resolving head of PR %d: %w", pr, err)
	}

	c.mu.Lock()
	c.headSHAs[pr] = resp.Head.SHA
	c.mu.Unlock()
	return resp.Head.SHA, nil
}

// doJSON executes one API call with rate limiting and retries. A nil
// out discards the response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var resp *http.Response
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		c.limiter.Wait()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		var callErr error
		resp, callErr = c.httpClient.Do(req)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return &llmhttp.Error{
					Type:       llmhttp.ErrTypeUnknown,
					Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
					StatusCode: resp.StatusCode,
					Retryable:  resp.StatusCode >= 500,
					Provider:   providerName,
				}
			}
			return mapHTTPError(resp.StatusCode, bodyBytes)
		}
		return nil
	}, c.retryConf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
