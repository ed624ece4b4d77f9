package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hathansen/pr-review-bot/internal/adapter/github"
	llmhttp "github.com/hathansen/pr-review-bot/internal/adapter/llm/http"
	"github.com/hathansen/pr-review-bot/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*github.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := github.NewClient("test-token", "owner", "repo")
	client.SetBaseURL(server.URL)
	client.SetMaxRetries(1)
	client.SetInitialBackoff(time.Millisecond)
	client.SetRateInterval(0)
	return client, server
}

func TestChangedFilesMapsAPIFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/pulls/7/files", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))

		fmt.Fprint(w, `[
			{"filename": "app.py", "status": "modified", "patch": "@@ -1 +1 @@", "additions": 3, "deletions": 1},
			{"filename": "old.py", "status": "removed"}
		]`)
	}))

	files, err := client.ChangedFiles(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, domain.FileChange{
		Filename:  "app.py",
		Status:    domain.FileStatusModified,
		Patch:     "@@ -1 +1 @@",
		Additions: 3,
		Deletions: 1,
	}, files[0])
	assert.Equal(t, domain.FileStatusRemoved, files[1].Status)
}

func TestChangedFilesFollowsPagination(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")

		if page == "1" {
			var files []map[string]string
			for i := 0; i < 100; i++ {
				files = append(files, map[string]string{"filename": fmt.Sprintf("file%d.go", i)})
			}
			json.NewEncoder(w).Encode(files)
			return
		}
		fmt.Fprint(w, `[{"filename": "last.go"}]`)
	}))

	files, err := client.ChangedFiles(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, files, 101)
	assert.Equal(t, "last.go", files[100].Filename)
}

func TestFileContentDecodesBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("x = 1\ny = 2\n"))
	// GitHub wraps base64 payloads with newlines.
	wrapped := encoded[:10] + "\n" + encoded[10:]

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/contents/src/app.py", r.URL.Path)
		assert.Equal(t, "headsha", r.URL.Query().Get("ref"))

		json.NewEncoder(w).Encode(map[string]string{"content": wrapped, "encoding": "base64"})
	}))

	content, err := client.FileContent(context.Background(), "src/app.py", "headsha")

	require.NoError(t, err)
	assert.Equal(t, "x = 1\ny = 2\n", content)
}

func TestCreateLineCommentResolvesHeadOnce(t *testing.T) {
	var headLookups atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/pulls/5":
			headLookups.Add(1)
			fmt.Fprint(w, `{"number": 5, "head": {"sha": "abc123", "ref": "feature"}}`)
		case "/repos/owner/repo/pulls/5/comments":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "abc123", body["commit_id"])
			assert.Equal(t, "app.py", body["path"])
			assert.Equal(t, float64(12), body["line"])
			assert.Equal(t, "RIGHT", body["side"])
			assert.Equal(t, "found a bug", body["body"])
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, client.CreateLineComment(context.Background(), 5, "app.py", 12, "found a bug"))
	require.NoError(t, client.CreateLineComment(context.Background(), 5, "app.py", 20, "found a bug"))

	assert.Equal(t, int32(1), headLookups.Load(), "head SHA should be cached per PR")
}

func TestCreateCommentPostsToIssueThread(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/issues/9/comments", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "## Review summary", body["body"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	}))

	require.NoError(t, client.CreateComment(context.Background(), 9, "## Review summary"))
}

func TestAddLabels(t *testing.T) {
	var called bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/repos/owner/repo/issues/3/labels", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"needs-attention"}, body["labels"])
		fmt.Fprint(w, `[]`)
	}))

	require.NoError(t, client.AddLabels(context.Background(), 3, []string{"needs-attention"}))
	assert.True(t, called)

	// No request for an empty label set.
	called = false
	require.NoError(t, client.AddLabels(context.Background(), 3, nil))
	assert.False(t, called)
}

func TestAuthenticationErrorIsNotRetried(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))

	_, err := client.ChangedFiles(context.Background(), 1)

	require.Error(t, err)
	var apiErr *llmhttp.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, apiErr.Type)
	assert.Contains(t, apiErr.Message, "Bad credentials")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestServerErrorIsRetried(t *testing.T) {
	var attempts atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	}))

	_, err := client.ChangedFiles(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSetBaseURLTrimsTrailingSlash(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotContains(t, r.URL.Path, "//")
		fmt.Fprint(w, `[]`)
	}))
	client.SetBaseURL(server.URL + "///")

	_, err := client.ChangedFiles(context.Background(), 1)

	require.NoError(t, err)
}

func TestThreadFetcherUsesHeadCommit(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("content at head"))
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/pulls/4":
			fmt.Fprint(w, `{"number": 4, "head": {"sha": "feedface"}}`)
		case "/repos/owner/repo/contents/app.py":
			assert.Equal(t, "feedface", r.URL.Query().Get("ref"))
			json.NewEncoder(w).Encode(map[string]string{"content": encoded, "encoding": "base64"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	fetcher := github.NewThreadFetcher(client)
	content, err := fetcher.FileContent(context.Background(), 4, "app.py")

	require.NoError(t, err)
	assert.Equal(t, "content at head", content)
}
