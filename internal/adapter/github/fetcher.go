package github

import "context"

// ThreadFetcher resolves file contents at a pull request's head
// commit, which is what conversation threads refer to. It implements
// the content fetcher port of the interaction router.
type ThreadFetcher struct {
	client *Client
}

// NewThreadFetcher wraps a client for thread-scoped content lookups.
func NewThreadFetcher(client *Client) *ThreadFetcher {
	return &ThreadFetcher{client: client}
}

// FileContent returns the file as of the head commit of the pull
// request the thread belongs to.
func (f *ThreadFetcher) FileContent(ctx context.Context, thread int, path string) (string, error) {
	sha, err := f.client.headSHA(ctx, thread)
	if err != nil {
		return "", err
	}
	return f.client.FileContent(ctx, path, sha)
}
