package github

// GitHub REST API wire types.
// See: https://docs.github.com/en/rest/pulls and /rest/repos/contents.

// prFile is one entry of GET /repos/{owner}/{repo}/pulls/{pull_number}/files.
type prFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Patch     string `json:"patch"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// pullRequest is the subset of GET /repos/{owner}/{repo}/pulls/{pull_number}
// the client needs.
type pullRequest struct {
	Number int `json:"number"`
	Head   struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"head"`
}

// contents is the response of GET /repos/{owner}/{repo}/contents/{path}.
// Content is base64 with embedded newlines when Encoding is "base64".
type contents struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int    `json:"size"`
}

// lineCommentRequest is the body of POST /repos/{owner}/{repo}/pulls/{pull_number}/comments.
type lineCommentRequest struct {
	Body     string `json:"body"`
	CommitID string `json:"commit_id"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Side     string `json:"side"`
}

// issueCommentRequest is the body of POST /repos/{owner}/{repo}/issues/{issue_number}/comments.
type issueCommentRequest struct {
	Body string `json:"body"`
}

// labelsRequest is the body of POST /repos/{owner}/{repo}/issues/{issue_number}/labels.
type labelsRequest struct {
	Labels []string `json:"labels"`
}

// errorResponse is GitHub's error envelope.
type errorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
