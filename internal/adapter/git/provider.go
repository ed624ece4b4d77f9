// Package git implements a change provider over a local repository so
// a branch can be reviewed without a pull request host. It satisfies
// the read side of the review orchestrator's host port; write
// operations render to a local writer instead of an API.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/hathansen/pr-review-bot/internal/domain"
)

// Provider reviews the diff between BaseRef and TargetRef of a local
// repository.
type Provider struct {
	repoDir   string
	baseRef   string
	targetRef string

	// IncludeUncommitted also diffs the working tree, via the git CLI,
	// which go-git cannot do reliably.
	includeUncommitted bool

	out io.Writer
}

// NewProvider constructs a provider for the repository directory.
func NewProvider(repoDir, baseRef, targetRef string, includeUncommitted bool, out io.Writer) *Provider {
	if out == nil {
		out = io.Discard
	}
	return &Provider{
		repoDir:            repoDir,
		baseRef:            baseRef,
		targetRef:          targetRef,
		includeUncommitted: includeUncommitted,
		out:                out,
	}
}

// ChangedFiles lists the files changed between the configured refs.
// The pr argument is ignored; local reviews have no PR number.
func (p *Provider) ChangedFiles(ctx context.Context, pr int) ([]domain.FileChange, error) {
	if p.includeUncommitted {
		return p.uncommittedChanges(ctx)
	}

	repo, err := p.open()
	if err != nil {
		return nil, err
	}
	baseCommit, err := resolveCommit(repo, p.baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref: %w", err)
	}
	targetCommit, err := resolveCommit(repo, p.targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref: %w", err)
	}

	patch, err := baseCommit.Patch(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	changes := make([]domain.FileChange, 0, len(patch.FilePatches()))
	for _, fp := range patch.FilePatches() {
		patchText, err := encodeFilePatch(fp)
		if err != nil {
			return nil, fmt.Errorf("encode patch: %w", err)
		}
		change, err := toFileChange(filePathAndStatus(fp))(patchText)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// FileContent reads a file from the tree of the given ref. An empty
// ref falls back to the provider's target ref.
func (p *Provider) FileContent(ctx context.Context, path, ref string) (string, error) {
	if ref == "" {
		ref = p.targetRef
	}
	repo, err := p.open()
	if err != nil {
		return "", err
	}
	commit, err := resolveCommit(repo, ref)
	if err != nil {
		return "", fmt.Errorf("resolve ref %s: %w", ref, err)
	}
	file, err := commit.File(path)
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", path, ref, err)
	}
	return file.Contents()
}

// CreateLineComment renders the comment to the local writer.
func (p *Provider) CreateLineComment(ctx context.Context, pr int, path string, line int, body string) error {
	_, err := fmt.Fprintf(p.out, "%s:%d\n%s\n", path, line, body)
	return err
}

// CreateComment renders the summary to the local writer.
func (p *Provider) CreateComment(ctx context.Context, pr int, body string) error {
	_, err := fmt.Fprintln(p.out, body)
	return err
}

// AddLabels is a no-op for local reviews.
func (p *Provider) AddLabels(ctx context.Context, pr int, labels []string) error {
	return nil
}

// CurrentBranch returns the name of the checked-out branch.
func (p *Provider) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := p.open()
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	if name := head.Name(); name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func (p *Provider) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(p.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

func filePathAndStatus(fp formatdiff.FilePatch) (string, string) {
	from, to := fp.Files()
	switch {
	case from == nil && to != nil:
		return to.Path(), domain.FileStatusAdded
	case from != nil && to == nil:
		return from.Path(), domain.FileStatusRemoved
	case from != nil && to != nil:
		if from.Path() != to.Path() {
			return to.Path(), domain.FileStatusRenamed
		}
		return to.Path(), domain.FileStatusModified
	default:
		return "", domain.FileStatusModified
	}
}

// toFileChange builds a FileChange for the named file from raw patch
// text: the hunks are re-parsed so the stored patch holds only hunk
// content (matching what a PR host serves) and the addition and
// deletion counts come from the parsed fragments.
func toFileChange(filename, status string) func(patchText string) (domain.FileChange, error) {
	return func(patchText string) (domain.FileChange, error) {
		change := domain.FileChange{Filename: filename, Status: status}
		if isBinaryPatch(patchText) || strings.TrimSpace(patchText) == "" {
			return change, nil
		}

		files, _, err := gitdiff.Parse(strings.NewReader(patchText))
		if err != nil {
			return domain.FileChange{}, fmt.Errorf("parse patch for %s: %w", filename, err)
		}

		var b strings.Builder
		for _, file := range files {
			for _, frag := range file.TextFragments {
				b.WriteString(frag.Header())
				b.WriteString("\n")
				for _, line := range frag.Lines {
					b.WriteString(line.String())
				}
				change.Additions += int(frag.LinesAdded)
				change.Deletions += int(frag.LinesDeleted)
			}
		}
		change.Patch = strings.TrimRight(b.String(), "\n")
		return change, nil
	}
}

// isBinaryPatch checks the markers git leaves for binary content.
func isBinaryPatch(patchText string) bool {
	return strings.Contains(patchText, "Binary files") ||
		strings.Contains(patchText, "GIT binary patch")
}

func (p *Provider) uncommittedChanges(ctx context.Context) ([]domain.FileChange, error) {
	statusOut, err := runGitCommand(ctx, p.repoDir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	trimmed := strings.TrimRight(statusOut, "\r\n")
	if trimmed == "" {
		return []domain.FileChange{}, nil
	}

	var changes []domain.FileChange
	for _, line := range strings.Split(trimmed, "\n") {
		if len(line) < 3 {
			continue
		}
		path := extractPath(line)
		patchOut, err := runGitCommand(ctx, p.repoDir, "diff", p.baseRef, "--", path)
		if err != nil {
			return nil, fmt.Errorf("git diff %s: %w", path, err)
		}
		change, err := toFileChange(path, mapStatusChar(statusChar(line)))(patchOut)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}

func statusChar(line string) rune {
	first := rune(line[0])
	second := rune(line[1])
	switch {
	case second != ' ':
		return second
	case first != ' ':
		return first
	default:
		return 'M'
	}
}

// extractPath reads the path from a porcelain status line. Renames
// show "R  old -> new"; the new path is what gets reviewed.
func extractPath(line string) string {
	pathPart := strings.TrimSpace(line[3:])
	if idx := strings.Index(pathPart, " -> "); idx >= 0 {
		return strings.TrimSpace(pathPart[idx+4:])
	}
	return pathPart
}

func mapStatusChar(status rune) string {
	switch status {
	case 'A', '?':
		return domain.FileStatusAdded
	case 'D':
		return domain.FileStatusRemoved
	case 'R':
		return domain.FileStatusRenamed
	default:
		return domain.FileStatusModified
	}
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}
