package git_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hathansen/pr-review-bot/internal/adapter/git"
	"github.com/hathansen/pr-review-bot/internal/diff"
	"github.com/hathansen/pr-review-bot/internal/domain"
)

type testRepo struct {
	dir      string
	worktree *goGit.Worktree
}

func initRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := goGit.PlainInit(dir, false)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{dir: dir, worktree: worktree}
}

func (r *testRepo) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(r.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (r *testRepo) commit(t *testing.T, message string, files ...string) {
	t.Helper()
	for _, f := range files {
		_, err := r.worktree.Add(f)
		require.NoError(t, err)
	}
	_, err := r.worktree.Commit(message, &goGit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(0, 0)},
	})
	require.NoError(t, err)
}

func (r *testRepo) branch(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, r.worktree.Checkout(&goGit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}))
}

func TestChangedFilesBetweenBranches(t *testing.T) {
	repo := initRepo(t)
	repo.write(t, "app.py", "x = 1\n")
	repo.commit(t, "initial", "app.py")
	repo.branch(t, "feature")
	repo.write(t, "app.py", "x = 1\ny = eval(z)\n")
	repo.write(t, "new.py", "print('new')\n")
	repo.commit(t, "feature change", "app.py", "new.py")

	provider := git.NewProvider(repo.dir, "master", "feature", false, nil)
	changes, err := provider.ChangedFiles(context.Background(), 0)

	require.NoError(t, err)
	require.Len(t, changes, 2)

	byName := map[string]domain.FileChange{}
	for _, c := range changes {
		byName[c.Filename] = c
	}

	modified := byName["app.py"]
	assert.Equal(t, domain.FileStatusModified, modified.Status)
	assert.Equal(t, 1, modified.Additions)
	assert.Equal(t, 0, modified.Deletions)
	assert.Contains(t, modified.Patch, "+y = eval(z)")
	assert.Contains(t, modified.Patch, "@@")
	assert.NotContains(t, modified.Patch, "+++", "stored patch holds hunks only")

	added := byName["new.py"]
	assert.Equal(t, domain.FileStatusAdded, added.Status)
	assert.Equal(t, 1, added.Additions)
}

func TestChangedFilesPatchFeedsLineMapper(t *testing.T) {
	repo := initRepo(t)
	repo.write(t, "app.py", "a = 1\nb = 2\nc = 3\n")
	repo.commit(t, "initial", "app.py")
	repo.branch(t, "feature")
	repo.write(t, "app.py", "a = 1\nb = 20\nc = 3\nd = 4\n")
	repo.commit(t, "edit", "app.py")

	provider := git.NewProvider(repo.dir, "master", "feature", false, nil)
	changes, err := provider.ChangedFiles(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	var additions []int
	for _, c := range diff.MapPatch(changes[0].Patch) {
		if c.Kind == diff.Addition {
			additions = append(additions, c.Line)
		}
	}
	assert.Equal(t, []int{2, 4}, additions)
}

func TestFileContentAtRef(t *testing.T) {
	repo := initRepo(t)
	repo.write(t, "app.py", "original\n")
	repo.commit(t, "initial", "app.py")
	repo.branch(t, "feature")
	repo.write(t, "app.py", "changed\n")
	repo.commit(t, "edit", "app.py")

	provider := git.NewProvider(repo.dir, "master", "feature", false, nil)

	content, err := provider.FileContent(context.Background(), "app.py", "master")
	require.NoError(t, err)
	assert.Equal(t, "original\n", content)

	// Empty ref falls back to the target ref.
	content, err = provider.FileContent(context.Background(), "app.py", "")
	require.NoError(t, err)
	assert.Equal(t, "changed\n", content)
}

func TestFileContentMissingFile(t *testing.T) {
	repo := initRepo(t)
	repo.write(t, "app.py", "x\n")
	repo.commit(t, "initial", "app.py")

	provider := git.NewProvider(repo.dir, "master", "master", false, nil)

	_, err := provider.FileContent(context.Background(), "missing.py", "master")
	assert.Error(t, err)
}

func TestCurrentBranch(t *testing.T) {
	repo := initRepo(t)
	repo.write(t, "app.py", "x\n")
	repo.commit(t, "initial", "app.py")
	repo.branch(t, "feature")

	provider := git.NewProvider(repo.dir, "master", "feature", false, nil)

	branch, err := provider.CurrentBranch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)
}

func TestLocalCommentsRenderToWriter(t *testing.T) {
	var buf bytes.Buffer
	provider := git.NewProvider(t.TempDir(), "master", "feature", false, &buf)

	require.NoError(t, provider.CreateLineComment(context.Background(), 0, "app.py", 3, "issue body"))
	require.NoError(t, provider.CreateComment(context.Background(), 0, "summary body"))
	require.NoError(t, provider.AddLabels(context.Background(), 0, []string{"x"}))

	out := buf.String()
	assert.Contains(t, out, "app.py:3")
	assert.Contains(t, out, "issue body")
	assert.Contains(t, out, "summary body")
}
