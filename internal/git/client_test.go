package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initSourceRepo creates a repository on disk with a single commit so tests
// can clone over the file protocol without touching the network.
func initSourceRepo(t *testing.T) (string, *gogit.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	sha := commitFile(t, repo, dir, "dag.py", "dag_v1")
	return dir, repo, sha
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, contents string) string {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash.String()
}

func TestEnsureCloneValidation(t *testing.T) {
	t.Parallel()

	client := NewDefaultClient()

	tests := []struct {
		name   string
		config *CloneConfig
	}{
		{name: "nil config", config: nil},
		{name: "missing URL", config: &CloneConfig{Dir: "/tmp/somewhere"}},
		{name: "missing dir", config: &CloneConfig{URL: "https://example.com/repo.git"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := client.EnsureClone(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "requires a URL and a directory")
		})
	}
}

func TestEnsureCloneAndHead(t *testing.T) {
	t.Parallel()

	sourceDir, _, sha := initSourceRepo(t)
	client := NewDefaultClient()

	cloneDir := t.TempDir()
	repo, err := client.EnsureClone(context.Background(), &CloneConfig{
		URL: sourceDir,
		Dir: cloneDir,
		Ref: "master",
	})
	require.NoError(t, err)

	head, err := client.Head(repo)
	require.NoError(t, err)
	assert.Equal(t, sha, head)

	// The worktree was populated by the checkout.
	assert.FileExists(t, filepath.Join(cloneDir, "dag.py"))
}

func TestEnsureCloneReusesExistingClone(t *testing.T) {
	t.Parallel()

	sourceDir, _, sha := initSourceRepo(t)
	client := NewDefaultClient()

	config := &CloneConfig{URL: sourceDir, Dir: t.TempDir(), Ref: "master"}
	_, err := client.EnsureClone(context.Background(), config)
	require.NoError(t, err)

	repo, err := client.EnsureClone(context.Background(), config)
	require.NoError(t, err)

	head, err := client.Head(repo)
	require.NoError(t, err)
	assert.Equal(t, sha, head)
}

func TestEnsureClonePinnedCommit(t *testing.T) {
	t.Parallel()

	sourceDir, sourceRepo, first := initSourceRepo(t)
	commitFile(t, sourceRepo, sourceDir, "dag.py", "dag_v2")

	client := NewDefaultClient()
	repo, err := client.EnsureClone(context.Background(), &CloneConfig{
		URL:    sourceDir,
		Dir:    t.TempDir(),
		Commit: first,
	})
	require.NoError(t, err)

	head, err := client.Head(repo)
	require.NoError(t, err)
	assert.Equal(t, first, head)
}

func TestEnsureCloneTag(t *testing.T) {
	t.Parallel()

	sourceDir, sourceRepo, first := initSourceRepo(t)
	_, err := sourceRepo.CreateTag("v1", plumbing.NewHash(first), nil)
	require.NoError(t, err)
	commitFile(t, sourceRepo, sourceDir, "dag.py", "dag_v2")

	client := NewDefaultClient()
	repo, err := client.EnsureClone(context.Background(), &CloneConfig{
		URL: sourceDir,
		Dir: t.TempDir(),
		Ref: "v1",
	})
	require.NoError(t, err)

	head, err := client.Head(repo)
	require.NoError(t, err)
	assert.Equal(t, first, head)
}

func TestEnsureCloneUnknownRef(t *testing.T) {
	t.Parallel()

	sourceDir, _, _ := initSourceRepo(t)

	client := NewDefaultClient()
	_, err := client.EnsureClone(context.Background(), &CloneConfig{
		URL: sourceDir,
		Dir: t.TempDir(),
		Ref: "does-not-exist",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve revision")
}

func TestUpdateTracksRemote(t *testing.T) {
	t.Parallel()

	sourceDir, sourceRepo, _ := initSourceRepo(t)
	client := NewDefaultClient()

	cloneDir := t.TempDir()
	repo, err := client.EnsureClone(context.Background(), &CloneConfig{
		URL: sourceDir,
		Dir: cloneDir,
		Ref: "master",
	})
	require.NoError(t, err)

	second := commitFile(t, sourceRepo, sourceDir, "dag.py", "dag_v2")

	require.NoError(t, client.Update(context.Background(), repo))

	head, err := client.Head(repo)
	require.NoError(t, err)
	assert.Equal(t, second, head)

	contents, err := os.ReadFile(filepath.Join(cloneDir, "dag.py"))
	require.NoError(t, err)
	assert.Equal(t, "dag_v2", string(contents))
}

func TestUpdatePinnedIsNoop(t *testing.T) {
	t.Parallel()

	sourceDir, sourceRepo, first := initSourceRepo(t)
	client := NewDefaultClient()

	repo, err := client.EnsureClone(context.Background(), &CloneConfig{
		URL:    sourceDir,
		Dir:    t.TempDir(),
		Commit: first,
	})
	require.NoError(t, err)

	commitFile(t, sourceRepo, sourceDir, "dag.py", "dag_v2")

	require.NoError(t, client.Update(context.Background(), repo))

	head, err := client.Head(repo)
	require.NoError(t, err)
	assert.Equal(t, first, head)
}

func TestUpdateNilRepo(t *testing.T) {
	t.Parallel()

	client := NewDefaultClient()
	assert.Error(t, client.Update(context.Background(), nil))
}

func TestHeadNilRepo(t *testing.T) {
	t.Parallel()

	client := NewDefaultClient()
	_, err := client.Head(nil)
	assert.Error(t, err)
}
