package bundles

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dagsmith/bundle-registry-server/internal/git"
)

// GitBundle serves workflow definitions from a git repository. The checkout
// lives in a per-bundle directory under the configured cache root; pinned
// versions get their own directory so two lookups with different versions
// never interfere.
type GitBundle struct {
	Base

	repoURL     string
	trackingRef string
	subdir      string
	workdir     string

	client git.Client

	mu   sync.Mutex
	repo *git.Repository
}

var _ Bundle = (*GitBundle)(nil)

// NewGitBundle constructs a git-backed bundle. Required kwarg: repo_url.
// Optional kwargs: tracking_ref (default "main"), subdir.
//
// The clone itself is deferred until the first Refresh or CurrentVersion
// call so that manager construction stays free of network I/O.
func NewGitBundle(cc ConstructorConfig) (Bundle, error) {
	base, err := NewBase(cc)
	if err != nil {
		return nil, err
	}

	repoURL, err := stringKwarg(cc.Kwargs, "repo_url")
	if err != nil {
		return nil, err
	}
	if repoURL == "" {
		return nil, fmt.Errorf("repo_url is required")
	}

	trackingRef, err := stringKwarg(cc.Kwargs, "tracking_ref")
	if err != nil {
		return nil, err
	}
	if trackingRef == "" {
		trackingRef = "main"
	}

	subdir, err := stringKwarg(cc.Kwargs, "subdir")
	if err != nil {
		return nil, err
	}

	// Unpinned instances share the tracking checkout; pinned ones are
	// isolated per version.
	checkoutName := "tracking"
	if cc.Version != "" {
		checkoutName = cc.Version
	}
	workdir := filepath.Join(cc.Server.GetGitCacheDir(), cc.Name, checkoutName)

	return &GitBundle{
		Base:        base,
		repoURL:     repoURL,
		trackingRef: trackingRef,
		subdir:      subdir,
		workdir:     workdir,
		client:      git.NewDefaultClient(),
	}, nil
}

// Path implements Bundle. The path is deterministic and valid as soon as
// the first Refresh has populated the checkout.
func (b *GitBundle) Path() string {
	return filepath.Join(b.workdir, b.subdir)
}

// Refresh implements Bundle: it clones on first use, then fetches and
// resets the worktree to the tracking ref. Pinned instances only ensure the
// pinned commit is checked out.
func (b *GitBundle) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	repo, err := b.ensureClone(ctx)
	if err != nil {
		return err
	}
	return b.client.Update(ctx, repo)
}

// CurrentVersion implements Bundle: the commit SHA the checkout is at.
func (b *GitBundle) CurrentVersion(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	repo, err := b.ensureClone(ctx)
	if err != nil {
		return "", err
	}
	return b.client.Head(repo)
}

func (b *GitBundle) ensureClone(ctx context.Context) (*git.Repository, error) {
	if b.repo != nil {
		return b.repo, nil
	}

	cloneConfig := &git.CloneConfig{
		URL: b.repoURL,
		Dir: b.workdir,
		Ref: b.trackingRef,
	}
	if v := b.Version(); v != "" {
		cloneConfig.Commit = v
	}

	repo, err := b.client.EnsureClone(ctx, cloneConfig)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.Name(), err)
	}
	b.repo = repo
	return repo, nil
}
