// Package git wraps the go-git operations the git bundle provider needs:
// cloning a repository to a persistent on-disk worktree, updating it, and
// reporting the checked-out commit.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/dagsmith/bundle-registry-server/internal/logger"
)

// Client defines the interface for git operations.
type Client interface {
	// EnsureClone opens the repository at config.Dir, cloning it first if
	// it does not exist, and leaves the worktree at the configured
	// ref/commit.
	EnsureClone(ctx context.Context, config *CloneConfig) (*Repository, error)

	// Update fetches from the remote and resets the worktree to the
	// configured ref. Pinned (commit) repositories are left untouched.
	Update(ctx context.Context, repo *Repository) error

	// Head returns the commit SHA the worktree is currently at.
	Head(repo *Repository) (string, error)
}

// defaultClient implements Client using go-git.
type defaultClient struct{}

// NewDefaultClient creates a new go-git backed client.
func NewDefaultClient() Client {
	return &defaultClient{}
}

// EnsureClone opens or clones the repository and checks out the configured
// ref or commit.
func (*defaultClient) EnsureClone(ctx context.Context, config *CloneConfig) (*Repository, error) {
	if config == nil || config.URL == "" || config.Dir == "" {
		return nil, fmt.Errorf("clone configuration requires a URL and a directory")
	}

	repo, err := gogit.PlainOpen(config.Dir)
	switch {
	case err == nil:
		// Existing clone, reuse it.
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		if err := os.MkdirAll(config.Dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create clone directory %s: %w", config.Dir, err)
		}
		logger.Infof("Cloning %s into %s", config.URL, config.Dir)
		repo, err = gogit.PlainCloneContext(ctx, config.Dir, false, &gogit.CloneOptions{
			URL: config.URL,
			// The checkout happens below once the target revision is known.
			NoCheckout: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to clone repository %s: %w", config.URL, err)
		}
	default:
		return nil, fmt.Errorf("failed to open repository at %s: %w", config.Dir, err)
	}

	out := &Repository{Repo: repo, Dir: config.Dir, cfg: config}
	if err := checkout(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update fetches from origin and re-checks-out the tracking ref.
func (*defaultClient) Update(ctx context.Context, repo *Repository) error {
	if repo == nil || repo.Repo == nil {
		return fmt.Errorf("repository is nil")
	}
	if repo.cfg.Commit != "" {
		// Pinned to a commit; nothing can change.
		return nil
	}

	err := repo.Repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: "origin",
		Tags:       gogit.AllTags,
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", repo.cfg.URL, err)
	}

	return checkout(repo)
}

// Head returns the commit SHA the worktree is currently at.
func (*defaultClient) Head(repo *Repository) (string, error) {
	if repo == nil || repo.Repo == nil {
		return "", fmt.Errorf("repository is nil")
	}
	ref, err := repo.Repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	return ref.Hash().String(), nil
}

// checkout moves the worktree to the configured commit or ref. Refs are
// resolved through ResolveRevision so branches, tags, and SHAs all work.
// The remote-tracking name is tried first so a tracking branch follows the
// remote after a fetch; local refs only update on checkout.
func checkout(repo *Repository) error {
	var hash plumbing.Hash
	switch {
	case repo.cfg.Commit != "":
		hash = plumbing.NewHash(repo.cfg.Commit)
	default:
		rev := repo.cfg.Ref
		if rev == "" {
			rev = "HEAD"
		}
		resolved, err := repo.Repo.ResolveRevision(plumbing.Revision("origin/" + rev))
		if err != nil {
			resolved, err = repo.Repo.ResolveRevision(plumbing.Revision(rev))
		}
		if err != nil {
			return fmt.Errorf("failed to resolve revision %q: %w", repo.cfg.Ref, err)
		}
		hash = *resolved
	}

	workTree, err := repo.Repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = workTree.Checkout(&gogit.CheckoutOptions{
		Hash:  hash,
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", hash, err)
	}

	return nil
}
