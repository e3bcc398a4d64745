package git

import gogit "github.com/go-git/go-git/v5"

// CloneConfig describes where a repository comes from and where its
// worktree lives on disk.
type CloneConfig struct {
	// URL is the repository URL (HTTP/HTTPS/SSH or a local path).
	URL string

	// Dir is the on-disk worktree directory.
	Dir string

	// Ref is the branch, tag, or revision to keep the worktree at. Empty
	// means the remote's default branch.
	Ref string

	// Commit pins the worktree to a specific commit SHA. Takes precedence
	// over Ref.
	Commit string
}

// Repository wraps an opened on-disk repository together with its clone
// configuration.
type Repository struct {
	Repo *gogit.Repository
	Dir  string

	cfg *CloneConfig
}
