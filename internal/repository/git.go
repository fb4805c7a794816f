package repository

import "context"

// LocalGitRepository defines the operations on the local working copy of a repository.
type LocalGitRepository interface {
	// Clone clones url into dir, or opens dir when it already holds a repository.
	Clone(ctx context.Context, url, dir string, submodules bool) error
	BranchExists(ctx context.Context, name string) (bool, error)
	BranchCommit(ctx context.Context, name string) (string, error)
}
