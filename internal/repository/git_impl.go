package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// gitRepository is the implementation of the LocalGitRepository interface.
type gitRepository struct {
	mu   sync.RWMutex
	repo *git.Repository
}

// NewLocalGitRepository creates a LocalGitRepository with no working copy yet.
func NewLocalGitRepository() LocalGitRepository {
	return &gitRepository{}
}

// OpenLocalGitRepository opens the repository at dir.
func OpenLocalGitRepository(dir string) (LocalGitRepository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitRepository{repo: repo}, nil
}

// Clone clones url into dir. An existing repository in dir is reused.
func (r *gitRepository) Clone(ctx context.Context, url, dir string, submodules bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, err := git.PlainOpen(dir); err == nil {
		r.repo = repo
		return nil
	}
	opts := &git.CloneOptions{URL: url}
	if submodules {
		opts.RecurseSubmodules = git.DefaultSubmoduleRecursionDepth
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	r.repo = repo
	return nil
}

// BranchExists checks the local branch and its origin counterpart.
func (r *gitRepository) BranchExists(_ context.Context, name string) (bool, error) {
	_, err := r.resolveBranch(name)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BranchCommit returns the SHA the branch points to.
func (r *gitRepository) BranchCommit(_ context.Context, name string) (string, error) {
	ref, err := r.resolveBranch(name)
	if err != nil {
		return "", fmt.Errorf("failed to resolve branch %s: %w", name, err)
	}
	return ref.Hash().String(), nil
}

func (r *gitRepository) resolveBranch(name string) (*plumbing.Reference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.repo == nil {
		return nil, errors.New("git repository is not initialized")
	}
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(name),
		plumbing.NewRemoteReferenceName("origin", name),
	}
	for _, refName := range candidates {
		ref, err := r.repo.Reference(refName, true)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, fmt.Errorf("failed to read reference %s: %w", refName, err)
		}
	}
	return nil, plumbing.ErrReferenceNotFound
}
