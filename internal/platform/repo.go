package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	mergeMethodMerge = "merge"
	defaultFileRef   = "HEAD"
	cloneUser        = "private"
)

// Repo is a session bound to one repository of the platform.
type Repo struct {
	platform       *Platform
	git            repository.LocalGitRepository
	repository     string
	escaped        string
	defaultBranch  string
	mergeMethod    string
	ignorePrAuthor bool
	logger         *zap.Logger

	mu        sync.Mutex
	prList    []domain.Pr
	issueList []repository.Issue
}

// InitRepo opens a repository session. When params.LocalDir is set the
// repository is cloned there for branch lookups.
func (p *Platform) InitRepo(
	ctx context.Context,
	params domain.RepoParams,
	git repository.LocalGitRepository,
) (*Repo, domain.RepoResult, error) {
	r := &Repo{
		platform:       p,
		git:            git,
		repository:     params.Repository,
		escaped:        escapePath(params.Repository),
		ignorePrAuthor: params.IgnorePrAuthor,
		logger:         p.logger.With(zap.String("repository", params.Repository)),
	}
	if r.git == nil {
		r.git = repository.NewLocalGitRepository()
	}
	var project repository.Project
	if _, err := p.http.GetJSON(ctx, r.projectPath(""), &project, nil); err != nil {
		r.logger.Debug("Caught initRepo error", zap.Error(err))
		switch {
		case errors.Is(err, domain.ErrForbidden):
			return nil, domain.RepoResult{}, domain.ErrRepositoryAccessForbidden
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.RepoResult{}, domain.ErrRepositoryNotFound
		}
		r.logger.Info("Unknown Tencent Git initRepo error", zap.Error(err))
		return nil, domain.RepoResult{}, fmt.Errorf("failed to get project %s: %w", params.Repository, err)
	}
	if project.Archived {
		r.logger.Debug("Repository is archived")
		return nil, domain.RepoResult{}, domain.ErrRepositoryArchived
	}
	if project.DefaultBranch == nil || project.TemplateRepository {
		r.logger.Debug("Repository is empty")
		return nil, domain.RepoResult{}, domain.ErrRepositoryEmpty
	}
	if project.MergeRequestsEnabled != nil && !*project.MergeRequestsEnabled {
		r.logger.Debug("Repository has merge requests disabled")
		return nil, domain.RepoResult{}, domain.ErrRepositoryDisabled
	}
	r.defaultBranch = *project.DefaultBranch
	r.mergeMethod = defaultString(project.MergeMethod, mergeMethodMerge)
	cloneURL, err := r.cloneURL(project, params.GitURL)
	if err != nil {
		return nil, domain.RepoResult{}, err
	}
	if params.LocalDir != "" {
		if err := r.git.Clone(ctx, cloneURL, params.LocalDir, params.CloneSubmodules); err != nil {
			return nil, domain.RepoResult{}, fmt.Errorf("failed to prepare working copy: %w", err)
		}
	}
	return r, domain.RepoResult{DefaultBranch: r.defaultBranch, IsFork: project.IsFork()}, nil
}

// DefaultBranch returns the default branch of the repository.
func (r *Repo) DefaultBranch() string {
	return r.defaultBranch
}

// GetRepoForceRebase reports whether merges require a rebased branch.
func (r *Repo) GetRepoForceRebase(context.Context) bool {
	return r.mergeMethod != mergeMethodMerge
}

// GetRawFile reads a file at ref, or at HEAD when ref is empty. An empty
// repoName reads from the session repository.
func (r *Repo) GetRawFile(ctx context.Context, fileName, repoName, ref string) (string, error) {
	repo := r.escaped
	if repoName != "" {
		repo = escapePath(repoName)
	}
	if ref == "" {
		ref = defaultFileRef
	}
	path := fmt.Sprintf("projects/%s/repository/blobs/%s?file_path=%s", repo, url.PathEscape(ref), escapePath(fileName))
	res, err := r.platform.http.Get(ctx, path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	return string(res.Body), nil
}

// GetJSONFile reads and decodes a JSON file. JSON5 is not supported.
func (r *Repo) GetJSONFile(ctx context.Context, fileName, repoName, ref string, out any) error {
	raw, err := r.GetRawFile(ctx, fileName, repoName, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	return nil
}

func (r *Repo) projectPath(suffix string) string {
	return "projects/" + r.escaped + suffix
}

func (r *Repo) cloneURL(project repository.Project, option domain.GitURLOption) (string, error) {
	if option == domain.GitURLSSH {
		if project.SSHURLToRepo == "" {
			return "", domain.ErrConfigGitURLUnavailable
		}
		r.logger.Debug("Using ssh URL", zap.String("url", project.SSHURLToRepo))
		return project.SSHURLToRepo, nil
	}
	raw := project.CloneURL()
	if raw == "" {
		return "", domain.ErrConfigGitURLUnavailable
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid clone URL %q: %w", raw, err)
	}
	u.User = url.UserPassword(cloneUser, r.platform.token)
	r.logger.Debug("Using http URL", zap.String("url", u.Redacted()))
	return u.String(), nil
}
