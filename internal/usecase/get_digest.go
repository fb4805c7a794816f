package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/compozy/tgit/internal/repository"
	"github.com/compozy/tgit/internal/service"
	"go.uber.org/zap"
)

var errNoDigest = errors.New("no digest available")

// GetDigestUseCase returns the head commit of a package's repository or branch.
type GetDigestUseCase struct {
	HTTP     repository.HTTPClient
	Resolver service.RepoResolver
	Cache    repository.CacheRepository
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Execute returns the commit SHA, or "" when the repository has no commits,
// the branch does not exist or the lookup fails. Only repository resolution
// errors are returned.
func (uc *GetDigestUseCase) Execute(ctx context.Context, registryURL, packageName, branch string) (string, error) {
	depHost := service.DepHost(registryURL)
	key := service.CacheKey(depHost, packageName)
	if branch != "" {
		key += "@" + branch
	}
	repo, err := uc.Resolver.Resolve(ctx, registryURL, packageName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository of %s: %w", packageName, err)
	}
	digest, err := repository.GetOrCompute(ctx, uc.Cache, service.CommitCacheNamespace, key, uc.CacheTTL,
		func(ctx context.Context) (string, error) {
			sha, err := uc.lookup(ctx, depHost, repo, branch)
			if err != nil {
				uc.logger().Debug("Error getting latest commit from Tencent Git repo",
					zap.String("repo", repo),
					zap.String("registry_url", registryURL),
					zap.Error(err))
				return "", errNoDigest
			}
			if sha == "" {
				return "", errNoDigest
			}
			return sha, nil
		})
	if errors.Is(err, errNoDigest) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return digest, nil
}

func (uc *GetDigestUseCase) lookup(ctx context.Context, depHost, repo, branch string) (string, error) {
	base := service.ProjectURL(depHost, repo) + "/repository/commits"
	if branch != "" {
		var commit repository.Commit
		if _, err := uc.HTTP.GetJSON(ctx, base+"/"+url.PathEscape(branch), &commit, nil); err != nil {
			return "", err
		}
		if err := commit.Validate(); err != nil {
			return "", err
		}
		return commit.ID, nil
	}
	var commits []repository.Commit
	if _, err := uc.HTTP.GetJSON(ctx, base+"?per_page=1", &commits, nil); err != nil {
		return "", err
	}
	if len(commits) == 0 {
		return "", nil
	}
	if err := commits[0].Validate(); err != nil {
		return "", err
	}
	return commits[0].ID, nil
}

func (uc *GetDigestUseCase) logger() *zap.Logger {
	if uc.Logger == nil {
		return zap.NewNop()
	}
	return uc.Logger
}
