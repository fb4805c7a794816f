package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"github.com/compozy/tgit/internal/service"
)

// ListReleasesUseCase lists the tags of a package's repository as releases.
type ListReleasesUseCase struct {
	HTTP     repository.HTTPClient
	Resolver service.RepoResolver
	Cache    repository.CacheRepository
	CacheTTL time.Duration
}

// Execute runs the use case.
func (uc *ListReleasesUseCase) Execute(ctx context.Context, registryURL, packageName string) (*domain.ReleaseResult, error) {
	depHost := service.DepHost(registryURL)
	key := service.CacheKey(depHost, packageName)
	result, err := repository.GetOrCompute(ctx, uc.Cache, service.ReleasesCacheNamespace, key, uc.CacheTTL,
		func(ctx context.Context) (domain.ReleaseResult, error) {
			return uc.fetch(ctx, registryURL, depHost, packageName)
		})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (uc *ListReleasesUseCase) fetch(
	ctx context.Context,
	registryURL, depHost, packageName string,
) (domain.ReleaseResult, error) {
	repo, err := uc.Resolver.Resolve(ctx, registryURL, packageName)
	if err != nil {
		return domain.ReleaseResult{}, fmt.Errorf("failed to resolve repository of %s: %w", packageName, err)
	}
	var tags []repository.Tag
	url := service.ProjectURL(depHost, repo) + "/repository/tags?per_page=100"
	if _, err := uc.HTTP.GetJSON(ctx, url, &tags, &repository.RequestOptions{Paginate: true}); err != nil {
		return domain.ReleaseResult{}, fmt.Errorf("failed to list tags of %s: %w", repo, err)
	}
	releases := make([]domain.Release, 0, len(tags))
	for _, tag := range tags {
		if err := tag.Validate(); err != nil {
			return domain.ReleaseResult{}, domain.NewExternalHostError(
				fmt.Errorf("invalid tag of %s: %w", repo, err),
				domain.PlatformID,
			)
		}
		releases = append(releases, tag.ToRelease())
	}
	return domain.ReleaseResult{
		SourceURL: service.SourceURL(depHost, repo),
		Releases:  releases,
	}, nil
}
