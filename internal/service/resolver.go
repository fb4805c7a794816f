package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"go.uber.org/zap"
)

// RepoResolver finds the repository that hosts a package path.
type RepoResolver interface {
	Resolve(ctx context.Context, registryURL, packageName string) (string, error)
}

type repoResolver struct {
	http   repository.HTTPClient
	cache  repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRepoResolver creates a RepoResolver memoizing results in cache.
func NewRepoResolver(
	http repository.HTTPClient,
	cache repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) RepoResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &repoResolver{http: http, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the longest prefix of packageName that exists as a project.
// Paths of two segments or fewer are returned without probing.
func (r *repoResolver) Resolve(ctx context.Context, registryURL, packageName string) (string, error) {
	depHost := DepHost(registryURL)
	key := CacheKey(depHost, packageName)
	return repository.GetOrCompute(ctx, r.cache, RepoCacheNamespace, key, r.ttl, func(ctx context.Context) (string, error) {
		return r.probe(ctx, depHost, strings.Split(packageName, "/"))
	})
}

// probe shortens the candidate by one trailing segment after every 404.
func (r *repoResolver) probe(ctx context.Context, depHost string, segments []string) (string, error) {
	for n := len(segments); n > minRepoSegments; n-- {
		candidate := strings.Join(segments[:n], "/")
		var project struct {
			ID int `json:"id"`
		}
		_, err := r.http.GetJSON(ctx, ProjectURL(depHost, candidate), &project, nil)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("failed to probe project %s: %w", candidate, err)
		}
		r.logger.Debug("Project not found, trying parent path", zap.String("package", candidate))
	}
	return strings.Join(segments[:min(len(segments), minRepoSegments)], "/"), nil
}

// DepHost strips trailing slashes and the API suffix from a registry URL.
func DepHost(registryURL string) string {
	if registryURL == "" {
		registryURL = DefaultRegistryURL
	}
	host := strings.TrimRight(registryURL, "/")
	return strings.TrimSuffix(host, "/api/v3")
}

// ProjectURL addresses a project by its escaped path on depHost.
func ProjectURL(depHost, repo string) string {
	return depHost + "/api/v3/projects/" + url.PathEscape(repo)
}

// SourceURL is the browsable location of repo on depHost.
func SourceURL(depHost, repo string) string {
	return depHost + "/" + strings.TrimLeft(repo, "/")
}

// CacheKey scopes a package name to its host.
func CacheKey(depHost, packageName string) string {
	return depHost + ":" + packageName
}
