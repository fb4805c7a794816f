package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// RepoResolver resolves the repository of a package path.
type RepoResolver interface {
	Resolve(ctx context.Context, registryURL, packageName string) (string, error)
}

// ReleaseLister lists the releases of a package.
type ReleaseLister interface {
	Execute(ctx context.Context, registryURL, packageName string) (*domain.ReleaseResult, error)
}

// DigestGetter returns the head commit of a package.
type DigestGetter interface {
	Execute(ctx context.Context, registryURL, packageName, branch string) (string, error)
}

// LookupConfig contains configuration for a batch of package lookups.
type LookupConfig struct {
	RegistryURL string
	Packages    []string
	Branch      string
	WithDigest  bool
}

// LookupResult is the outcome of a single package lookup.
type LookupResult struct {
	Package    string           `json:"package"`
	Repository string           `json:"repository,omitempty"`
	SourceURL  string           `json:"sourceUrl,omitempty"`
	Releases   []domain.Release `json:"releases,omitempty"`
	Digest     string           `json:"digest,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// LookupOrchestrator resolves packages and fetches their releases and digests,
// retrying failures of the external host.
type LookupOrchestrator struct {
	resolver   RepoResolver
	releases   ReleaseLister
	digests    DigestGetter
	logger     *zap.Logger
	retryCount uint64
	retryDelay time.Duration
}

// NewLookupOrchestrator creates a new lookup orchestrator.
func NewLookupOrchestrator(
	resolver RepoResolver,
	releases ReleaseLister,
	digests DigestGetter,
	logger *zap.Logger,
) *LookupOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LookupOrchestrator{
		resolver:   resolver,
		releases:   releases,
		digests:    digests,
		logger:     logger,
		retryCount: DefaultRetryCount,
		retryDelay: DefaultRetryDelay,
	}
}

// WithRetry overrides the retry policy; zero values keep the defaults.
func (o *LookupOrchestrator) WithRetry(count uint64, delay time.Duration) *LookupOrchestrator {
	if count > 0 {
		o.retryCount = count
	}
	if delay > 0 {
		o.retryDelay = delay
	}
	return o
}

// Execute looks up every package in order. A failed package is reported in
// its result and does not stop the batch.
func (o *LookupOrchestrator) Execute(ctx context.Context, cfg LookupConfig) ([]LookupResult, error) {
	if err := ValidateRegistryURL(cfg.RegistryURL); err != nil {
		return nil, err
	}
	if cfg.Branch != "" {
		if err := ValidateBranchName(cfg.Branch); err != nil {
			return nil, err
		}
	}
	for _, pkg := range cfg.Packages {
		if err := ValidatePackageName(pkg); err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultLookupTimeout)
	defer cancel()
	logger := o.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("Starting package lookup",
		zap.Int("packages", len(cfg.Packages)),
		zap.String("registry_url", cfg.RegistryURL))
	results := make([]LookupResult, 0, len(cfg.Packages))
	for _, pkg := range cfg.Packages {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("lookup interrupted: %w", err)
		}
		result := o.lookup(ctx, cfg, pkg)
		if result.Error != "" {
			logger.Warn("Package lookup failed", zap.String("package", pkg), zap.String("error", result.Error))
		} else {
			logger.Debug("Package lookup finished",
				zap.String("package", pkg),
				zap.String("repository", result.Repository),
				zap.Int("releases", len(result.Releases)))
		}
		results = append(results, result)
	}
	return results, nil
}

func (o *LookupOrchestrator) lookup(ctx context.Context, cfg LookupConfig, pkg string) LookupResult {
	result := LookupResult{Package: pkg}
	err := o.withRetry(ctx, func(ctx context.Context) error {
		repo, err := o.resolver.Resolve(ctx, cfg.RegistryURL, pkg)
		if err != nil {
			return err
		}
		result.Repository = repo
		return nil
	})
	if err != nil {
		result.Error = fmt.Sprintf("failed to resolve repository: %v", err)
		return result
	}
	err = o.withRetry(ctx, func(ctx context.Context) error {
		releases, err := o.releases.Execute(ctx, cfg.RegistryURL, pkg)
		if err != nil {
			return err
		}
		result.SourceURL = releases.SourceURL
		result.Releases = releases.Releases
		return nil
	})
	if err != nil {
		result.Error = fmt.Sprintf("failed to list releases: %v", err)
		return result
	}
	if !cfg.WithDigest {
		return result
	}
	err = o.withRetry(ctx, func(ctx context.Context) error {
		digest, err := o.digests.Execute(ctx, cfg.RegistryURL, pkg, cfg.Branch)
		if err != nil {
			return err
		}
		result.Digest = digest
		return nil
	})
	if err != nil {
		result.Error = fmt.Sprintf("failed to get digest: %v", err)
	}
	return result
}

// withRetry retries fn only while it fails with an external host error.
func (o *LookupOrchestrator) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	strategy := retry.WithMaxRetries(o.retryCount, retry.NewExponential(o.retryDelay))
	return retry.Do(ctx, strategy, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && domain.IsExternalHostError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
