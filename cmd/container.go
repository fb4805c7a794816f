package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/compozy/tgit/internal/config"
	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/orchestrator"
	"github.com/compozy/tgit/internal/platform"
	"github.com/compozy/tgit/internal/repository"
	"github.com/compozy/tgit/internal/service"
	"github.com/compozy/tgit/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.
type container struct {
	cfg    *config.Config
	logger *zap.Logger
	client *http.Client

	cache    repository.CacheRepository
	resolver service.RepoResolver
	releases *usecase.ListReleasesUseCase
	digests  *usecase.GetDigestUseCase
	lookup   *orchestrator.LookupOrchestrator
}

// newContainer creates a new container with all the dependencies.
func newContainer(opts rootOptions) (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := newLogger(level, opts.verbose)
	if err != nil {
		return nil, err
	}
	cache, err := newCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: repository.NewAuthTransport(cfg.Credentials(), http.DefaultTransport)}
	// Datasource requests carry absolute URLs built from the registry URL.
	httpClient := repository.NewHTTPClient(repository.HTTPConfig{
		Client:     client,
		Logger:     logger,
		Registerer: prometheus.DefaultRegisterer,
	})
	resolver := service.NewRepoResolver(httpClient, cache, cfg.CacheTTL, logger)
	releases := &usecase.ListReleasesUseCase{
		HTTP:     httpClient,
		Resolver: resolver,
		Cache:    cache,
		CacheTTL: cfg.CacheTTL,
	}
	digests := &usecase.GetDigestUseCase{
		HTTP:     httpClient,
		Resolver: resolver,
		Cache:    cache,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	}
	lookup := orchestrator.NewLookupOrchestrator(resolver, releases, digests, logger).
		WithRetry(cfg.RetryCount, cfg.RetryDelay)
	return &container{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		cache:    cache,
		resolver: resolver,
		releases: releases,
		digests:  digests,
		lookup:   lookup,
	}, nil
}

// newCache returns the in-memory cache, layered over a file cache when
// cache_dir is configured.
func newCache(cfg *config.Config, logger *zap.Logger) (repository.CacheRepository, error) {
	memory, err := repository.NewMemoryCache(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	if cfg.CacheDir == "" {
		return memory, nil
	}
	file := repository.NewFileCache(afero.NewOsFs(), cfg.CacheDir, logger)
	return repository.NewLayeredCache(memory, file, cfg.CacheTTL), nil
}

// platform opens an authenticated platform session.
func (c *container) platform(ctx context.Context) (*platform.Platform, error) {
	if err := c.cfg.ValidateForPlatformOperations(); err != nil {
		return nil, err
	}
	p, _, err := platform.InitPlatform(ctx, domain.PlatformParams{
		Endpoint:  c.cfg.Endpoint,
		Token:     c.cfg.Token,
		GitAuthor: c.cfg.GitAuthor,
	}, platform.Options{
		Logger:        c.logger,
		Registerer:    prometheus.DefaultRegisterer,
		ServerVersion: c.cfg.ServerVersion,
	})
	return p, err
}

var (
	appOnce      sync.Once
	appContainer *container
	appErr       error
)

// getContainer builds the container on first use so that commands without
// dependencies run without a configuration.
func getContainer() (*container, error) {
	appOnce.Do(func() {
		appContainer, appErr = newContainer(rootOpts)
	})
	return appContainer, appErr
}

// InitCommands registers all commands.
func InitCommands() error {
	rootCmd.AddCommand(
		newLookupCmd(),
		newReleasesCmd(),
		newDigestCmd(),
		newResolveCmd(),
		newReposCmd(),
		newBranchStatusCmd(),
		newVersionCmd(),
	)
	return nil
}
