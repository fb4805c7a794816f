package service

import "time"

// DefaultRegistryURL is the public Tencent Git instance.
const DefaultRegistryURL = "https://git.code.tencent.com"

// Cache namespaces shared by the datasource operations.
const (
	ReleasesCacheNamespace = "datasource-tgit-tags"
	CommitCacheNamespace   = "datasource-tgit-tags-commit"
	RepoCacheNamespace     = "datasource-tgit-tags-repo"
)

// DefaultCacheTTL applies when no cache TTL is configured.
const DefaultCacheTTL = 60 * time.Minute

// minRepoSegments is the depth at which a package path is taken as a repository without probing.
const minRepoSegments = 2
