package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/compozy/tgit/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock for RepoResolver
type mockRepoResolver struct {
	mock.Mock
}

func (m *mockRepoResolver) Resolve(ctx context.Context, registryURL, packageName string) (string, error) {
	args := m.Called(ctx, registryURL, packageName)
	return args.String(0), args.Error(1)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (repository.HTTPClient, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return repository.NewHTTPClient(repository.HTTPConfig{Client: server.Client()}), server.URL
}

func newTestCache(t *testing.T) repository.CacheRepository {
	t.Helper()
	cache, err := repository.NewMemoryCache(100)
	require.NoError(t, err)
	return cache
}
