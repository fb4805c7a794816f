package orchestrator

import (
	"context"

	"github.com/compozy/tgit/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Mock for RepoResolver
type mockRepoResolver struct {
	mock.Mock
}

func (m *mockRepoResolver) Resolve(ctx context.Context, registryURL, packageName string) (string, error) {
	args := m.Called(ctx, registryURL, packageName)
	return args.String(0), args.Error(1)
}

// Mock for ReleaseLister
type mockReleaseLister struct {
	mock.Mock
}

func (m *mockReleaseLister) Execute(ctx context.Context, registryURL, packageName string) (*domain.ReleaseResult, error) {
	args := m.Called(ctx, registryURL, packageName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReleaseResult), args.Error(1)
}

// Mock for DigestGetter
type mockDigestGetter struct {
	mock.Mock
}

func (m *mockDigestGetter) Execute(ctx context.Context, registryURL, packageName, branch string) (string, error) {
	args := m.Called(ctx, registryURL, packageName, branch)
	return args.String(0), args.Error(1)
}
