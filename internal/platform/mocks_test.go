package platform

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testToken = "some-token"
	testRepo  = "some/repo"
)

// Mock for LocalGitRepository
type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) Clone(ctx context.Context, url, dir string, submodules bool) error {
	args := m.Called(ctx, url, dir, submodules)
	return args.Error(0)
}

func (m *mockGitRepository) BranchExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) BranchCommit(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   string
}

// fakeAPI routes "METHOD /escaped/path" to handlers and records every request.
// Unrouted requests answer 404.
type fakeAPI struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + strings.TrimPrefix(r.URL.EscapedPath(), "/api/v3")
	a.mu.Lock()
	a.requests = append(a.requests, recordedRequest{
		Method: r.Method,
		Path:   key,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	handler, ok := a.routes[key]
	a.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	handler(w, r)
}

func (a *fakeAPI) calls(key string) []recordedRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []recordedRequest
	for _, req := range a.requests {
		if req.Path == key {
			out = append(out, req)
		}
	}
	return out
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func okJSON(body string) http.HandlerFunc {
	return respond(http.StatusOK, body)
}

func newTestPlatform(t *testing.T, routes map[string]http.HandlerFunc, params domain.PlatformParams) (*Platform, *fakeAPI, error) {
	t.Helper()
	api := &fakeAPI{routes: routes}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	if params.Endpoint == "" {
		params.Endpoint = server.URL + "/api/v3"
	}
	if params.Token == "" {
		params.Token = testToken
	}
	p, _, err := InitPlatform(context.Background(), params, Options{
		Client:            server.Client(),
		Registerer:        prometheus.NewRegistry(),
		StatusSettleDelay: -1,
		AutomergeAttempts: 3,
		AutomergeDelay:    time.Millisecond,
	})
	return p, api, err
}

const testProject = `{"id":1,"default_branch":"master","http_url_to_repo":"https://git.code.tencent.com/some/repo.git",` +
	`"ssh_url_to_repo":"git@git.code.tencent.com:some/repo.git","forked_from_project":"Forked Project not found",` +
	`"merge_method":"merge","path_with_namespace":"some/repo"}`

// newTestRepo opens a session on some/repo. Routes without a project route get testProject.
func newTestRepo(t *testing.T, routes map[string]http.HandlerFunc, git *mockGitRepository) (*Repo, *fakeAPI) {
	t.Helper()
	if _, ok := routes["GET /projects/some%2Frepo"]; !ok {
		routes["GET /projects/some%2Frepo"] = okJSON(testProject)
	}
	p, api, err := newTestPlatform(t, routes, domain.PlatformParams{GitAuthor: "Bot <bot@example.com>"})
	require.NoError(t, err)
	if git == nil {
		git = new(mockGitRepository)
	}
	repo, _, err := p.InitRepo(context.Background(), domain.RepoParams{Repository: testRepo}, git)
	require.NoError(t, err)
	return repo, api
}
