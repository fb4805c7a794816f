package platform

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/compozy/tgit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const statusesPath = "GET /projects/some%2Frepo/commits/0d9c7726c3d628b7e28af234595cfd20febdbf8e/statuses"

func branchGit(exists bool) *mockGitRepository {
	git := new(mockGitRepository)
	git.On("BranchExists", mock.Anything, "some-branch").Return(exists, nil)
	git.On("BranchCommit", mock.Anything, "some-branch").Return("0d9c7726c3d628b7e28af234595cfd20febdbf8e", nil)
	return git
}

func TestRepo_GetBranchStatus(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		statuses string
		want     domain.BranchStatus
	}{
		{"yellow without statuses", `[]`, domain.BranchStatusYellow},
		{"green when all succeed", `[{"state":"success","name":"a"},{"state":"success","name":"b"}]`, domain.BranchStatusGreen},
		{"yellow when pending", `[{"state":"success"},{"state":"pending"}]`, domain.BranchStatusYellow},
		{"red when failed", `[{"state":"failure"},{"state":"pending"}]`, domain.BranchStatusRed},
		{"green when failures are allowed", `[{"state":"failure","allow_failure":true},{"state":"success"}]`, domain.BranchStatusGreen},
		{
			"green when a pipeline was retried",
			`[{"state":"failure","target_url":"https://ci/1","updated_at":"2021-01-01T10:00:00Z"},` +
				`{"state":"success","target_url":"https://ci/1","updated_at":"2021-01-01T11:00:00Z"}]`,
			domain.BranchStatusGreen,
		},
		{"yellow for unknown states", `[{"state":"running"}]`, domain.BranchStatusYellow},
	}
	for _, tc := range cases {
		t.Run("Should return "+tc.name, func(t *testing.T) {
			repo, _ := newTestRepo(t, map[string]http.HandlerFunc{statusesPath: okJSON(tc.statuses)}, branchGit(true))
			status, err := repo.GetBranchStatus(ctx, "some-branch")
			require.NoError(t, err)
			assert.Equal(t, tc.want, status)
		})
	}
	t.Run("Should fail when the branch is gone", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{}, branchGit(false))
		_, err := repo.GetBranchStatus(ctx, "some-branch")
		assert.ErrorIs(t, err, domain.ErrRepositoryChanged)
	})
	t.Run("Should fail when the commit is unknown", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{}, branchGit(true))
		_, err := repo.GetBranchStatus(ctx, "some-branch")
		assert.ErrorIs(t, err, domain.ErrRepositoryChanged)
	})
	t.Run("Should propagate server errors", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{
			statusesPath: respond(http.StatusBadGateway, ""),
		}, branchGit(true))
		_, err := repo.GetBranchStatus(ctx, "some-branch")
		require.Error(t, err)
		assert.True(t, domain.IsExternalHostError(err))
	})
	t.Run("Should propagate git errors", func(t *testing.T) {
		git := new(mockGitRepository)
		git.On("BranchExists", mock.Anything, "some-branch").Return(false, errors.New("broken"))
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{}, git)
		_, err := repo.GetBranchStatus(ctx, "some-branch")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrRepositoryChanged)
	})
}

func TestRepo_GetBranchStatusCheck(t *testing.T) {
	ctx := context.Background()
	statuses := `[{"name":"renovate/stability-days","state":"success"},{"name":"other","state":"running"}]`
	t.Run("Should map the named check", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{statusesPath: okJSON(statuses)}, branchGit(true))
		status, err := repo.GetBranchStatusCheck(ctx, "some-branch", "renovate/stability-days")
		require.NoError(t, err)
		assert.Equal(t, domain.BranchStatusGreen, status)
	})
	t.Run("Should map unknown states to yellow", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{statusesPath: okJSON(statuses)}, branchGit(true))
		status, err := repo.GetBranchStatusCheck(ctx, "some-branch", "other")
		require.NoError(t, err)
		assert.Equal(t, domain.BranchStatusYellow, status)
	})
	t.Run("Should return none for missing checks", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{statusesPath: okJSON(statuses)}, branchGit(true))
		status, err := repo.GetBranchStatusCheck(ctx, "some-branch", "missing")
		require.NoError(t, err)
		assert.Equal(t, domain.BranchStatusNone, status)
	})
}

func TestRepo_SetBranchStatus(t *testing.T) {
	ctx := context.Background()
	postPath := "POST /projects/some%2Frepo/commit/0d9c7726c3d628b7e28af234595cfd20febdbf8e/statuses"
	cases := []struct {
		state domain.BranchStatus
		want  string
	}{
		{domain.BranchStatusGreen, "success"},
		{domain.BranchStatusYellow, "pending"},
		{domain.BranchStatusRed, "failure"},
	}
	for _, tc := range cases {
		t.Run("Should post "+tc.want+" for "+string(tc.state), func(t *testing.T) {
			repo, api := newTestRepo(t, map[string]http.HandlerFunc{
				postPath:     respond(http.StatusCreated, `{}`),
				statusesPath: okJSON(`[]`),
			}, branchGit(true))
			repo.SetBranchStatus(ctx, domain.BranchStatusConfig{
				BranchName:  "some-branch",
				Context:     "some-context",
				Description: "some-description",
				State:       tc.state,
				URL:         "some-url",
			})
			calls := api.calls(postPath)
			require.Len(t, calls, 1)
			assert.JSONEq(t, `{"state":"`+tc.want+`","description":"some-description",`+
				`"context":"some-context","target_url":"some-url"}`, calls[0].Body)
			assert.Len(t, api.calls(statusesPath), 1)
		})
	}
	t.Run("Should omit an empty target URL", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			postPath:     respond(http.StatusCreated, `{}`),
			statusesPath: okJSON(`[]`),
		}, branchGit(true))
		repo.SetBranchStatus(ctx, domain.BranchStatusConfig{BranchName: "some-branch", State: domain.BranchStatusGreen})
		calls := api.calls(postPath)
		require.Len(t, calls, 1)
		assert.NotContains(t, calls[0].Body, "target_url")
	})
	t.Run("Should swallow failures", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			postPath: respond(http.StatusBadRequest,
				`{"message":"Cannot transition status via :enqueue from :pending (Reason(s): Status cannot transition via \"enqueue\")"}`),
		}, branchGit(true))
		assert.NotPanics(t, func() {
			repo.SetBranchStatus(ctx, domain.BranchStatusConfig{BranchName: "some-branch", State: domain.BranchStatusGreen})
		})
		assert.Len(t, api.calls(postPath), 1)
		assert.Empty(t, api.calls(statusesPath))
	})
}
