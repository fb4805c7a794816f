package platform

import (
	"context"
	"net/http"
	"testing"

	"github.com/compozy/tgit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issueListPath = "GET /projects/some%2Frepo/issues"
	issuePath     = "GET /projects/some%2Frepo/issues/23"
	issuePutPath  = "PUT /projects/some%2Frepo/issues/23"
	issuePostPath = "POST /projects/some%2Frepo/issues"
)

const testIssueList = `[{"id":23,"iid":1,"title":"title-1","labels":["x"]},{"id":24,"iid":2,"title":"title-2"}]`

func TestRepo_FindIssue(t *testing.T) {
	ctx := context.Background()
	t.Run("Should return the issue by title", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(testIssueList),
			issuePath:     okJSON(`{"id":23,"title":"title-1","description":"new-content"}`),
		}, nil)
		issue := repo.FindIssue(ctx, "title-1")
		require.NotNil(t, issue)
		assert.Equal(t, domain.Issue{Number: 23, Title: "title-1", Body: "new-content"}, *issue)
		calls := api.calls(issueListPath)
		require.Len(t, calls, 1)
		assert.Equal(t, "per_page=100&state=opened", calls[0].Query)
	})
	t.Run("Should return nil for unknown titles", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{issueListPath: okJSON(testIssueList)}, nil)
		assert.Nil(t, repo.FindIssue(ctx, "title-3"))
	})
	t.Run("Should return nil when the issue cannot be read", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{issueListPath: okJSON(testIssueList)}, nil)
		assert.Nil(t, repo.FindIssue(ctx, "title-1"))
	})
}

func TestRepo_EnsureIssue(t *testing.T) {
	ctx := context.Background()
	t.Run("Should create a missing issue", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(testIssueList),
			issuePostPath: respond(http.StatusCreated, `{}`),
		}, nil)
		result := repo.EnsureIssue(ctx, domain.EnsureIssueConfig{
			Title:  "new-title",
			Body:   "new PR content",
			Labels: []string{"a", "b"},
		})
		assert.Equal(t, domain.EnsureIssueCreated, result)
		calls := api.calls(issuePostPath)
		require.Len(t, calls, 1)
		assert.JSONEq(t, `{"title":"new-title","description":"new MR content","labels":"a,b","confidential":false}`,
			calls[0].Body)
		_, err := repo.GetIssueList(ctx)
		require.NoError(t, err)
		assert.Len(t, api.calls(issueListPath), 2)
	})
	t.Run("Should update an issue with a changed description", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(testIssueList),
			issuePath:     okJSON(`{"description":"old content"}`),
			issuePutPath:  okJSON(`{}`),
		}, nil)
		result := repo.EnsureIssue(ctx, domain.EnsureIssueConfig{Title: "title-1", Body: "new content", Confidential: true})
		assert.Equal(t, domain.EnsureIssueUpdated, result)
		calls := api.calls(issuePutPath)
		require.Len(t, calls, 1)
		assert.JSONEq(t, `{"title":"title-1","description":"new content","labels":"x","confidential":true}`, calls[0].Body)
	})
	t.Run("Should retitle an issue found by reuse title", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(testIssueList),
			issuePath:     okJSON(`{"description":"content"}`),
			issuePutPath:  okJSON(`{}`),
		}, nil)
		result := repo.EnsureIssue(ctx, domain.EnsureIssueConfig{Title: "title-3", ReuseTitle: "title-1", Body: "content"})
		assert.Equal(t, domain.EnsureIssueUpdated, result)
		require.Len(t, api.calls(issuePutPath), 1)
		assert.Contains(t, api.calls(issuePutPath)[0].Body, `"title":"title-3"`)
	})
	t.Run("Should leave an up-to-date issue alone", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(testIssueList),
			issuePath:     okJSON(`{"description":"content"}`),
		}, nil)
		result := repo.EnsureIssue(ctx, domain.EnsureIssueConfig{Title: "title-1", Body: "content"})
		assert.Equal(t, domain.EnsureIssueUnchanged, result)
		assert.Empty(t, api.calls(issuePutPath))
	})
	t.Run("Should swallow errors", func(t *testing.T) {
		repo, _ := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(`[]`),
			issuePostPath: respond(http.StatusForbidden, `{"message":"Issues are disabled for this repo"}`),
		}, nil)
		result := repo.EnsureIssue(ctx, domain.EnsureIssueConfig{Title: "t", Body: "b"})
		assert.Equal(t, domain.EnsureIssueUnchanged, result)
	})
}

func TestRepo_EnsureIssueClosing(t *testing.T) {
	t.Run("Should close issues with the title", func(t *testing.T) {
		repo, api := newTestRepo(t, map[string]http.HandlerFunc{
			issueListPath: okJSON(testIssueList),
			issuePutPath:  okJSON(`{}`),
		}, nil)
		require.NoError(t, repo.EnsureIssueClosing(context.Background(), "title-1"))
		calls := api.calls(issuePutPath)
		require.Len(t, calls, 1)
		assert.JSONEq(t, `{"state_event":"close"}`, calls[0].Body)
		assert.Empty(t, api.calls("PUT /projects/some%2Frepo/issues/24"))
	})
}
