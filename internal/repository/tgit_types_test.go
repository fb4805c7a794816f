package repository

import (
	"testing"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTag_ToRelease(t *testing.T) {
	t.Run("Should use commit creation time when present", func(t *testing.T) {
		tag := Tag{Name: "v1.0.0", Commit: &TagCommit{CreatedAt: "2020-03-04T12:01:37.000-06:00"}}
		release := tag.ToRelease()
		assert.Equal(t, "v1.0.0", release.Version)
		assert.Equal(t, "v1.0.0", release.GitRef)
		require.NotNil(t, release.ReleaseTimestamp)
		assert.True(t, release.ReleaseTimestamp.Equal(time.Date(2020, 3, 4, 18, 1, 37, 0, time.UTC)))
	})
	t.Run("Should leave timestamp absent without commit date", func(t *testing.T) {
		assert.Nil(t, Tag{Name: "v1.1.0", Commit: &TagCommit{}}.ToRelease().ReleaseTimestamp)
		assert.Nil(t, Tag{Name: "v1.1.1"}.ToRelease().ReleaseTimestamp)
	})
	t.Run("Should require a name", func(t *testing.T) {
		assert.Error(t, Tag{}.Validate())
		assert.NoError(t, Tag{Name: "v1"}.Validate())
	})
}

func TestProject_IsFork(t *testing.T) {
	decode := func(t *testing.T, body string) Project {
		var p Project
		require.NoError(t, json.Unmarshal([]byte(body), &p))
		return p
	}
	t.Run("Should not be a fork with the not found marker", func(t *testing.T) {
		assert.False(t, decode(t, `{"forked_from_project":"Forked Project not found"}`).IsFork())
	})
	t.Run("Should be a fork with a source project", func(t *testing.T) {
		assert.True(t, decode(t, `{"forked_from_project":{"id":3}}`).IsFork())
	})
	t.Run("Should prefer https clone URL", func(t *testing.T) {
		p := decode(t, `{"http_url_to_repo":"http://h/a.git","https_url_to_repo":"https://h/a.git"}`)
		assert.Equal(t, "https://h/a.git", p.CloneURL())
		p = decode(t, `{"http_url_to_repo":"http://h/a.git"}`)
		assert.Equal(t, "http://h/a.git", p.CloneURL())
	})
}

func TestCommitStatus_ToEntry(t *testing.T) {
	t.Run("Should parse updated_at", func(t *testing.T) {
		entry := CommitStatus{State: "success", Name: "ci", TargetURL: "u", UpdatedAt: "2021-01-02T03:04:05Z"}.ToEntry()
		assert.Equal(t, domain.StatusStateSuccess, entry.State)
		require.NotNil(t, entry.UpdatedAt)
	})
	t.Run("Should treat unparseable updated_at as absent", func(t *testing.T) {
		entry := CommitStatus{State: "pending", UpdatedAt: "yesterday"}.ToEntry()
		assert.Nil(t, entry.UpdatedAt)
	})
}
