package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/compozy/tgit/internal/domain"
)

// NotForkedPattern is the forked_from_project value of a project that is not a fork.
const NotForkedPattern = "Forked Project not found"

// Tag is an element of projects/:id/repository/tags.
type Tag struct {
	Name   string     `json:"name"`
	Commit *TagCommit `json:"commit,omitempty"`
}

// TagCommit is the commit a tag points to.
type TagCommit struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Validate checks the required fields.
func (t Tag) Validate() error {
	if t.Name == "" {
		return errors.New("tag without name")
	}
	return nil
}

// ToRelease converts the tag; an unparseable created_at leaves the timestamp unset.
func (t Tag) ToRelease() domain.Release {
	release := domain.Release{Version: t.Name, GitRef: t.Name}
	if t.Commit != nil {
		release.ReleaseTimestamp = ParseTimestamp(t.Commit.CreatedAt)
	}
	return release
}

// Commit is the body of projects/:id/repository/commits endpoints.
type Commit struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Validate checks the required fields.
func (c Commit) Validate() error {
	if c.ID == "" {
		return errors.New("commit without id")
	}
	return nil
}

// Project is the body of projects/:id.
type Project struct {
	ID                   int     `json:"id"`
	Archived             bool    `json:"archived"`
	DefaultBranch        *string `json:"default_branch"`
	TemplateRepository   bool    `json:"template_repository"`
	SSHURLToRepo         string  `json:"ssh_url_to_repo"`
	HTTPURLToRepo        string  `json:"http_url_to_repo"`
	HTTPSURLToRepo       *string `json:"https_url_to_repo"`
	ForkedFromProject    any     `json:"forked_from_project"`
	MergeRequestsEnabled *bool   `json:"merge_requests_enabled"`
	PathWithNamespace    string  `json:"path_with_namespace"`
	MergeMethod          string  `json:"merge_method"`
}

// IsFork reports whether the project is a fork.
func (p Project) IsFork() bool {
	s, ok := p.ForkedFromProject.(string)
	return !ok || s != NotForkedPattern
}

// CloneURL prefers the https URL and falls back to http.
func (p Project) CloneURL() string {
	if p.HTTPSURLToRepo != nil {
		return *p.HTTPSURLToRepo
	}
	return p.HTTPURLToRepo
}

// CommitStatus is an element of projects/:id/commits/:sha/statuses.
type CommitStatus struct {
	State        string `json:"state"`
	Name         string `json:"name"`
	AllowFailure bool   `json:"allow_failure,omitempty"`
	TargetURL    string `json:"target_url,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// ToEntry converts the status; an unparseable updated_at is treated as absent.
func (s CommitStatus) ToEntry() domain.StatusEntry {
	return domain.StatusEntry{
		State:        domain.StatusState(s.State),
		Name:         s.Name,
		AllowFailure: s.AllowFailure,
		TargetURL:    s.TargetURL,
		UpdatedAt:    ParseTimestamp(s.UpdatedAt),
	}
}

// User is the body of user and users/:name.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	State    string `json:"state"`
}

// MergeRequest is the body of the merge request endpoints.
type MergeRequest struct {
	ID           int      `json:"id"`
	IID          int      `json:"iid"`
	Title        string   `json:"title"`
	State        string   `json:"state"`
	SourceBranch string   `json:"source_branch"`
	TargetBranch string   `json:"target_branch"`
	Description  string   `json:"description"`
	MergeStatus  string   `json:"merge_status"`
	Assignee     *User    `json:"assignee,omitempty"`
	Reviewers    []User   `json:"reviewers,omitempty"`
	Labels       []string `json:"labels"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// Validate checks the required fields.
func (m MergeRequest) Validate() error {
	if m.ID == 0 {
		return errors.New("merge request without id")
	}
	return nil
}

// MergeRequestReview is the body of projects/:id/merge_request/:id/review.
type MergeRequestReview struct {
	ID        int      `json:"id"`
	IID       int      `json:"iid"`
	State     string   `json:"state"`
	Reviewers []User   `json:"reviewers"`
	Labels    []string `json:"labels"`
}

// Issue is the body of the issue endpoints.
type Issue struct {
	ID          int      `json:"id"`
	IID         int      `json:"iid"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
}

// Note is a merge request comment.
type Note struct {
	ID   int    `json:"id"`
	Body string `json:"body"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses the timestamp formats the API emits. It returns nil
// for empty or unrecognised values.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
