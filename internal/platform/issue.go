package platform

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"go.uber.org/zap"
)

const issuesDisabledMessage = "Issues are disabled for this repo"

type issuePayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Labels       string `json:"labels"`
	Confidential bool   `json:"confidential"`
}

func (r *Repo) issuePath(id int) string {
	return r.projectPath(fmt.Sprintf("/issues/%d", id))
}

// GetIssueList returns the open issues of the repository. The list is
// fetched once per session and dropped when an issue is created.
func (r *Repo) GetIssueList(ctx context.Context) ([]repository.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.issueList == nil {
		var issues []repository.Issue
		path := r.projectPath("/issues?per_page=100&state=opened")
		if _, err := r.platform.http.GetJSON(ctx, path, &issues, &repository.RequestOptions{Paginate: true}); err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		if issues == nil {
			issues = []repository.Issue{}
		}
		r.issueList = issues
	}
	return slices.Clone(r.issueList), nil
}

// GetIssue returns the issue with the given id, or nil when it cannot be read.
func (r *Repo) GetIssue(ctx context.Context, id int) *domain.Issue {
	var issue repository.Issue
	if _, err := r.platform.http.GetJSON(ctx, r.issuePath(id), &issue, nil); err != nil {
		r.logger.Debug("Error getting issue", zap.Int("number", id), zap.Error(err))
		return nil
	}
	result := &domain.Issue{Number: id, Title: issue.Title}
	if issue.Description != nil {
		result.Body = *issue.Description
	}
	return result
}

// FindIssue returns the open issue titled title, or nil.
func (r *Repo) FindIssue(ctx context.Context, title string) *domain.Issue {
	issues, err := r.GetIssueList(ctx)
	if err != nil {
		r.logger.Warn("Error finding issue", zap.Error(err))
		return nil
	}
	for _, issue := range issues {
		if issue.Title == title {
			return r.GetIssue(ctx, issue.ID)
		}
	}
	return nil
}

// EnsureIssue creates the issue titled cfg.Title, or updates the issue found
// by title or reuse title when it differs. Failures are logged and reported
// as unchanged.
func (r *Repo) EnsureIssue(ctx context.Context, cfg domain.EnsureIssueConfig) domain.EnsureIssueResult {
	result, err := r.ensureIssue(ctx, cfg)
	if err != nil {
		if strings.HasPrefix(errorBody(err), issuesDisabledMessage) {
			r.logger.Debug("Could not create issue", zap.Error(err))
		} else {
			r.logger.Warn("Could not ensure issue", zap.Error(err))
		}
		return domain.EnsureIssueUnchanged
	}
	return result
}

func (r *Repo) ensureIssue(ctx context.Context, cfg domain.EnsureIssueConfig) (domain.EnsureIssueResult, error) {
	description := r.platform.MassageMarkdown(r.platform.sanitize(cfg.Body))
	issues, err := r.GetIssueList(ctx)
	if err != nil {
		return domain.EnsureIssueUnchanged, err
	}
	issue := findIssueByTitle(issues, cfg.Title)
	if issue == nil && cfg.ReuseTitle != "" {
		issue = findIssueByTitle(issues, cfg.ReuseTitle)
	}
	if issue == nil {
		body := issuePayload{
			Title:        cfg.Title,
			Description:  description,
			Labels:       strings.Join(cfg.Labels, ","),
			Confidential: cfg.Confidential,
		}
		if _, err := r.platform.http.PostJSON(ctx, r.projectPath("/issues"), nil, &repository.RequestOptions{Body: body}); err != nil {
			return domain.EnsureIssueUnchanged, err
		}
		r.logger.Info("Issue created", zap.String("title", cfg.Title))
		r.mu.Lock()
		r.issueList = nil
		r.mu.Unlock()
		return domain.EnsureIssueCreated, nil
	}
	var existing repository.Issue
	if _, err := r.platform.http.GetJSON(ctx, r.issuePath(issue.ID), &existing, nil); err != nil {
		return domain.EnsureIssueUnchanged, err
	}
	existingDescription := ""
	if existing.Description != nil {
		existingDescription = *existing.Description
	}
	if issue.Title == cfg.Title && existingDescription == description {
		return domain.EnsureIssueUnchanged, nil
	}
	labels := cfg.Labels
	if labels == nil {
		labels = issue.Labels
	}
	body := issuePayload{
		Title:        cfg.Title,
		Description:  description,
		Labels:       strings.Join(labels, ","),
		Confidential: cfg.Confidential,
	}
	r.logger.Debug("Updating issue", zap.Int("id", issue.ID))
	if _, err := r.platform.http.PutJSON(ctx, r.issuePath(issue.ID), nil, &repository.RequestOptions{Body: body}); err != nil {
		return domain.EnsureIssueUnchanged, err
	}
	return domain.EnsureIssueUpdated, nil
}

// EnsureIssueClosing closes every open issue titled title.
func (r *Repo) EnsureIssueClosing(ctx context.Context, title string) error {
	issues, err := r.GetIssueList(ctx)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		if issue.Title != title {
			continue
		}
		r.logger.Debug("Closing issue", zap.Int("id", issue.ID))
		body := map[string]string{"state_event": stateEventClose}
		if _, err := r.platform.http.PutJSON(ctx, r.issuePath(issue.ID), nil, &repository.RequestOptions{Body: body}); err != nil {
			return fmt.Errorf("failed to close issue %d: %w", issue.ID, err)
		}
	}
	return nil
}

func findIssueByTitle(issues []repository.Issue, title string) *repository.Issue {
	for i := range issues {
		if issues[i].Title == title {
			return &issues[i]
		}
	}
	return nil
}
