package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const enqueueTransitionError = "Cannot transition status via :enqueue from :pending"

var branchStatusStates = map[domain.BranchStatus]domain.StatusState{
	domain.BranchStatusGreen:  domain.StatusStateSuccess,
	domain.BranchStatusYellow: domain.StatusStatePending,
	domain.BranchStatusRed:    domain.StatusStateFailure,
}

// statusPayload is the body of a commit status update.
type statusPayload struct {
	State       domain.StatusState `json:"state"`
	Description string             `json:"description"`
	Context     string             `json:"context"`
	TargetURL   string             `json:"target_url,omitempty"`
}

func (r *Repo) getStatus(ctx context.Context, branch string) ([]domain.StatusEntry, error) {
	sha, err := r.git.BranchCommit(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit of %s: %w", branch, err)
	}
	var statuses []repository.CommitStatus
	path := r.projectPath(fmt.Sprintf("/commits/%s/statuses", sha))
	if _, err := r.platform.http.GetJSON(ctx, path, &statuses, &repository.RequestOptions{Paginate: true}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("Received 404 when checking branch status, assuming that branch has been deleted",
				zap.String("branch", branch))
			return nil, domain.ErrRepositoryChanged
		}
		r.logger.Debug("Error getting commit status", zap.String("branch", branch), zap.Error(err))
		return nil, err
	}
	entries := make([]domain.StatusEntry, 0, len(statuses))
	for _, status := range statuses {
		entries = append(entries, status.ToEntry())
	}
	return entries, nil
}

// GetBranchStatus reduces the commit statuses of the branch head to a branch status.
func (r *Repo) GetBranchStatus(ctx context.Context, branch string) (domain.BranchStatus, error) {
	exists, err := r.git.BranchExists(ctx, branch)
	if err != nil {
		return domain.BranchStatusNone, fmt.Errorf("failed to look up branch %s: %w", branch, err)
	}
	if !exists {
		return domain.BranchStatusNone, domain.ErrRepositoryChanged
	}
	entries, err := r.getStatus(ctx, branch)
	if err != nil {
		return domain.BranchStatusNone, err
	}
	r.logger.Debug("Got branch statuses", zap.String("branch", branch), zap.Int("count", len(entries)))
	return r.platform.statuses.ComputeBranchStatus(entries), nil
}

// GetBranchStatusCheck returns the status of the named check, or
// BranchStatusNone when the branch head has no such check.
func (r *Repo) GetBranchStatusCheck(ctx context.Context, branch, name string) (domain.BranchStatus, error) {
	entries, err := r.getStatus(ctx, branch)
	if err != nil {
		return domain.BranchStatusNone, err
	}
	return r.platform.statuses.FindStatusCheck(entries, name), nil
}

// SetBranchStatus posts a commit status on the branch head. Failures are
// logged and never returned.
func (r *Repo) SetBranchStatus(ctx context.Context, cfg domain.BranchStatusConfig) {
	if err := r.setBranchStatus(ctx, cfg); err != nil {
		if strings.HasPrefix(errorBody(err), enqueueTransitionError) {
			r.logger.Debug("Ignoring status transition error", zap.Error(err))
			return
		}
		r.logger.Warn("Failed to set branch status", zap.String("branch", cfg.BranchName), zap.Error(err))
	}
}

func (r *Repo) setBranchStatus(ctx context.Context, cfg domain.BranchStatusConfig) error {
	sha, err := r.git.BranchCommit(ctx, cfg.BranchName)
	if err != nil {
		return fmt.Errorf("failed to get commit of %s: %w", cfg.BranchName, err)
	}
	state, ok := branchStatusStates[cfg.State]
	if !ok {
		return fmt.Errorf("unsupported branch status %q", cfg.State)
	}
	payload := statusPayload{
		State:       state,
		Description: cfg.Description,
		Context:     cfg.Context,
		TargetURL:   cfg.URL,
	}
	if err := sleep(ctx, r.platform.opts.StatusSettleDelay); err != nil {
		return err
	}
	path := r.projectPath(fmt.Sprintf("/commit/%s/statuses", sha))
	if _, err := r.platform.http.PostJSON(ctx, path, nil, &repository.RequestOptions{Body: payload}); err != nil {
		return err
	}
	// Refresh so later reads observe the new status.
	if _, err := r.getStatus(ctx, cfg.BranchName); err != nil {
		return err
	}
	return nil
}

// errorBody returns the message of a failed request, or the error text.
func errorBody(err error) string {
	var httpErr *repository.HTTPError
	if !errors.As(err, &httpErr) || len(httpErr.Body) == 0 {
		return err.Error()
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(httpErr.Body, &body) == nil && body.Message != "" {
		return body.Message
	}
	return string(httpErr.Body)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
