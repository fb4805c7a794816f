package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	mergeStatusCanBeMerged = "can_be_merged"
	reviewStateApproved    = "approved"
	mrStateOpened          = "opened"
	stateEventClose        = "close"
	stateEventReopen       = "reopen"
)

var errNotMergeable = errors.New("merge request is not mergeable yet")

type createMergeRequest struct {
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Labels       string `json:"labels"`
}

type updateMergeRequest struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	StateEvent  string  `json:"state_event,omitempty"`
	AssigneeID  int     `json:"assignee_id,omitempty"`
	ReviewerIDs []int   `json:"reviewer_ids,omitempty"`
	Labels      *string `json:"labels,omitempty"`
}

func (r *Repo) mergeRequestPath(id int, suffix string) string {
	return r.projectPath(fmt.Sprintf("/merge_request/%d%s", id, suffix))
}

func normalizeState(state string) domain.PrState {
	if state == mrStateOpened {
		return domain.PrStateOpen
	}
	return domain.PrState(state)
}

// massagePr moves the draft marker from the title into IsDraft.
func massagePr(pr domain.Pr) domain.Pr {
	if title, ok := strings.CutPrefix(pr.Title, domain.DraftPrefix); ok {
		pr.Title = title
		pr.IsDraft = true
	}
	return pr
}

func (r *Repo) fetchPrList(ctx context.Context) ([]domain.Pr, error) {
	path := r.projectPath("/merge_requests?per_page=100")
	if !r.ignorePrAuthor {
		path += "&scope=created_by_me"
	}
	var mrs []repository.MergeRequest
	if _, err := r.platform.http.GetJSON(ctx, path, &mrs, &repository.RequestOptions{Paginate: true}); err != nil {
		r.logger.Debug("Error fetching PR list", zap.Error(err))
		if errors.Is(err, domain.ErrForbidden) {
			return nil, domain.ErrPlatformAuthentication
		}
		return nil, fmt.Errorf("failed to list merge requests: %w", err)
	}
	prs := make([]domain.Pr, 0, len(mrs))
	for _, mr := range mrs {
		prs = append(prs, massagePr(domain.Pr{
			Number:       mr.ID,
			SourceBranch: mr.SourceBranch,
			Title:        mr.Title,
			State:        normalizeState(mr.State),
			CreatedAt:    repository.ParseTimestamp(mr.CreatedAt),
		}))
	}
	return prs, nil
}

// GetPrList returns the merge requests of the repository. The list is
// fetched once per session.
func (r *Repo) GetPrList(ctx context.Context) ([]domain.Pr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prList == nil {
		prs, err := r.fetchPrList(ctx)
		if err != nil {
			return nil, err
		}
		r.prList = prs
	}
	return slices.Clone(r.prList), nil
}

// getMR reads a merge request and folds its review into the merge status.
func (r *Repo) getMR(ctx context.Context, id int) (*repository.MergeRequest, error) {
	r.logger.Debug("getMR", zap.Int("id", id))
	var mr repository.MergeRequest
	if _, err := r.platform.http.GetJSON(ctx, r.mergeRequestPath(id, ""), &mr, nil); err != nil {
		return nil, fmt.Errorf("failed to get merge request %d: %w", id, err)
	}
	var review repository.MergeRequestReview
	if _, err := r.platform.http.GetJSON(ctx, r.mergeRequestPath(id, "/review"), &review, nil); err != nil {
		return nil, fmt.Errorf("failed to get review of merge request %d: %w", id, err)
	}
	mr.Reviewers = review.Reviewers
	if mr.MergeStatus == mergeStatusCanBeMerged && review.State != reviewStateApproved {
		mr.MergeStatus = review.State
	}
	return &mr, nil
}

// GetPr returns the merge request with the given id.
func (r *Repo) GetPr(ctx context.Context, id int) (*domain.Pr, error) {
	mr, err := r.getMR(ctx, id)
	if err != nil {
		return nil, err
	}
	pr := domain.Pr{
		Number:        mr.ID,
		DisplayNumber: displayNumber(mr.IID),
		SourceBranch:  mr.SourceBranch,
		TargetBranch:  mr.TargetBranch,
		Title:         mr.Title,
		Body:          mr.Description,
		State:         normalizeState(mr.State),
		HasAssignees:  mr.Assignee != nil && mr.Assignee.ID != 0,
		HasReviewers:  len(mr.Reviewers) > 0,
		Labels:        mr.Labels,
		// The API exposes no head commit here; the source branch addresses it.
		SHA:       mr.SourceBranch,
		CreatedAt: repository.ParseTimestamp(mr.CreatedAt),
	}
	if mr.MergeStatus != mergeStatusCanBeMerged {
		pr.CannotMergeReason = fmt.Sprintf("mr.merge_status=%q", mr.MergeStatus)
	}
	pr = massagePr(pr)
	return &pr, nil
}

func matchesState(state, desired domain.PrState) bool {
	if desired == domain.PrStateAll || desired == "" {
		return true
	}
	if negated, ok := strings.CutPrefix(string(desired), "!"); ok {
		return string(state) != negated
	}
	return state == desired
}

// FindPr returns the first listed merge request matching cfg, or nil.
func (r *Repo) FindPr(ctx context.Context, cfg domain.FindPrConfig) (*domain.Pr, error) {
	r.logger.Debug("findPr",
		zap.String("branch", cfg.BranchName), zap.String("title", cfg.Title), zap.String("state", string(cfg.State)))
	prs, err := r.GetPrList(ctx)
	if err != nil {
		return nil, err
	}
	for _, pr := range prs {
		if pr.SourceBranch == cfg.BranchName &&
			(cfg.Title == "" || pr.Title == cfg.Title) &&
			matchesState(pr.State, cfg.State) {
			return &pr, nil
		}
	}
	return nil, nil
}

// GetBranchPr returns the open merge request of branch, or nil.
func (r *Repo) GetBranchPr(ctx context.Context, branch string) (*domain.Pr, error) {
	existing, err := r.FindPr(ctx, domain.FindPrConfig{BranchName: branch, State: domain.PrStateOpen})
	if err != nil || existing == nil {
		return nil, err
	}
	return r.GetPr(ctx, existing.Number)
}

// CreatePr opens a merge request and, when requested, schedules its merge.
func (r *Repo) CreatePr(ctx context.Context, cfg domain.CreatePrConfig) (*domain.Pr, error) {
	title := cfg.Title
	if cfg.Draft {
		title = domain.DraftPrefix + title
	}
	r.logger.Debug("Creating Merge Request", zap.String("title", title))
	body := createMergeRequest{
		SourceBranch: cfg.SourceBranch,
		TargetBranch: cfg.TargetBranch,
		Title:        title,
		Description:  r.platform.sanitize(cfg.Body),
		Labels:       strings.Join(cfg.Labels, ","),
	}
	var mr repository.MergeRequest
	if _, err := r.platform.http.PostJSON(ctx, r.projectPath("/merge_requests"), &mr, &repository.RequestOptions{Body: body}); err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", err)
	}
	if err := mr.Validate(); err != nil {
		return nil, domain.NewExternalHostError(err, domain.PlatformID)
	}
	pr := domain.Pr{
		Number:        mr.ID,
		DisplayNumber: displayNumber(mr.IID),
		SourceBranch:  cfg.SourceBranch,
		TargetBranch:  defaultString(mr.TargetBranch, cfg.TargetBranch),
		Title:         defaultString(mr.Title, title),
		Body:          mr.Description,
		State:         normalizeState(defaultString(mr.State, mrStateOpened)),
		Labels:        mr.Labels,
		CreatedAt:     repository.ParseTimestamp(mr.CreatedAt),
	}
	pr = massagePr(pr)
	r.mu.Lock()
	if r.prList != nil {
		r.prList = append(r.prList, pr)
	}
	r.mu.Unlock()
	r.tryAutomerge(ctx, pr.Number, cfg.PlatformOptions)
	return &pr, nil
}

// UpdatePr changes the title, description and state of a merge request.
// A listed draft keeps its draft marker.
func (r *Repo) UpdatePr(ctx context.Context, cfg domain.UpdatePrConfig) error {
	title := cfg.Title
	prs, err := r.GetPrList(ctx)
	if err != nil {
		return err
	}
	for _, pr := range prs {
		if pr.Number == cfg.Number && pr.IsDraft {
			title = domain.DraftPrefix + title
			break
		}
	}
	body := updateMergeRequest{
		Title:       title,
		Description: r.platform.sanitize(cfg.Body),
	}
	switch cfg.State {
	case domain.PrStateClosed:
		body.StateEvent = stateEventClose
	case domain.PrStateOpen:
		body.StateEvent = stateEventReopen
	}
	if _, err := r.platform.http.PutJSON(ctx, r.mergeRequestPath(cfg.Number, ""), nil, &repository.RequestOptions{Body: body}); err != nil {
		return fmt.Errorf("failed to update merge request %d: %w", cfg.Number, err)
	}
	r.tryAutomerge(ctx, cfg.Number, cfg.PlatformOptions)
	return nil
}

// MergePr merges a merge request and reports whether it succeeded.
func (r *Repo) MergePr(ctx context.Context, id int, strategy domain.MergeStrategy) bool {
	body := map[string]string{"merge_type": string(strategy)}
	_, err := r.platform.http.PutJSON(ctx, r.mergeRequestPath(id, "/merge"), nil, &repository.RequestOptions{Body: body})
	if err == nil {
		return true
	}
	var httpErr *repository.HTTPError
	switch {
	case errors.Is(err, domain.ErrAuthenticationFailed):
		r.logger.Debug("No permissions to merge PR", zap.Int("id", id))
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotAcceptable:
		r.logger.Debug("PR not acceptable for merging", zap.Int("id", id), zap.Error(err))
	default:
		r.logger.Debug("PR merge failed", zap.Int("id", id), zap.Error(err))
	}
	return false
}

// tryAutomerge waits for the merge request to become mergeable, then merges
// it with the repository's merge method. Failures are logged.
func (r *Repo) tryAutomerge(ctx context.Context, id int, opts domain.PlatformPrOptions) {
	if !opts.UsePlatformAutomerge {
		return
	}
	attempts := r.platform.opts.AutomergeAttempts
	backoff := retry.WithMaxRetries(attempts-1, retry.NewFibonacci(r.platform.opts.AutomergeDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		mr, err := r.getMR(ctx, id)
		if err != nil {
			return err
		}
		if mr.MergeStatus != mergeStatusCanBeMerged {
			return retry.RetryableError(errNotMergeable)
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNotMergeable) {
		r.logger.Debug("Automerge on PR creation failed", zap.Int("id", id), zap.Error(err))
		return
	}
	strategy := domain.MergeStrategy(r.mergeMethod)
	if r.mergeMethod == mergeMethodMerge {
		strategy = domain.MergeStrategyMergeCommit
	}
	if !r.MergePr(ctx, id, strategy) {
		r.logger.Debug("Automerge on PR creation failed", zap.Int("id", id))
	}
}

// AddAssignees assigns the first of assignees to the merge request.
func (r *Repo) AddAssignees(ctx context.Context, id int, assignees []string) {
	r.logger.Debug("Adding assignees", zap.Int("id", id), zap.Strings("assignees", assignees))
	if len(assignees) == 0 {
		return
	}
	ids, err := r.platform.getUserIDs(ctx, assignees)
	if err == nil {
		body := updateMergeRequest{AssigneeID: ids[0]}
		_, err = r.platform.http.PutJSON(ctx, r.mergeRequestPath(id, ""), nil, &repository.RequestOptions{Body: body})
	}
	if err != nil {
		r.logger.Warn("Failed to add assignees", zap.Int("id", id), zap.Strings("assignees", assignees), zap.Error(err))
	}
}

// AddReviewers requests review from the reviewers not yet on the merge request.
func (r *Repo) AddReviewers(ctx context.Context, id int, reviewers []string) {
	r.logger.Debug("Adding reviewers", zap.Int("id", id), zap.Strings("reviewers", reviewers))
	mr, err := r.getMR(ctx, id)
	if err != nil {
		r.logger.Warn("Failed to get existing reviewers", zap.Int("id", id), zap.Error(err))
		return
	}
	existing := make(map[string]bool, len(mr.Reviewers))
	for _, reviewer := range mr.Reviewers {
		existing[reviewer.Username] = true
	}
	var added []string
	for _, reviewer := range reviewers {
		if !existing[reviewer] {
			added = append(added, reviewer)
		}
	}
	if len(added) == 0 {
		return
	}
	ids, err := r.platform.getUserIDs(ctx, added)
	if err != nil {
		r.logger.Warn("Failed to get IDs of the new reviewers", zap.Int("id", id), zap.Error(err))
		return
	}
	body := updateMergeRequest{ReviewerIDs: ids}
	if _, err := r.platform.http.PutJSON(ctx, r.mergeRequestPath(id, ""), nil, &repository.RequestOptions{Body: body}); err != nil {
		r.logger.Warn("Failed to add reviewers", zap.Int("id", id), zap.Error(err))
	}
}

// DeleteLabel removes label from the merge request.
func (r *Repo) DeleteLabel(ctx context.Context, id int, label string) {
	r.logger.Debug("Deleting label", zap.Int("id", id), zap.String("label", label))
	pr, err := r.GetPr(ctx, id)
	if err == nil {
		labels := strings.Join(slices.DeleteFunc(slices.Clone(pr.Labels), func(l string) bool {
			return l == label
		}), ",")
		body := updateMergeRequest{Labels: &labels}
		_, err = r.platform.http.PutJSON(ctx, r.mergeRequestPath(id, ""), nil, &repository.RequestOptions{Body: body})
	}
	if err != nil {
		r.logger.Warn("Failed to delete label", zap.Int("id", id), zap.String("label", label), zap.Error(err))
	}
}

func displayNumber(iid int) string {
	return fmt.Sprintf("Merge Request #%d", iid)
}
