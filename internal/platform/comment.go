package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"github.com/compozy/tgit/internal/service"
	"go.uber.org/zap"
)

const deletedCommentBody = "> deleted"

func (r *Repo) notesPath(number int, suffix string) string {
	return r.projectPath(fmt.Sprintf("/merge_requests/%d/notes%s", number, suffix))
}

func (r *Repo) getComments(ctx context.Context, number int) ([]repository.Note, error) {
	var notes []repository.Note
	if _, err := r.platform.http.GetJSON(ctx, r.notesPath(number, ""), &notes, &repository.RequestOptions{Paginate: true}); err != nil {
		return nil, fmt.Errorf("failed to get comments of #%d: %w", number, err)
	}
	r.logger.Debug("Found comments", zap.Int("number", number), zap.Int("count", len(notes)))
	return notes, nil
}

func (r *Repo) addComment(ctx context.Context, number int, body string) error {
	payload := map[string]string{"body": body}
	if _, err := r.platform.http.PostJSON(ctx, r.notesPath(number, ""), nil, &repository.RequestOptions{Body: payload}); err != nil {
		return fmt.Errorf("failed to add comment to #%d: %w", number, err)
	}
	return nil
}

func (r *Repo) editComment(ctx context.Context, number, id int, body string) error {
	payload := map[string]string{"body": body}
	path := r.notesPath(number, fmt.Sprintf("/%d", id))
	if _, err := r.platform.http.PutJSON(ctx, path, nil, &repository.RequestOptions{Body: payload}); err != nil {
		return fmt.Errorf("failed to edit comment %d of #%d: %w", id, number, err)
	}
	return nil
}

// deleteComment blanks the comment; notes cannot be removed through the API.
func (r *Repo) deleteComment(ctx context.Context, number, id int) error {
	return r.editComment(ctx, number, id, deletedCommentBody)
}

func topicHeading(topic string) string {
	return "### " + topic + "\n\n"
}

// EnsureComment makes sure the merge request carries the comment. A topic
// comment is matched by its heading and rewritten when its body changed.
func (r *Repo) EnsureComment(ctx context.Context, cfg domain.EnsureCommentConfig) error {
	content := r.platform.sanitize(cfg.Content)
	comments, err := r.getComments(ctx, cfg.Number)
	if err != nil {
		return err
	}
	var (
		body        string
		commentID   int
		needsUpdate bool
	)
	if cfg.Topic != "" {
		heading := topicHeading(service.MassageTerminology(cfg.Topic))
		body = service.MassageTerminology(topicHeading(cfg.Topic) + content)
		for _, comment := range comments {
			if strings.HasPrefix(comment.Body, heading) {
				commentID = comment.ID
				needsUpdate = comment.Body != body
			}
		}
	} else {
		body = content
		for _, comment := range comments {
			if comment.Body == body {
				commentID = comment.ID
				needsUpdate = false
			}
		}
	}
	switch {
	case commentID == 0:
		if err := r.addComment(ctx, cfg.Number, body); err != nil {
			return err
		}
		r.logger.Debug("Added comment", zap.Int("number", cfg.Number))
	case needsUpdate:
		if err := r.editComment(ctx, cfg.Number, commentID, body); err != nil {
			return err
		}
		r.logger.Debug("Updated comment", zap.Int("number", cfg.Number))
	default:
		r.logger.Debug("Comment is already up-to-date", zap.Int("number", cfg.Number))
	}
	return nil
}

// EnsureCommentRemoval deletes the first comment matching cfg, if any.
func (r *Repo) EnsureCommentRemoval(ctx context.Context, cfg domain.EnsureCommentRemovalConfig) error {
	comments, err := r.getComments(ctx, cfg.Number)
	if err != nil {
		return err
	}
	var match func(repository.Note) bool
	switch cfg.Type {
	case domain.CommentRemovalByTopic:
		heading := topicHeading(cfg.Topic)
		match = func(n repository.Note) bool { return strings.HasPrefix(n.Body, heading) }
	case domain.CommentRemovalByContent:
		match = func(n repository.Note) bool { return strings.TrimSpace(n.Body) == cfg.Content }
	default:
		return fmt.Errorf("unknown comment removal type %q", cfg.Type)
	}
	for _, comment := range comments {
		if match(comment) {
			return r.deleteComment(ctx, cfg.Number, comment.ID)
		}
	}
	return nil
}
