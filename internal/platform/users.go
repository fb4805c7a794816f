package platform

import (
	"context"
	"fmt"
	"net/url"

	"github.com/compozy/tgit/internal/repository"
	"go.uber.org/zap"
)

const userStateActive = "active"

func (p *Platform) getUser(ctx context.Context, username string) (*repository.User, error) {
	var user repository.User
	if _, err := p.http.GetJSON(ctx, "users/"+url.PathEscape(username), &user, nil); err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &user, nil
}

func (p *Platform) getUserID(ctx context.Context, username string) (int, error) {
	user, err := p.getUser(ctx, username)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (p *Platform) getUserIDs(ctx context.Context, usernames []string) ([]int, error) {
	ids := make([]int, 0, len(usernames))
	for _, name := range usernames {
		id, err := p.getUserID(ctx, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (p *Platform) isUserActive(ctx context.Context, username string) bool {
	user, err := p.getUser(ctx, username)
	if err != nil {
		p.logger.Warn("Failed to get user info", zap.String("username", username), zap.Error(err))
		return false
	}
	return user.State == userStateActive
}

// FilterUnavailableUsers keeps the users whose account is active.
func (p *Platform) FilterUnavailableUsers(ctx context.Context, users []string) []string {
	filtered := make([]string, 0, len(users))
	for _, user := range users {
		if p.isUserActive(ctx, user) {
			filtered = append(filtered, user)
		}
	}
	return filtered
}
