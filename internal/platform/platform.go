package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/compozy/tgit/internal/config"
	"github.com/compozy/tgit/internal/domain"
	"github.com/compozy/tgit/internal/repository"
	"github.com/compozy/tgit/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// DefaultStatusSettleDelay gives the host time to create pipelines before a status is posted.
	DefaultStatusSettleDelay = time.Second
	// DefaultAutomergeAttempts bounds the merge status polling before automerge.
	DefaultAutomergeAttempts = 5
	// DefaultAutomergeDelay is the first interval of the merge status polling.
	DefaultAutomergeDelay = 500 * time.Millisecond
)

var (
	errTokenRequired  = errors.New("you must configure a Tencent Git personal access token")
	errAuthentication = errors.New("authentication failure")
)

// Options tunes the platform session.
type Options struct {
	// Client carries the base transport; nil uses http.DefaultTransport.
	Client        *http.Client
	Registerer    prometheus.Registerer
	Logger        *zap.Logger
	ServerVersion string
	// StatusSettleDelay defaults to DefaultStatusSettleDelay; a negative value disables it.
	StatusSettleDelay time.Duration
	AutomergeAttempts uint64
	AutomergeDelay    time.Duration
}

// Platform is an authenticated session against one Tencent Git endpoint.
type Platform struct {
	http          repository.HTTPClient
	endpoint      string
	token         string
	gitAuthor     string
	serverVersion *domain.Version
	statuses      *service.StatusAggregator
	logger        *zap.Logger
	opts          Options
}

// InitPlatform validates the credentials and opens a session. When no git
// author is given it is derived from the token's user.
func InitPlatform(ctx context.Context, params domain.PlatformParams, opts Options) (*Platform, domain.PlatformResult, error) {
	if params.Token == "" {
		return nil, domain.PlatformResult{}, errTokenRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := config.DefaultEndpoint
	if params.Endpoint != "" {
		endpoint = config.EnsureTrailingSlash(params.Endpoint)
	} else {
		logger.Debug("Using default Tencent Git endpoint", zap.String("endpoint", endpoint))
	}
	serverVersion, err := domain.NewVersion(defaultString(opts.ServerVersion, domain.DefaultServerVersion))
	if err != nil {
		return nil, domain.PlatformResult{}, fmt.Errorf("invalid server version: %w", err)
	}
	client, err := authenticatedClient(opts.Client, endpoint, params.Token)
	if err != nil {
		return nil, domain.PlatformResult{}, err
	}
	applyDefaults(&opts)
	p := &Platform{
		http: repository.NewHTTPClient(repository.HTTPConfig{
			BaseURL:    endpoint,
			Client:     client,
			Logger:     logger,
			Registerer: opts.Registerer,
		}),
		endpoint:      endpoint,
		token:         params.Token,
		gitAuthor:     params.GitAuthor,
		serverVersion: serverVersion,
		statuses:      service.NewStatusAggregator(logger),
		logger:        logger,
		opts:          opts,
	}
	result := domain.PlatformResult{Endpoint: endpoint, GitAuthor: params.GitAuthor}
	if params.GitAuthor == "" {
		var user repository.User
		if _, err := p.http.GetJSON(ctx, "user", &user, &repository.RequestOptions{Token: params.Token}); err != nil {
			logger.Error("Error authenticating with Tencent Git. Check that your token includes \"api\" permissions",
				zap.Error(err))
			return nil, domain.PlatformResult{}, fmt.Errorf("%w: %w", errAuthentication, err)
		}
		result.GitAuthor = fmt.Sprintf("%s <%s>", user.Name, user.Email)
		p.gitAuthor = result.GitAuthor
	}
	return p, result, nil
}

// Endpoint returns the API root of the session.
func (p *Platform) Endpoint() string {
	return p.endpoint
}

// GitAuthor returns the configured or discovered commit author.
func (p *Platform) GitAuthor() string {
	return p.gitAuthor
}

// GetRepos lists every repository the token can access, except archived ones.
func (p *Platform) GetRepos(ctx context.Context) ([]string, error) {
	p.logger.Debug("Autodiscovering Tencent Git repositories")
	var projects []repository.Project
	_, err := p.http.GetJSON(ctx, "projects/accessable?per_page=100", &projects, &repository.RequestOptions{Paginate: true})
	if err != nil {
		p.logger.Error("Tencent Git getRepos error", zap.Error(err))
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	p.logger.Debug("Discovered projects", zap.Int("count", len(projects)))
	repos := make([]string, 0, len(projects))
	for _, project := range projects {
		if !project.Archived {
			repos = append(repos, project.PathWithNamespace)
		}
	}
	return repos, nil
}

// MassageMarkdown adapts a description to this server's wording and limits.
func (p *Platform) MassageMarkdown(input string) string {
	return service.MassageMarkdown(input, p.serverVersion)
}

// GetVulnerabilityAlerts reports no alerts; the host does not expose them.
func (p *Platform) GetVulnerabilityAlerts(context.Context) ([]domain.VulnerabilityAlert, error) {
	return []domain.VulnerabilityAlert{}, nil
}

func (p *Platform) sanitize(input string) string {
	return service.Sanitize(input, p.token)
}

// endpointToken hands the session token to requests for the endpoint host only.
type endpointToken struct {
	host  string
	token string
}

func (e endpointToken) Find(host string) string {
	if strings.EqualFold(host, e.host) {
		return e.token
	}
	return ""
}

func authenticatedClient(base *http.Client, endpoint, token string) (*http.Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	client := &http.Client{}
	if base != nil {
		*client = *base
	}
	client.Transport = repository.NewAuthTransport(endpointToken{host: u.Host, token: token}, client.Transport)
	return client, nil
}

func applyDefaults(opts *Options) {
	switch {
	case opts.StatusSettleDelay == 0:
		opts.StatusSettleDelay = DefaultStatusSettleDelay
	case opts.StatusSettleDelay < 0:
		opts.StatusSettleDelay = 0
	}
	if opts.AutomergeAttempts == 0 {
		opts.AutomergeAttempts = DefaultAutomergeAttempts
	}
	if opts.AutomergeDelay <= 0 {
		opts.AutomergeDelay = DefaultAutomergeDelay
	}
}

// escapePath addresses a project or file path as a single path segment.
func escapePath(s string) string {
	return strings.ReplaceAll(s, "/", "%2F")
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
