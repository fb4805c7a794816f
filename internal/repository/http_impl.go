package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/compozy/tgit/internal/domain"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	headerPage     = "x-page"
	headerNextPage = "x-next-page"
	headerPrevPage = "x-prev-page"
)

// HTTPConfig configures NewHTTPClient.
type HTTPConfig struct {
	BaseURL    string
	Client     *http.Client
	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

type tgitHTTP struct {
	client  *http.Client
	baseURL string
	logger  *zap.Logger
	metrics *requestMetrics
}

// NewHTTPClient creates the Tencent Git REST client.
func NewHTTPClient(cfg HTTPConfig) HTTPClient {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &tgitHTTP{
		client:  client,
		baseURL: cfg.BaseURL,
		logger:  logger,
		metrics: newRequestMetrics(cfg.Registerer),
	}
}

func (c *tgitHTTP) BaseURL() string {
	return c.baseURL
}

func (c *tgitHTTP) GetJSON(ctx context.Context, url string, out any, opts *RequestOptions) (*Response, error) {
	return c.requestJSON(ctx, http.MethodGet, url, out, opts)
}

func (c *tgitHTTP) PostJSON(ctx context.Context, url string, out any, opts *RequestOptions) (*Response, error) {
	return c.requestJSON(ctx, http.MethodPost, url, out, opts)
}

func (c *tgitHTTP) PutJSON(ctx context.Context, url string, out any, opts *RequestOptions) (*Response, error) {
	return c.requestJSON(ctx, http.MethodPut, url, out, opts)
}

func (c *tgitHTTP) Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, opts)
}

func (c *tgitHTTP) requestJSON(
	ctx context.Context,
	method, url string,
	out any,
	opts *RequestOptions,
) (*Response, error) {
	resp, err := c.do(ctx, method, url, opts)
	if err != nil {
		return nil, err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return nil, domain.NewExternalHostError(
			fmt.Errorf("failed to decode response from %s: %w", url, err),
			domain.PlatformID,
		)
	}
	return resp, nil
}

func (c *tgitHTTP) do(ctx context.Context, method, rawURL string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}
	base := c.baseURL
	if opts.BaseURL != "" {
		base = opts.BaseURL
	}
	target, err := ResolveURL(base, rawURL)
	if err != nil {
		return nil, err
	}
	first, err := c.send(ctx, method, target, opts)
	if err != nil {
		return nil, err
	}
	if !opts.Paginate || !first.Cursor.HasNext() {
		return first, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(first.Body, &items); err != nil {
		// Only array bodies are concatenated.
		return first, nil
	}
	visited := map[int]bool{first.Cursor.Current: true}
	cursor := first.Cursor
	for cursor.HasNext() {
		next := *cursor.Next
		if visited[next] {
			c.logger.Debug("Pagination cursor repeats a page", zap.String("url", target), zap.Int("page", next))
			break
		}
		visited[next] = true
		pageURL, err := withPage(target, next)
		if err != nil {
			return nil, err
		}
		page, err := c.send(ctx, method, pageURL, opts)
		if err != nil {
			return nil, err
		}
		if !json.Valid(page.Body) {
			return nil, domain.NewExternalHostError(
				fmt.Errorf("invalid JSON in page %d of %s", next, target),
				domain.PlatformID,
			)
		}
		var pageItems []json.RawMessage
		if err := json.Unmarshal(page.Body, &pageItems); err != nil {
			break
		}
		items = append(items, pageItems...)
		cursor = page.Cursor
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble pages of %s: %w", target, err)
	}
	first.Body = body
	return first, nil
}

func (c *tgitHTTP) send(ctx context.Context, method, target string, opts *RequestOptions) (*Response, error) {
	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	c.logger.Debug("TGit API request", zap.String("method", method), zap.String("url", target))
	res, err := c.client.Do(req)
	if err != nil {
		c.metrics.observe(method, 0)
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer res.Body.Close()
	c.metrics.observe(method, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, target, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return nil, classifyError(c.logger, &HTTPError{
			Method:     method,
			URL:        target,
			StatusCode: res.StatusCode,
			Body:       data,
		})
	}
	return &Response{
		StatusCode: res.StatusCode,
		Headers:    res.Header,
		Body:       data,
		Cursor:     parsePageCursor(res.Header),
	}, nil
}

// ResolveURL joins a relative path onto base. Absolute URLs are returned as is.
// Percent escapes in the path are preserved.
func ResolveURL(base, raw string) (string, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if _, err := url.Parse(raw); err != nil {
			return "", fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		return raw, nil
	}
	if base == "" {
		return "", fmt.Errorf("relative URL %q without a base URL", raw)
	}
	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(raw, "/")
	if _, err := url.Parse(joined); err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", joined, err)
	}
	return joined, nil
}

func withPage(target string, page int) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parsePageCursor reads the pagination headers. Without a usable x-page
// header the response carries no cursor.
func parsePageCursor(h http.Header) *domain.PageCursor {
	current, ok := headerInt(h, headerPage)
	if !ok {
		return nil
	}
	cursor := &domain.PageCursor{Current: current}
	if next, ok := headerInt(h, headerNextPage); ok {
		cursor.Next = &next
	}
	if prev, ok := headerInt(h, headerPrevPage); ok {
		cursor.Previous = &prev
	}
	return cursor
}

func headerInt(h http.Header, key string) (int, bool) {
	raw := strings.TrimSpace(h.Get(key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
