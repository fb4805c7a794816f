package repository

import (
	"context"
	"net/http"

	"github.com/compozy/tgit/internal/domain"
)

// HTTPClient defines the Tencent Git REST transport.
//
// Relative URLs are resolved against the client's base endpoint, or against
// RequestOptions.BaseURL when set. With Paginate, array bodies are assembled
// across every page announced by the x-next-page header.
type HTTPClient interface {
	GetJSON(ctx context.Context, url string, out any, opts *RequestOptions) (*Response, error)
	PostJSON(ctx context.Context, url string, out any, opts *RequestOptions) (*Response, error)
	PutJSON(ctx context.Context, url string, out any, opts *RequestOptions) (*Response, error)
	// Get returns the raw body without decoding it.
	Get(ctx context.Context, url string, opts *RequestOptions) (*Response, error)
	BaseURL() string
}

// RequestOptions tunes a single request.
type RequestOptions struct {
	Paginate bool
	BaseURL  string
	// Body is JSON encoded and sent with POST and PUT.
	Body any
	// Token overrides the host rule credential for this request.
	Token string
}

// Response is a completed request. For paginated requests Body holds the
// concatenated array and Cursor the cursor of the first page.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Cursor     *domain.PageCursor
}

// CredentialLookup resolves a token by host ("host" or "host:port").
type CredentialLookup interface {
	Find(host string) string
}
