package repository

import (
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// authTransport applies the credential of the request host.
type authTransport struct {
	lookup CredentialLookup
	base   http.RoundTripper
	mu     sync.Mutex
	byKey  map[string]*oauth2.Transport
}

// NewAuthTransport returns a RoundTripper that authenticates each request with
// the token lookup resolves for its host. Requests that already carry an
// Authorization header, or whose host has no credential, pass through unchanged.
func NewAuthTransport(lookup CredentialLookup, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{
		lookup: lookup,
		base:   base,
		byKey:  map[string]*oauth2.Transport{},
	}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") != "" || t.lookup == nil {
		return t.base.RoundTrip(req)
	}
	token := t.lookup.Find(req.URL.Host)
	if token == "" {
		return t.base.RoundTrip(req)
	}
	return t.transportFor(token).RoundTrip(req)
}

func (t *authTransport) transportFor(token string) *oauth2.Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr, ok := t.byKey[token]; ok {
		return tr
	}
	tr := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   t.base,
	}
	t.byKey[token] = tr
	return tr
}
