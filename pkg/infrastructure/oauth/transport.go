// Package oauth provides the OAuth2 plumbing shared by source adapters:
// a TokenSource abstraction and an http.RoundTripper that injects bearer
// tokens and retries once on 401 after a forced refresh.
package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Token represents the OAuth token structure we care about
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*Token, error)
	ForceRefresh(context.Context) (*Token, error)
}

// Transport is an http.RoundTripper that authenticates all requests
// using the provided TokenSource.
type Transport struct {
	// Source supplies the token to be used.
	Source TokenSource

	// Base is the base RoundTripper used to make the actual HTTP requests.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// Proactive expiry check happens inside Token()
	ctx := req.Context()
	token, err := t.Source.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("oauth: cannot get token: %w", err)
	}

	req2 := cloneRequest(req)
	req2.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := base.RoundTrip(req2)
	if err != nil {
		return nil, err
	}

	// Reactive retry on 401
	if resp.StatusCode == http.StatusUnauthorized {
		// Drain body to allow connection reuse
		resp.Body.Close()

		slog.Warn("Got 401 Unauthorized, attempting force refresh", "url", req.URL.String())

		token, err = t.Source.ForceRefresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("oauth: force refresh failed: %w", err)
		}

		req2.Header.Set("Authorization", "Bearer "+token.AccessToken)
		return base.RoundTrip(req2)
	}

	return resp, nil
}

// NewHTTPClient creates an HTTP client that authenticates via the
// given token source.
func NewHTTPClient(source TokenSource) *http.Client {
	return &http.Client{
		Transport: &Transport{Source: source},
		Timeout:   30 * time.Second,
	}
}

// cloneRequest returns a clone of the provided *http.Request.
// The clone is a shallow copy of the struct and its Header map.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}
