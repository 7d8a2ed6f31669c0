package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	shared "github.com/stridelog/server/pkg"
	"github.com/stridelog/server/pkg/infrastructure/oauth"
	"github.com/stridelog/server/pkg/types"
)

const (
	tokenURL = "https://www.strava.com/oauth/token"

	// Refresh when the access token has less than this left. Strava
	// tokens live 6 hours; the buffer keeps a token from expiring in
	// the middle of a paginated listing.
	expiryBuffer = 5 * time.Minute
)

// tokenSource implements oauth.TokenSource on top of the stored
// credentials document. Refresh is lazy: the expiry check runs on every
// Token call, nothing is scheduled. Refreshed tokens are persisted so
// the next process start picks them up.
type tokenSource struct {
	db           shared.Database
	clientID     string
	clientSecret string
	endpoint     string
	httpClient   *http.Client

	mu     sync.Mutex
	cached *oauth.Token
}

func newTokenSource(db shared.Database, clientID, clientSecret string) *tokenSource {
	return &tokenSource{
		db:           db,
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     tokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *tokenSource) Token(ctx context.Context) (*oauth.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	if time.Until(s.cached.Expiry) > expiryBuffer {
		return s.cached, nil
	}
	return s.refreshLocked(ctx)
}

func (s *tokenSource) ForceRefresh(ctx context.Context) (*oauth.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return nil, err
	}
	return s.refreshLocked(ctx)
}

// loadLocked populates the cache from the credentials document on first
// use. Callers hold s.mu.
func (s *tokenSource) loadLocked(ctx context.Context) error {
	if s.cached != nil {
		return nil
	}
	creds, err := s.db.GetCredentials(ctx, types.SourceStrava)
	if err != nil {
		return fmt.Errorf("load strava credentials: %w", err)
	}
	if creds.RefreshToken == "" {
		return fmt.Errorf("strava credentials have no refresh token")
	}
	s.cached = &oauth.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       creds.ExpiresAt,
	}
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// refreshLocked exchanges the refresh token and persists the result.
// Callers hold s.mu.
func (s *tokenSource) refreshLocked(ctx context.Context) (*oauth.Token, error) {
	form := url.Values{
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.cached.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh strava token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("strava token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	expiry := time.Unix(tr.ExpiresAt, 0).UTC()
	s.cached = &oauth.Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		Expiry:       expiry,
	}

	// Strava rotates the refresh token; losing the new one would force
	// a manual re-authorization, so persistence failure is an error.
	err = s.db.UpdateCredentials(ctx, types.SourceStrava, map[string]interface{}{
		"access_token":  tr.AccessToken,
		"refresh_token": tr.RefreshToken,
		"expires_at":    expiry,
		"updated_at":    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("persist refreshed strava token: %w", err)
	}

	slog.Info("Refreshed Strava access token", "expires_at", expiry.Format(time.RFC3339))
	return s.cached, nil
}
