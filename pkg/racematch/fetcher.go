package racematch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Page-load and challenge-clear caps. A hung scrape would otherwise
// stall an entire sync session.
const (
	pageLoadTimeout  = 30 * time.Second
	challengeTimeout = 15 * time.Second
)

// Fetcher returns rendered HTML for a URL. Implementations may hold a
// browser session or cookie state; Close releases it and must be called
// on every exit path of the enclosing sync session.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// NewFetcher returns a RemoteFetcher when a rendered-page fetch service
// is configured, otherwise a DirectFetcher with its own cookie jar.
func NewFetcher(fetcherURL string) Fetcher {
	if fetcherURL != "" {
		return &RemoteFetcher{
			ServiceURL: fetcherURL,
			HTTPClient: &http.Client{Timeout: pageLoadTimeout + challengeTimeout},
		}
	}
	slog.Warn("RACE_FETCHER_URL not set, falling back to direct HTTP fetch")
	return newDirectFetcher()
}

// RemoteFetcher calls a headless-browser fetch service. The service
// runs a real browser, which clears the listing site's JavaScript
// challenge pages. One remote browser session is created lazily and
// held for the fetcher's lifetime.
type RemoteFetcher struct {
	ServiceURL string
	HTTPClient *http.Client
	sessionID  string
}

type remoteFetchRequest struct {
	URL                string `json:"url"`
	SessionID          string `json:"session_id,omitempty"`
	WaitUntil          string `json:"wait_until"`
	TimeoutMs          int    `json:"timeout_ms"`
	ChallengeTimeoutMs int    `json:"challenge_timeout_ms"`
}

type remoteFetchResponse struct {
	HTML      string `json:"html"`
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

func (f *RemoteFetcher) Fetch(ctx context.Context, url string) (string, error) {
	reqBody := remoteFetchRequest{
		URL:                url,
		SessionID:          f.sessionID,
		WaitUntil:          "networkidle",
		TimeoutMs:          int(pageLoadTimeout / time.Millisecond),
		ChallengeTimeoutMs: int(challengeTimeout / time.Millisecond),
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.ServiceURL+"/fetch", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call fetch service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("fetch service error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var fetchResp remoteFetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&fetchResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !fetchResp.Success {
		return "", fmt.Errorf("remote fetch failed: %s", fetchResp.Error)
	}

	// Keep the browser session the service opened for us
	if fetchResp.SessionID != "" {
		f.sessionID = fetchResp.SessionID
	}

	slog.Debug("Fetched HTML via fetch service", "url", url, "bytes", len(fetchResp.HTML))
	return fetchResp.HTML, nil
}

// Close releases the remote browser session. Skipping this leaks a
// headless browser process on the fetch service.
func (f *RemoteFetcher) Close() error {
	if f.sessionID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, f.ServiceURL+"/session/"+f.sessionID, nil)
	if err != nil {
		return fmt.Errorf("create close request: %w", err)
	}
	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("close browser session: %w", err)
	}
	resp.Body.Close()
	f.sessionID = ""
	return nil
}

// DirectFetcher fetches pages over plain HTTP with a shared cookie jar,
// waiting out JavaScript-challenge interstitials by re-requesting. Only
// suitable for local development; the listing site may still block it.
type DirectFetcher struct {
	HTTPClient *http.Client
}

func newDirectFetcher() *DirectFetcher {
	jar, _ := cookiejar.New(nil)
	return &DirectFetcher{
		HTTPClient: &http.Client{Timeout: pageLoadTimeout, Jar: jar},
	}
}

var challengeMarkers = []string{
	"challenge-platform",
	"Checking your browser",
	"verifying you are human",
}

func (f *DirectFetcher) Fetch(ctx context.Context, url string) (string, error) {
	deadline := time.Now().Add(challengeTimeout)
	for {
		html, err := f.fetchOnce(ctx, url)
		if err != nil {
			return "", err
		}
		if !looksLikeChallenge(html) {
			return html, nil
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("challenge page did not clear within %s", challengeTimeout)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
}

func (f *DirectFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html")

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("http_status_%d: unexpected response (body_len=%d)", resp.StatusCode, len(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (f *DirectFetcher) Close() error { return nil }

func looksLikeChallenge(html string) bool {
	for _, marker := range challengeMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}
