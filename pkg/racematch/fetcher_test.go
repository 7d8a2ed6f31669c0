package racematch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteFetcherReusesSession(t *testing.T) {
	var sessionIDs []string
	var deleted []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/fetch":
			var req remoteFetchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			sessionIDs = append(sessionIDs, req.SessionID)
			json.NewEncoder(w).Encode(remoteFetchResponse{
				HTML:      "<html>ok</html>",
				SessionID: "sess-1",
				Success:   true,
			})
		case r.Method == http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	fetcher := &RemoteFetcher{ServiceURL: server.URL, HTTPClient: server.Client()}

	html, err := fetcher.Fetch(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)

	_, err = fetcher.Fetch(context.Background(), "https://example.com/b")
	require.NoError(t, err)

	// First call opens the session, second reuses it.
	assert.Equal(t, []string{"", "sess-1"}, sessionIDs)

	require.NoError(t, fetcher.Close())
	assert.Equal(t, []string{"/session/sess-1"}, deleted)

	// Close with no open session is a no-op.
	require.NoError(t, fetcher.Close())
	assert.Len(t, deleted, 1)
}

func TestRemoteFetcherReportsServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(remoteFetchResponse{Success: false, Error: "navigation timeout"})
	}))
	defer server.Close()

	fetcher := &RemoteFetcher{ServiceURL: server.URL, HTTPClient: server.Client()}

	_, err := fetcher.Fetch(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigation timeout")
}

func TestDirectFetcherReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<html>direct</html>"))
	}))
	defer server.Close()

	fetcher := newDirectFetcher()
	html, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>direct</html>", html)
}

func TestDirectFetcherRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := newDirectFetcher()
	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestDirectFetcherWaitsOutChallenge(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.Write([]byte("<html>Checking your browser</html>"))
			return
		}
		w.Write([]byte("<html>cleared</html>"))
	}))
	defer server.Close()

	fetcher := newDirectFetcher()
	html, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>cleared</html>", html)
	assert.Equal(t, 2, hits)
}

func TestLooksLikeChallenge(t *testing.T) {
	assert.True(t, looksLikeChallenge("<div class=\"challenge-platform\"></div>"))
	assert.False(t, looksLikeChallenge("<html><table></table></html>"))
}

func TestNewFetcherSelection(t *testing.T) {
	_, ok := NewFetcher("https://fetch.internal").(*RemoteFetcher)
	assert.True(t, ok)

	_, ok = NewFetcher("").(*DirectFetcher)
	assert.True(t, ok)
}
