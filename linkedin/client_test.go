package linkedin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/engine/backoff"
	"github.com/teranos/ladder/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Config{
		BaseURL:      server.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
	})
	client.SetHTTPClient(server.Client())
	return client
}

func testSession() *engine.Session {
	return &engine.Session{Token: "tok", Expiry: time.Now().Add(time.Hour)}
}

func TestStatusMapping(t *testing.T) {
	t.Run("401 maps to auth expiry", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.FindJobs(context.Background(), testSession(), engine.Criteria{})
		require.Error(t, err)
		assert.True(t, errors.IsAuthError(err))
	})

	t.Run("429 carries the Retry-After hint", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, err := client.FindJobs(context.Background(), testSession(), engine.Criteria{})
		require.Error(t, err)
		assert.True(t, errors.IsRateLimited(err))

		cls := backoff.Classify(err)
		assert.Equal(t, backoff.Transient, cls.Class)
		assert.Equal(t, 7*time.Second, cls.RetryAfter)
	})

	t.Run("500 is a transient service failure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.FindJobs(context.Background(), testSession(), engine.Criteria{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
		assert.Equal(t, backoff.Transient, backoff.Classify(err).Class)
	})
}

func TestFindJobs_ParsesResults(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/job-search", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "Python Developer", r.URL.Query().Get("keywords"))
		assert.Equal(t, "true", r.URL.Query().Get("easyApply"))

		json.NewEncoder(w).Encode(jobSearchResponse{Elements: []jobElement{
			{ID: "j1", Title: "Python Developer", CompanyName: "Acme", Location: "Berlin", EasyApply: true},
			{ID: "", Title: "malformed row is skipped"},
			{ID: "j2", Title: "Backend Engineer", CompanyName: "Beta"},
		}})
	}))

	jobs, err := client.FindJobs(context.Background(), testSession(), engine.Criteria{
		Keywords:      []string{"Python", "Developer"},
		EasyApplyOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j1", jobs[0].ID)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.True(t, jobs[0].EasyApply)
}

func TestLogin_PersistsAndReusesToken(t *testing.T) {
	var exchanges int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, tokenEndpoint, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "test-client", r.FormValue("client_id"))

		exchanges++
		json.NewEncoder(w).Encode(tokenResponse{
			AccessToken:  "fresh-token",
			RefreshToken: "refresh-handle",
			ExpiresIn:    3600,
		})
	}))

	session, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", session.Token)
	assert.Equal(t, "refresh-handle", session.RefreshHandle)
	assert.Equal(t, 1, exchanges)

	// Second login finds the cached token and skips the exchange
	again, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", again.Token)
	assert.Equal(t, 1, exchanges)
}

func TestCachedSession_NeverExchanges(t *testing.T) {
	var exchanges int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600})
	}))

	// Nothing cached yet
	_, err := client.CachedSession()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, 0, exchanges)

	// Seed the cache through a real login
	_, err = client.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, exchanges)

	session, err := client.CachedSession()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", session.Token)
	assert.Equal(t, 1, exchanges)

	// An expired cache is still returned, not refreshed
	expired := testSession()
	expired.Expiry = time.Now().Add(-time.Hour)
	require.NoError(t, client.saveToken(expired))

	session, err = client.CachedSession()
	require.NoError(t, err)
	assert.False(t, session.ValidAt(time.Now(), 0))
	assert.Equal(t, 1, exchanges)
}

func TestRefresh_UsesRefreshHandle(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.FormValue("grant_type"))
		assert.Equal(t, "old-handle", r.FormValue("refresh_token"))

		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "new-token", ExpiresIn: 3600})
	}))

	fresh, err := client.Refresh(context.Background(), &engine.Session{
		Token: "old-token", RefreshHandle: "old-handle",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-token", fresh.Token)
	// Handle is carried forward when the server does not rotate it
	assert.Equal(t, "old-handle", fresh.RefreshHandle)
}

func TestRefresh_WithoutHandleIsAuthError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := client.Refresh(context.Background(), &engine.Session{Token: "tok"})
	require.Error(t, err)
	assert.True(t, errors.IsAuthError(err))
}

func TestApply_SendsCoverLetter(t *testing.T) {
	var received applicationRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/jobs/j1/applications", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))

	err := client.Apply(context.Background(), testSession(),
		engine.JobPosting{ID: "j1", Company: "Acme"}, "Dear Acme")
	require.NoError(t, err)
	assert.Equal(t, "Dear Acme", received.CoverLetter)
}

func TestSendMessage_RejectsEmptyText(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	err := client.SendMessage(context.Background(), testSession(),
		engine.RecruiterContact{ID: "r1"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, parseRetryAfter("30"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("garbage"))

	// HTTP-date form rounds down to a positive duration
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	got := parseRetryAfter(future)
	assert.Greater(t, got, 80*time.Second)
}
