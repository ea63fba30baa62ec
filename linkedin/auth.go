package linkedin

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/errors"
)

const tokenEndpoint = "/oauth/v2/accessToken"

// tokenResponse is the OAuth token exchange response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// storedToken is the on-disk session cache at Config.TokenPath.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Login obtains a session. A cached token that has not expired is
// reused without a network call; otherwise a fresh token exchange runs
// and the result is persisted for the next process.
func (c *Client) Login(ctx context.Context) (*engine.Session, error) {
	if cached, err := c.loadToken(); err == nil && cached.ValidAt(time.Now(), 0) {
		c.logger.Debugw("Reusing cached session token", "path", c.config.TokenPath)
		return cached, nil
	}

	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return nil, errors.New("client credentials not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)
	if c.config.RedirectURI != "" {
		form.Set("redirect_uri", c.config.RedirectURI)
	}

	session, err := c.exchangeToken(ctx, form)
	if err != nil {
		return nil, errors.Wrap(err, "login failed")
	}

	if err := c.saveToken(session); err != nil {
		// Session is usable even if the cache write fails
		c.logger.Warnw("Failed to persist session token", "error", err, "path", c.config.TokenPath)
	}
	return session, nil
}

// CachedSession returns the on-disk session without any network call,
// or ErrNotFound when no token is cached. Callers check ValidAt
// themselves; an expired session is still returned so its expiry can
// be reported.
func (c *Client) CachedSession() (*engine.Session, error) {
	session, err := c.loadToken()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrNotFound, "no cached token")
		}
		return nil, err
	}
	return session, nil
}

// Refresh exchanges the session's refresh handle for a new token.
func (c *Client) Refresh(ctx context.Context, session *engine.Session) (*engine.Session, error) {
	if session == nil || session.RefreshHandle == "" {
		return nil, errors.Wrap(errors.ErrAuthExpired, "no refresh handle available")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", session.RefreshHandle)
	form.Set("client_id", c.config.ClientID)
	form.Set("client_secret", c.config.ClientSecret)

	fresh, err := c.exchangeToken(ctx, form)
	if err != nil {
		return nil, errors.Wrap(err, "token refresh failed")
	}
	if fresh.RefreshHandle == "" {
		// Some deployments rotate refresh tokens only on login
		fresh.RefreshHandle = session.RefreshHandle
	}

	if err := c.saveToken(fresh); err != nil {
		c.logger.Warnw("Failed to persist refreshed token", "error", err, "path", c.config.TokenPath)
	}
	return fresh, nil
}

func (c *Client) exchangeToken(ctx context.Context, form url.Values) (*engine.Session, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "request pacing interrupted")
	}

	var tok tokenResponse
	if err := c.postForm(ctx, tokenEndpoint, form, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, errors.New("token endpoint returned no access token")
	}

	now := time.Now()
	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return &engine.Session{
		Token:         tok.AccessToken,
		IssuedAt:      now,
		Expiry:        now.Add(time.Duration(expiresIn) * time.Second),
		RefreshHandle: tok.RefreshToken,
	}, nil
}

// postForm sends an application/x-www-form-urlencoded request. The
// token endpoint is the only caller; everything else speaks JSON.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := newFormRequest(ctx, c.baseURL+path, form)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp, body, path)
	}
	return json.Unmarshal(body, out)
}

func (c *Client) loadToken() (*engine.Session, error) {
	if c.config.TokenPath == "" {
		return nil, errors.New("no token path configured")
	}
	raw, err := os.ReadFile(c.config.TokenPath)
	if err != nil {
		return nil, err
	}
	var tok storedToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, errors.Wrap(err, "token cache is corrupt")
	}
	return &engine.Session{
		Token:         tok.AccessToken,
		IssuedAt:      tok.IssuedAt,
		Expiry:        tok.ExpiresAt,
		RefreshHandle: tok.RefreshToken,
	}, nil
}

func (c *Client) saveToken(session *engine.Session) error {
	if c.config.TokenPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.config.TokenPath), 0o700); err != nil {
		return errors.Wrap(err, "failed to create token directory")
	}
	raw, err := json.MarshalIndent(storedToken{
		AccessToken:  session.Token,
		RefreshToken: session.RefreshHandle,
		IssuedAt:     session.IssuedAt,
		ExpiresAt:    session.Expiry,
	}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}
	// 0600: the token grants account access
	return os.WriteFile(c.config.TokenPath, raw, 0o600)
}

// ClearToken removes the cached token file. Used by logout.
func (c *Client) ClearToken() error {
	if c.config.TokenPath == "" {
		return nil
	}
	if err := os.Remove(c.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove token cache")
	}
	return nil
}
