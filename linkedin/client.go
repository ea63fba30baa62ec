// Package linkedin implements the remote-service ports (auth, discovery,
// actions) against a LinkedIn-style REST API.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/ladder/engine/backoff"
	"github.com/teranos/ladder/errors"
	"github.com/teranos/ladder/internal/httpclient"
)

// DefaultBaseURL is the API root when none is configured.
const DefaultBaseURL = "https://api.linkedin.com"

// Client talks to the remote API. It paces outgoing requests with a
// token-bucket limiter so bursts from concurrent workers stay inside
// the account's request budget.
type Client struct {
	baseURL    string
	httpClient *httpclient.SaferClient
	pacer      *rate.Limiter
	config     Config
	logger     *zap.SugaredLogger
}

// Config holds client configuration.
type Config struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	RedirectURI       string
	TokenPath         string // where the session token JSON is cached
	RequestsPerMinute int    // 0 disables client-side pacing
	TimeoutSeconds    int
	Logger            *zap.SugaredLogger
}

// NewClient creates an API client with SSRF-safer transport and
// request pacing.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 30
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	pace := rate.Inf
	if config.RequestsPerMinute > 0 {
		pace = rate.Every(time.Minute / time.Duration(config.RequestsPerMinute))
	}

	blockPrivateIP := true
	saferClient := httpclient.NewSaferClientWithOptions(
		time.Duration(config.TimeoutSeconds)*time.Second,
		httpclient.SaferClientOptions{BlockPrivateIP: &blockPrivateIP},
	)

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: saferClient,
		pacer:      rate.NewLimiter(pace, 1),
		config:     config,
		logger:     logger,
	}
}

// doJSON sends one paced, authenticated request and decodes the JSON
// response into out (out may be nil for calls with no response body).
func (c *Client) doJSON(ctx context.Context, token, method, path string, query url.Values, body, out interface{}) error {
	if err := c.pacer.Wait(ctx); err != nil {
		return errors.Wrap(err, "request pacing interrupted")
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		reqBody = bytes.NewBuffer(raw)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp, respBody, path)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return errors.Wrapf(err, "failed to unmarshal response from %s", path)
		}
	}
	return nil
}

// statusError maps API status codes onto the engine's error taxonomy
// so the backoff policy can classify them without knowing HTTP.
func (c *Client) statusError(resp *http.Response, body []byte, path string) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errors.Wrapf(errors.ErrAuthExpired, "%s returned 401: %s", path, truncate(body))
	case http.StatusForbidden:
		return errors.Wrapf(errors.ErrForbidden, "%s returned 403: %s", path, truncate(body))
	case http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s returned 404", path)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.Wrapf(errors.ErrValidation, "%s rejected the request: %s", path, truncate(body))
	case http.StatusTooManyRequests:
		err := errors.Wrapf(errors.ErrRateLimited, "%s returned 429", path)
		if after := parseRetryAfter(resp.Header.Get("Retry-After")); after > 0 {
			err = backoff.WithRetryAfter(err, after)
		}
		return err
	}
	if resp.StatusCode >= 500 {
		return errors.Wrapf(errors.ErrServiceUnavailable, "%s returned %d", path, resp.StatusCode)
	}
	return errors.Newf("%s failed with status %d: %s", path, resp.StatusCode, truncate(body))
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func newFormRequest(ctx context.Context, rawURL string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	return body, nil
}

func truncate(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// SetHTTPClient allows overriding the HTTP client for testing
// ⚠️ WARNING: Only use this in tests. Production code should use the default SSRF-safer client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}
