// Package draft generates outreach text through a local
// OpenAI-compatible completion server (LM Studio, llama.cpp and
// friends all speak this dialect).
package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/ladder/errors"
	"github.com/teranos/ladder/internal/httpclient"
)

const (
	// DefaultBaseURL is LM Studio's default listen address.
	DefaultBaseURL = "http://localhost:1234"

	systemPrompt = "You write short, professional job-search correspondence. " +
		"Reply with the finished text only, no preamble and no sign-off placeholders."
)

// Client implements text drafting against a chat-completions endpoint.
type Client struct {
	baseURL    string
	httpClient *httpclient.SaferClient
	config     Config
	logger     *zap.SugaredLogger
}

// Config holds drafting backend configuration.
type Config struct {
	BaseURL     string
	Model       string
	Temperature *float64 // nil = use default (0.7)
	MaxTokens   *int     // nil = use default (500)
	Timeout     time.Duration
	Logger      *zap.SugaredLogger
}

// NewClient creates a drafting client. The backend usually lives on
// localhost, so private-IP blocking is disabled on this transport.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Temperature == nil {
		defaultTemp := 0.7
		config.Temperature = &defaultTemp
	}
	if config.MaxTokens == nil {
		defaultTokens := 500
		config.MaxTokens = &defaultTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	blockPrivateIP := false
	saferClient := httpclient.NewSaferClientWithOptions(config.Timeout, httpclient.SaferClientOptions{
		BlockPrivateIP: &blockPrivateIP,
	})

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: saferClient,
		config:     config,
		logger:     logger,
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Draft fills the template from the per-target context and asks the
// model to polish it into a finished message.
func (c *Client) Draft(ctx context.Context, template string, fields map[string]string) (string, error) {
	if template == "" {
		return "", errors.Wrap(errors.ErrValidation, "empty template")
	}

	prompt := Fill(template, fields)
	req := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: *c.config.Temperature,
		MaxTokens:   *c.config.MaxTokens,
	}

	maxRetries := 3
	var resp *chatCompletionResponse
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Second
			c.logger.Debugw("Retrying drafting request",
				"attempt", attempt, "max_retries", maxRetries-1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", errors.Wrap(ctx.Err(), "drafting cancelled")
			}
		}

		resp, err = c.createChatCompletion(ctx, req)
		if err == nil {
			break
		}
		if !isRetryableError(err) {
			return "", errors.Wrap(errors.WithSecondaryError(errors.ErrDrafting, err), "drafting backend error")
		}
		c.logger.Warnw("Drafting backend error, will retry",
			"attempt", attempt+1, "error", err, "url", c.baseURL)
	}
	if err != nil {
		return "", errors.Wrapf(errors.WithSecondaryError(errors.ErrDrafting, err),
			"drafting backend unreachable after %d attempts", maxRetries)
	}

	if len(resp.Choices) == 0 {
		return "", errors.Wrap(errors.ErrDrafting, "no completion choices returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.Wrap(errors.ErrDrafting, "model returned empty text")
	}
	return text, nil
}

func (c *Client) createChatCompletion(ctx context.Context, req chatCompletionRequest) (*chatCompletionResponse, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewBuffer(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("completion request failed with status %d: %s",
			resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &completion, nil
}

// Ping checks the backend is up by listing its loaded models.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.WithSecondaryError(errors.ErrServiceUnavailable, err),
			"drafting backend unreachable")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrServiceUnavailable,
			"drafting backend health check returned %d", resp.StatusCode)
	}
	return nil
}

// isRetryableError checks if an error is worth retrying (network-related)
func isRetryableError(err error) bool {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	if syscallErr, ok := err.(*net.OpError); ok {
		if errno, ok := syscallErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	networkErrors := []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
	}
	for _, pattern := range networkErrors {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// SetHTTPClient allows overriding the HTTP client for testing
// ⚠️ WARNING: Only use this in tests. Production code should use the default SSRF-safer client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}
