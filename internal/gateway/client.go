package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	loginPath       = "/auth/login"
	maxResponseBody = 64 * 1024
	defaultTimeout  = 10 * time.Second
)

// Client talks to a gateway over HTTP.
type Client struct {
	BaseURL    string
	HttpClient *http.Client
}

// NewClient returns a Client for baseURL. A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HttpClient: &http.Client{Timeout: timeout},
	}
}

// Login posts the credential pair. A 4xx answer with a JSON body is a failed
// login, not an error; anything that prevents a verdict wraps ErrUnavailable.
func (c *Client) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	body, err := json.Marshal(LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login data: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out LoginResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response (status %d): %v", ErrUnavailable, resp.StatusCode, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out.Success {
		return &AuthResult{Success: true, Session: out.Session}, nil
	}
	return &AuthResult{Success: false, Message: out.Error}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}
