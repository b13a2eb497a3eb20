package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wolfeidau/sessionhub/internal/models"
	"github.com/wolfeidau/sessionhub/internal/server"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
	// CacheDir enables a disk cache for the public listing; empty keeps it in memory.
	CacheDir string
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
	}
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	StatusCode int
	Message    string
	Errors     map[string]string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Errors)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsValidation() bool   { return e.StatusCode == http.StatusBadRequest }

// Client calls the session API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cached  *http.Client
}

// New creates a client. The public listing goes through a caching transport so
// repeated listings honour the server's Cache-Control.
func New(config Config) *Client {
	cached := NewCachingHTTPClient(config.CacheDir)
	cached.Timeout = config.Timeout

	return &Client{
		baseURL: strings.TrimRight(config.ServerURL, "/"),
		token:   config.Token,
		http:    &http.Client{Timeout: config.Timeout},
		cached:  cached,
	}
}

// ListPublic returns all published sessions.
func (c *Client) ListPublic(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := c.do(ctx, c.cached, http.MethodGet, "/api/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListMine returns the caller's sessions.
func (c *Client) ListMine(ctx context.Context) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := c.do(ctx, c.http, http.MethodGet, "/api/my-sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Get returns one of the caller's sessions.
func (c *Client) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, c.http, http.MethodGet, "/api/my-sessions/"+url.PathEscape(id), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveDraft creates or updates a draft. Leave req.ID empty to create.
func (c *Client) SaveDraft(ctx context.Context, req server.SaveRequest) (*models.Session, error) {
	var resp server.SaveResponse
	if err := c.do(ctx, c.http, http.MethodPost, "/api/my-sessions/save-draft", req, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// Publish creates or updates a session and publishes it.
func (c *Client) Publish(ctx context.Context, req server.SaveRequest) (*models.Session, error) {
	var resp server.SaveResponse
	if err := c.do(ctx, c.http, http.MethodPost, "/api/my-sessions/publish", req, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// Health checks the server is up.
func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var resp server.HealthResponse
	if err := c.do(ctx, c.http, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp server.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
			apiErr.Errors = errResp.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
