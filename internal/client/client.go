// Package client calls the formulary admin API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/server"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "https://localhost:8443",
		Timeout:   5 * time.Minute,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Stage      string
}

func (e *APIError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%d: %s (stage %s)", e.StatusCode, e.Message, e.Stage)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Client is an admin API client.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.ServerURL = strings.TrimSuffix(cfg.ServerURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

// InstallPlugin uploads a plugin package. name overrides the declared name
// when not empty.
func (c *Client) InstallPlugin(ctx context.Context, orgID uuid.UUID, name string, pkg io.Reader) (*server.PluginResponse, error) {
	path := fmt.Sprintf("/v1/orgs/%s/plugins", orgID)
	if name != "" {
		path += "?" + url.Values{"name": {name}}.Encode()
	}

	var out server.PluginResponse
	if err := c.do(ctx, http.MethodPost, path, "application/zstd", pkg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPlugins lists the plugins installed for an organization.
func (c *Client) ListPlugins(ctx context.Context, orgID uuid.UUID) ([]server.PluginResponse, error) {
	var out server.PluginsResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/orgs/%s/plugins", orgID), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Plugins, nil
}

// Variables lists every token an organization's formulas may reference.
func (c *Client) Variables(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	var out server.VariablesResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/orgs/%s/variables", orgID), "", nil, &out); err != nil {
		return nil, err
	}
	return out.Variables, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.ServerURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp server.ErrorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
			apiErr.Stage = errResp.Stage
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
