package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dxtoolkit/dxbuild/internal/branding"
	"github.com/dxtoolkit/dxbuild/internal/config"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Client calls API routes on a single API server.
type Client struct {
	baseURL    string
	tokenType  string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides the API server URL derived from the config.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(u, "/")
	}
}

// New creates a Client for the API server and credentials in cfg.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.APIServerURL(), "/"),
		tokenType:  cfg.AuthTokenType,
		token:      cfg.AuthToken,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call POSTs in as JSON to route and decodes the response into out.
// out may be nil when the response body is not needed.
func (c *Client) Call(ctx context.Context, route string, in, out any) error {
	if in == nil {
		in = map[string]any{}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", route, err)
	}

	route = "/" + strings.TrimLeft(route, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", branding.CLIName())
	if c.token != "" {
		req.Header.Set("Authorization", c.tokenType+" "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRemoteError(route, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing %s response: %w", route, err)
	}
	return nil
}

func newRemoteError(route string, resp *http.Response) *RemoteError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	rerr := &RemoteError{Route: route, StatusCode: resp.StatusCode}
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Type != "" {
		rerr.Type = body.Error.Type
		rerr.Message = body.Error.Message
		return rerr
	}

	rerr.Message = strings.TrimSpace(string(raw))
	if rerr.Message == "" {
		rerr.Message = http.StatusText(resp.StatusCode)
	}
	return rerr
}
