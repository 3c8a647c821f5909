package graphtool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

// DefaultGraphBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// maxGraphResponseBytes bounds how much of a Graph response is read.
const maxGraphResponseBytes = 4 << 20

// GraphClient makes thin, read-only calls against Microsoft Graph. It does
// no token handling of its own; callers pass the access token per call.
type GraphClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGraphClient creates a Graph client. An empty baseURL selects the
// public Graph v1.0 endpoint; tests point it at a stub.
func NewGraphClient(baseURL string) *GraphClient {
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	return &GraphClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: cleanhttp.DefaultPooledClient(),
	}
}

// Profile fetches the signed-in user's profile (GET /me).
func (c *GraphClient) Profile(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.get(ctx, "/me", accessToken)
}

// Drives lists the drives available to the signed-in user (GET /me/drives).
func (c *GraphClient) Drives(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.get(ctx, "/me/drives", accessToken)
}

func (c *GraphClient) get(ctx context.Context, path, accessToken string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Graph request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read Graph response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Graph returned HTTP %d for %s", resp.StatusCode, path)
	}

	return json.RawMessage(body), nil
}
