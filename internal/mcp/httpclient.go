package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the RepCoach REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON body into v. A 404 is reported as
// storage.ErrNotFound.
func (c *HTTPClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, storage.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) FetchClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	if err := c.get(ctx, "/api/v1/clients", &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (c *HTTPClient) FetchClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := c.get(ctx, "/api/v1/clients/"+id.String(), &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *HTTPClient) FetchSessionsFor(ctx context.Context, clientID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	if err := c.get(ctx, "/api/v1/clients/"+clientID.String()+"/sessions", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) FetchSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	if err := c.get(ctx, "/api/v1/sessions/"+id.String(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) FetchFitScore(ctx context.Context, clientID uuid.UUID) (*models.FitScore, error) {
	var resp struct {
		FitScore models.FitScore `json:"fit_score"`
	}
	if err := c.get(ctx, "/api/v1/clients/"+clientID.String()+"/fitscore", &resp); err != nil {
		return nil, err
	}
	return &resp.FitScore, nil
}
