// Package client provides a typed HTTP client for the character catalog API
// and a process-local State that mirrors the remote collection.
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

	"anime-character-catalog/backend/internal/models"

	"github.com/hashicorp/go-cleanhttp"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.StatusCode, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

type errorEnvelope struct {
	Error struct {
		Code    string   `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

// Client talks to /api/characters. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the server at baseURL (e.g. http://localhost:5000).
func New(baseURL string, opts ...Option) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = 30 * time.Second

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/api/characters",
		httpClient: hc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches the characters matching query. A zero query fetches all of them.
func (c *Client) List(ctx context.Context, query models.ListQuery) ([]models.Character, error) {
	params := url.Values{}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.Role != "" {
		params.Set("role", string(query.Role))
	}
	if query.Sort != "" {
		params.Set("sort", string(query.Sort))
	}

	path := ""
	if len(params) > 0 {
		path = "?" + params.Encode()
	}

	characters := []models.Character{}
	if err := c.request(ctx, http.MethodGet, path, nil, &characters); err != nil {
		return nil, err
	}
	return characters, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Character, error) {
	var character models.Character
	if err := c.request(ctx, http.MethodGet, "/"+url.PathEscape(id), nil, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

func (c *Client) Create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	var character models.Character
	if err := c.request(ctx, http.MethodPost, "", req, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

func (c *Client) Update(ctx context.Context, id string, req *models.UpdateCharacterRequest) (*models.Character, error) {
	var character models.Character
	if err := c.request(ctx, http.MethodPut, "/"+url.PathEscape(id), req, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
}

// request performs an HTTP request and decodes the JSON response.
func (c *Client) request(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Details = envelope.Error.Details
		return apiErr
	}

	apiErr.Message = http.StatusText(status)
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 {
		apiErr.Message = text
	}
	return apiErr
}
