// Package testutil provides HTTP, contract and container helpers for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/bissquit/incident-tracker/internal/pkg/httputil"
)

// Client issues JSON requests against a running server, sends the API key
// and, when a validator and *testing.T are set, checks every response
// against the OpenAPI document.
type Client struct {
	BaseURL     string
	APIKey      string
	HTTPClient  *http.Client
	Validator   *OpenAPIValidator
	ValidateAPI bool
	t           *testing.T
}

// NewClient returns a client without contract validation.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
	}
}

// NewClientWithValidator returns a client that validates responses with v
// once SetT has been called.
func NewClientWithValidator(baseURL, apiKey string, v *OpenAPIValidator) *Client {
	c := NewClient(baseURL, apiKey)
	c.Validator = v
	c.ValidateAPI = true
	return c
}

// SetT binds validation failures to t. Call it at the start of each test
// or subtest that shares the client.
func (c *Client) SetT(t *testing.T) {
	c.t = t
}

// WithAPIKey returns a copy sending key instead. An empty key omits the header.
func (c *Client) WithAPIKey(key string) *Client {
	clone := *c
	clone.APIKey = key
	return &clone
}

// WithoutValidation returns a copy that skips contract validation.
func (c *Client) WithoutValidation() *Client {
	clone := *c
	clone.ValidateAPI = false
	return &clone
}

// GET performs a GET request.
func (c *Client) GET(path string) (*http.Response, error) {
	return c.send(http.MethodGet, path, nil)
}

// POST sends body encoded as JSON.
func (c *Client) POST(path string, body interface{}) (*http.Response, error) {
	payload, err := encode(body)
	if err != nil {
		return nil, err
	}
	return c.send(http.MethodPost, path, payload)
}

// PATCH sends body encoded as JSON.
func (c *Client) PATCH(path string, body interface{}) (*http.Response, error) {
	payload, err := encode(body)
	if err != nil {
		return nil, err
	}
	return c.send(http.MethodPatch, path, payload)
}

// Raw sends body verbatim, for malformed payload tests.
func (c *Client) Raw(method, path, body string) (*http.Response, error) {
	return c.send(method, path, []byte(body))
}

func encode(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return payload, nil
}

func (c *Client) send(method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set(httputil.APIKeyHeader, c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	if c.ValidateAPI && c.Validator != nil && c.t != nil {
		c.Validator.ValidateResponse(c.t, req, resp)
	}
	return resp, nil
}

// DecodeJSON decodes the response body into v and closes it.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// DecodeError decodes an error envelope and closes the body.
func DecodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	DecodeJSON(t, resp, &body)
	return body
}

// ReadBody returns the response body as a string and closes it.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

// ErrorResponse mirrors the error envelope for decoding in tests.
type ErrorResponse = httputil.ErrorResponse
