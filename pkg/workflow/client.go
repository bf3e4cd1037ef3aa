package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/replyflow-backend/pkg/errors"
)

const (
	apiKeyHeader                = "X-API-KEY"
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("workflow engine base url is required")

// Engine is the workflow engine surface used by dispatch and route lifecycle.
type Engine interface {
	Execute(ctx context.Context, workflowRef string, input any) error
	Activate(ctx context.Context, workflowRef string) error
	Deactivate(ctx context.Context, workflowRef string) error
}

// Client talks to an n8n-style workflow engine REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithAPIKey sets the key sent on every request.
func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithTimeout sets the default client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the engine client for baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Execute runs workflowRef with input as its JSON body.
func (c *Client) Execute(ctx context.Context, workflowRef string, input any) error {
	return c.call(ctx, workflowRef, "execute", input)
}

// Activate enables the workflow in the engine.
func (c *Client) Activate(ctx context.Context, workflowRef string) error {
	return c.call(ctx, workflowRef, "activate", nil)
}

// Deactivate disables the workflow in the engine.
func (c *Client) Deactivate(ctx context.Context, workflowRef string) error {
	return c.call(ctx, workflowRef, "deactivate", nil)
}

func (c *Client) call(ctx context.Context, workflowRef, op string, body any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "workflow engine not configured")
	}
	ref := strings.TrimSpace(workflowRef)
	if ref == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "workflow ref is required")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("marshal workflow %s request", op))
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := fmt.Sprintf("%s/api/v1/workflows/%s/%s", c.baseURL, url.PathEscape(ref), op)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("build workflow %s request", op))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute workflow %s request", op))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), fmt.Sprintf("workflow %s failed", op))
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyReadLimit))
	return nil
}
