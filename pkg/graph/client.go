package graph

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
	defaultBaseURL              = "https://graph.facebook.com"
	defaultVersion              = "v21.0"
	responseBodyReadLimit int64 = 1024
	maxButtons                  = 3
)

var (
	errAccessTokenRequired = errors.New("graph access token is required")
	errRecipientRequired   = errors.New("graph recipient id is required")
)

// Client calls the Graph messaging endpoints on behalf of a linked account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
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

// WithBaseURL overrides the Graph host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithVersion pins the Graph API version path segment.
func WithVersion(version string) Option {
	return func(c *Client) {
		trimmed := strings.Trim(strings.TrimSpace(version), "/")
		if trimmed != "" {
			c.version = trimmed
		}
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

// NewClient builds a Graph client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Button is a template button as accepted by the Send API.
type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// TemplatePayload is the body of a button template attachment.
type TemplatePayload struct {
	TemplateType string   `json:"template_type"`
	Text         string   `json:"text"`
	Buttons      []Button `json:"buttons"`
}

// Attachment wraps a structured message.
type Attachment struct {
	Type    string          `json:"type"`
	Payload TemplatePayload `json:"payload"`
}

// Message is an outbound message: either plain text or a button template.
type Message struct {
	Text       string      `json:"text,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Text: text}
}

// ButtonMessage builds a button template. At most three buttons are kept.
func ButtonMessage(text string, buttons []Button) Message {
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}
	return Message{
		Attachment: &Attachment{
			Type: "template",
			Payload: TemplatePayload{
				TemplateType: "button",
				Text:         text,
				Buttons:      buttons,
			},
		},
	}
}

// SendResult is the Send API acknowledgement.
type SendResult struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

type sendRequest struct {
	Recipient     recipient `json:"recipient"`
	Message       Message   `json:"message"`
	MessagingType string    `json:"messaging_type"`
}

type recipient struct {
	ID string `json:"id"`
}

// Send delivers message to recipientID using the account's access token.
func (c *Client) Send(ctx context.Context, accessToken, recipientID string, message Message) (*SendResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "graph client not configured")
	}
	if strings.TrimSpace(accessToken) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errAccessTokenRequired, "send message")
	}
	if strings.TrimSpace(recipientID) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errRecipientRequired, "send message")
	}

	body := sendRequest{
		Recipient:     recipient{ID: recipientID},
		Message:       message,
		MessagingType: "RESPONSE",
	}
	var result SendResult
	if err := c.post(ctx, accessToken, "me/messages", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReplyToComment posts a public reply under commentID and returns the new
// comment id.
func (c *Client) ReplyToComment(ctx context.Context, accessToken, commentID, text string) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "graph client not configured")
	}
	if strings.TrimSpace(accessToken) == "" {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, errAccessTokenRequired, "reply to comment")
	}
	trimmed := strings.TrimSpace(commentID)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "comment id is required")
	}

	var result struct {
		ID string `json:"id"`
	}
	path := url.PathEscape(trimmed) + "/replies"
	if err := c.post(ctx, accessToken, path, map[string]string{"message": text}, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (c *Client) post(ctx context.Context, accessToken, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal graph request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build graph request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute graph request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "graph request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode graph response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s/%s", trimmed, c.version, path)
}
