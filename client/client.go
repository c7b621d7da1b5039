// Package client is the Go client for the errdeck admin panel API. Each
// method performs one endpoint call and reports the outcome to a
// caller-supplied callback; every failure is also forwarded to the
// configured Notifier so UIs can surface it without wiring per-call
// error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier receives every client-side and server-side failure.
type Notifier interface {
	NotifyError(err error)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyError(error) {}

// Resource is the {id,type,attributes} member of a response envelope.
// Attributes are left raw for the caller to decode into its own type.
type Resource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

// Callback receives the result of an API call. Exactly one of resource and
// err is non-nil.
type Callback func(resource *Resource, err error)

// APIError is a structured error envelope returned by the server.
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type Client struct {
	baseURL  string
	http     *http.Client
	notifier Notifier
	token    string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		notifier: NopNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Attribute payloads accepted by the write endpoints.

type SlackDetails struct {
	URL string `json:"url"`
}

type StatusUpdate struct {
	Status bool `json:"status"`
}

type EmailDetails struct {
	Sender     string   `json:"sender"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	Recipients []string `json:"recipients"`
}

type AlertURLDetails struct {
	URL string `json:"url"`
}

type UserCredentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) CheckUpdates(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodGet, "/api/v1/app/updates", nil, cb)
}

func (c *Client) GetSlackDetails(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodGet, "/api/v1/integrations/slack", nil, cb)
}

func (c *Client) AddSlackDetails(ctx context.Context, details SlackDetails, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/integrations/slack", details, cb)
}

func (c *Client) UpdateSlackDetails(ctx context.Context, update StatusUpdate, cb Callback) {
	c.do(ctx, http.MethodPatch, "/api/v1/integrations/slack", update, cb)
}

func (c *Client) DeleteSlackDetails(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodDelete, "/api/v1/integrations/slack", nil, cb)
}

func (c *Client) TestSlackNotification(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/integrations/slack/test", nil, cb)
}

func (c *Client) GetEmailDetails(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodGet, "/api/v1/integrations/email", nil, cb)
}

func (c *Client) AddEmailDetails(ctx context.Context, details EmailDetails, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/integrations/email", details, cb)
}

func (c *Client) UpdateEmailDetails(ctx context.Context, update StatusUpdate, cb Callback) {
	c.do(ctx, http.MethodPatch, "/api/v1/integrations/email", update, cb)
}

func (c *Client) DeleteEmailDetails(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodDelete, "/api/v1/integrations/email", nil, cb)
}

func (c *Client) TestEmailNotification(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/integrations/email/test", nil, cb)
}

func (c *Client) GetAlertURL(ctx context.Context, cb Callback) {
	c.do(ctx, http.MethodGet, "/api/v1/integrations/alert-url", nil, cb)
}

func (c *Client) AddAlertURL(ctx context.Context, details AlertURLDetails, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/integrations/alert-url", details, cb)
}

func (c *Client) CreateUser(ctx context.Context, creds UserCredentials, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/users", creds, cb)
}

func (c *Client) LoginUser(ctx context.Context, creds UserCredentials, cb Callback) {
	c.do(ctx, http.MethodPost, "/api/v1/users/login", creds, cb)
}

type requestBody struct {
	Data struct {
		Attributes interface{} `json:"attributes"`
	} `json:"data"`
}

type responseBody struct {
	Data   *Resource `json:"data"`
	Errors []struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, attributes interface{}, cb Callback) {
	var reader *bytes.Buffer
	if attributes != nil {
		var body requestBody
		body.Data.Attributes = attributes
		raw, err := json.Marshal(body)
		if err != nil {
			c.fail(cb, err)
			return
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		c.fail(cb, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.fail(cb, err)
		return
	}
	defer resp.Body.Close()

	var body responseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.fail(cb, err)
		return
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Kind: http.StatusText(resp.StatusCode)}
		if len(body.Errors) > 0 {
			apiErr.Kind = body.Errors[0].Error
			apiErr.Message = body.Errors[0].Message
		}
		c.fail(cb, apiErr)
		return
	}

	cb(body.Data, nil)
}

func (c *Client) fail(cb Callback, err error) {
	c.notifier.NotifyError(err)
	cb(nil, err)
}
