// Package client talks to the architect HTTP API on behalf of the CLI.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/project"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every API call.
const DefaultTimeout = 30 * time.Second

// Document is the wire shape of a stored account or project.
type Document[T any] struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Account is an account document as returned by the API.
type Account = Document[account.Data]

// Project is a project document as returned by the API.
type Project = Document[project.Data]

// LoginResult is the response to a successful sign-in.
type LoginResult struct {
	Token    string     `json:"token"`
	Account  Account    `json:"account"`
	Projects []*Project `json:"projects"`
}

// Me is the signed-in account with its visible projects.
type Me struct {
	Account  Account    `json:"account"`
	Name     string     `json:"name"`
	Projects []*Project `json:"projects"`
}

// Client is a thin API client. The zero value is not usable; call New.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*resty.Client)

// WithToken authenticates requests with a session token or admin key.
func WithToken(token string) Option {
	return func(c *resty.Client) {
		if token != "" {
			c.SetAuthToken(token)
		}
	}
}

// WithLanguage asks the server for messages in lang.
func WithLanguage(lang string) Option {
	return func(c *resty.Client) {
		if lang != "" {
			c.SetHeader("Accept-Language", lang)
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(DefaultTimeout)
	for _, opt := range opts {
		opt(c)
	}
	return &Client{http: c}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx).SetError(&errorEnvelope{})
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}

// Health returns the server status string, which is "degraded" while the
// backend is unreachable.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return "", fmt.Errorf("GET /health: %w", err)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil || out.Status == "" {
		return "", newAPIError(resp)
	}
	return out.Status, nil
}

// Register creates an account. The returned message tells the user the
// account awaits unlocking.
func (c *Client) Register(ctx context.Context, reg account.Registration) (*Account, string, error) {
	var out struct {
		Account Account `json:"account"`
		Message string  `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", reg, &out); err != nil {
		return nil, "", err
	}
	return &out.Account, out.Message, nil
}

// Login signs in and returns the new session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session the client is authenticated with.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// RequestReset asks the server to mail a password-reset link.
func (c *Client) RequestReset(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/password-reset", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// ConfirmReset redeems a reset token with a new password.
func (c *Client) ConfirmReset(ctx context.Context, token, password string) (string, error) {
	body := map[string]string{"token": token, "password": password}
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/password-reset/confirm", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Me returns the signed-in account.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetActiveProject selects the project the account works on; nil clears it.
func (c *Client) SetActiveProject(ctx context.Context, projectID *string) (*Account, error) {
	var out Account
	body := map[string]*string{"project_id": projectID}
	if err := c.do(ctx, http.MethodPut, "/api/v1/me/active-project", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projects lists the projects visible to the signed-in account.
func (c *Client) Projects(ctx context.Context) ([]*Project, error) {
	var out []*Project
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Project loads a single project.
func (c *Client) Project(ctx context.Context, id string) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject stores a new project.
func (c *Client) CreateProject(ctx context.Context, def project.Definition) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodPost, "/api/v1/projects", def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject replaces a project's definition.
func (c *Client) UpdateProject(ctx context.Context, id string, def project.Definition) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodPut, "/api/v1/projects/"+id, def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/projects/"+id, nil, nil)
}

// Accounts lists every account. Requires the admin key.
func (c *Client) Accounts(ctx context.Context) ([]*Account, error) {
	var out []*Account
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetLocked locks or unlocks an account. Requires the admin key.
func (c *Client) SetLocked(ctx context.Context, id string, locked bool) (*Account, error) {
	var out Account
	body := map[string]bool{"locked": locked}
	if err := c.do(ctx, http.MethodPut, "/api/v1/admin/accounts/"+id+"/lock", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
