package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// RequestError is returned for any non-2xx API response. Detail carries the
// server-supplied message when one was present.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("api request failed: status %d: %s", e.Status, e.Detail)
}

// User is the account representation returned by the API.
type User struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Client talks to the WhisperVault API. The token store is injected so
// callers decide how credentials persist.
type Client struct {
	baseURL string
	store   TokenStore
	http    *http.Client
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the structured logger. Only method, URL and status are
// ever logged; bodies and credentials are not.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a Client for the given base URL using the given token store.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one API request. A stored token is attached as a bearer header.
// On 401 or 403 the stored token is evicted; it is no longer usable.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token, ok := c.store.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "api request",
		"method", method, "url", c.baseURL+path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			c.store.Clear()
		}
		return c.requestError(resp)
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// requestError extracts the server detail from an error response, falling
// back to a generic message for non-JSON bodies.
func (c *Client) requestError(resp *http.Response) error {
	reqErr := &RequestError{
		Status: resp.StatusCode,
		Detail: fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil && len(data) > 0 {
		if json.Unmarshal(data, &payload) == nil && payload.Detail != "" {
			reqErr.Detail = payload.Detail
		}
	}
	return reqErr
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", body, out)
}

// SignIn exchanges credentials for an access token, stores it and returns
// the signed-in user's account.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var token tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/token",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &token)
	if err != nil {
		return nil, err
	}
	c.store.SetToken(token.AccessToken)

	return c.Me(ctx)
}

// SignUp registers a new account. It does not sign the account in.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*User, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var user User
	if err := c.postJSON(ctx, "/auth/register", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the token server-side. The local token is cleared even
// when the server call fails; the caller is signed out either way.
func (c *Client) SignOut(ctx context.Context) error {
	defer c.store.Clear()
	return c.postJSON(ctx, "/auth/logout", nil, nil)
}

// Me fetches the current user's account.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/users/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
