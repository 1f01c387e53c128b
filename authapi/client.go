// Package authapi is the HTTP client for the remote authentication service.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	loginPath   = "/auth/login"
	signupPath  = "/auth/signup"
	logoutPath  = "/auth/logout"
	refreshPath = "/auth/refresh"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRequestTimeout bounds each request to the auth service.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges email/password credentials for a token grant.
func (c *Client) Login(ctx context.Context, email, password string) (*Grant, error) {
	body := map[string]string{"email": email, "password": password}
	return c.grantRequest(ctx, loginPath, "", body)
}

// Signup registers a new business and owner account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Grant, error) {
	return c.grantRequest(ctx, signupPath, "", req)
}

// Refresh exchanges a refresh token for a fresh grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Grant, error) {
	body := map[string]string{"refresh_token": refreshToken}
	return c.grantRequest(ctx, refreshPath, "", body)
}

// Logout tells the service the session has ended. The access token is sent as
// a bearer credential.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.post(ctx, logoutPath, accessToken, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.Logout] post")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) grantRequest(ctx context.Context, path, bearer string, body any) (*Grant, error) {
	resp, err := c.post(ctx, path, bearer, body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.grantRequest] post %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Wrapf(err, "[Client.grantRequest] decode %s", path)
	}
	return env.grant(), nil
}

func (c *Client) post(ctx context.Context, path, bearer string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "Marshal body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, "NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.httpClient.Do(req)
}

// decodeError pulls the service's "message" field out of an error response.
// The message is surfaced verbatim to the caller; an unreadable body yields
// an APIError with an empty message so callers can substitute their own.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Debug().Int("status", resp.StatusCode).Msg("auth service error response had no structured body")
		return apiErr
	}
	apiErr.Message = body.Message
	return apiErr
}
