// Package graph is a read-only client for the third-party graph API used by
// the connect flow: listing the pages an authorizing identity owns and
// resolving each page's linked Instagram business account.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Page is a business page owned by the authorizing identity. AccessToken is
// scoped to the page, not the whole account.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// InstagramAccount is the secondary account a page may be linked to.
type InstagramAccount struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// APIError is a graph-level error object ({"error": {...}} in the response
// body). Transport failures are returned as ordinary errors, not APIErrors.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error (%s, code %d): %s", e.Type, e.Code, e.Message)
}

// LatencyRecorder receives the duration of each graph request.
type LatencyRecorder interface {
	RecordGraphLatency(d time.Duration)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	latency    LatencyRecorder
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRequestsPerSecond caps outbound calls. The per-page fan-out issues its
// lookups concurrently, so the cap is what keeps a many-page account inside
// the API's per-app limit.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

func WithLatencyRecorder(recorder LatencyRecorder) ClientOption {
	return func(c *Client) {
		c.latency = recorder
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ListPages returns the pages the authorizing identity manages.
func (c *Client) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	var body struct {
		Data  []Page    `json:"data"`
		Error *APIError `json:"error"`
	}
	if err := c.get(ctx, "/me/accounts", url.Values{"access_token": {userToken}}, &body); err != nil {
		return nil, errors.Wrap(err, "[Client.ListPages] get")
	}
	if body.Error != nil {
		return nil, body.Error
	}
	return body.Data, nil
}

// LinkedInstagramAccount returns the Instagram business account linked to the
// page, or nil when the page has none. A graph-level rejection of the lookup
// comes back as an *APIError so callers can treat it as "no account" without
// conflating it with a transport failure.
func (c *Client) LinkedInstagramAccount(ctx context.Context, pageID, pageToken string) (*InstagramAccount, error) {
	params := url.Values{
		"fields":       {"instagram_business_account{id,username}"},
		"access_token": {pageToken},
	}

	var body struct {
		InstagramBusinessAccount *InstagramAccount `json:"instagram_business_account"`
		Error                    *APIError         `json:"error"`
	}
	if err := c.get(ctx, "/"+pageID, params, &body); err != nil {
		return nil, errors.Wrap(err, "[Client.LinkedInstagramAccount] get")
	}
	if body.Error != nil {
		return nil, body.Error
	}
	return body.InstagramBusinessAccount, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "limiter.Wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "NewRequestWithContext")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.latency != nil {
		c.latency.RecordGraphLatency(time.Since(started))
	}
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Graph error objects arrive with non-2xx statuses but a decodable body,
	// so decode regardless of status and let the caller see the error object.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode response (status %d)", resp.StatusCode)
	}
	return nil
}
