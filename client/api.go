package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/habedi/meterctl/auth"
	"github.com/habedi/meterctl/config"
	"github.com/habedi/meterctl/pkg/validation"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath   = "/v1/auth/login"
	refreshPath = "/v1/auth/refresh"
	verifyPath  = "/v1/admin/auth/verify"
)

// Options configures a Client.
type Options struct {
	// BaseURL of the metering backend. Empty falls back to config.DefaultAPIURL.
	BaseURL string
	// Store holds the credential pair. Defaults to an in-memory store.
	Store auth.Store
	// HTTPClient is used for every call. Defaults to a client with Timeout.
	HTTPClient *http.Client
	// Timeout for the default HTTP client. Defaults to 30 seconds.
	Timeout time.Duration
}

// RequestOptions describes a single call to the admin API.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	// Body is serialized with encoding/json. A json.RawMessage is sent as is.
	Body any
}

// Client talks to the admin API on behalf of a logged-in operator. It attaches the
// stored access token to every call and recovers from an expired token with at most
// one refresh-and-retry.
type Client struct {
	BaseURL string

	http    *http.Client
	session *auth.Session
	refresh singleflight.Group
}

// New creates a Client from opts.
func New(opts Options) *Client {
	store := opts.Store
	if store == nil {
		store = auth.NewMemoryStore()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		BaseURL: config.ResolveAPIURL(opts.BaseURL),
		http:    httpClient,
		session: auth.NewSession(store),
	}
}

// Session exposes the credential session backing the client.
func (c *Client) Session() *auth.Session {
	return c.session
}

// Request performs an authenticated call against path and returns the raw JSON body.
// A 2xx response with an empty body returns nil. Non-2xx responses are returned as
// *APIError and failed round trips as *TransportError.
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	if err := validation.ValidateAPIPath(path); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	payload, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	token, err := c.session.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.send(ctx, method, path, opts.Headers, payload, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && token != "" {
		newToken := c.refreshAccessToken(ctx, token)
		if newToken != "" {
			status, body, err = c.send(ctx, method, path, opts.Headers, payload, newToken)
			if err != nil {
				return nil, err
			}
		} else if ctx.Err() != nil {
			return nil, &TransportError{Method: method, URL: c.BaseURL + path, Err: ctx.Err()}
		}
	}

	if !isSuccess(status) {
		return nil, parseAPIError(status, body)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: %s %s returned non-JSON content", ErrMalformedResponse, method, path)
	}
	return json.RawMessage(body), nil
}

// Do performs Request and decodes the response into out when both are non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.Request(ctx, path, RequestOptions{Method: method, Body: body})
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	return nil
}

// --- HTTP Helper Functions (kept private) ---

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, nil
}

// createRequest builds the HTTP request. accessToken may be empty for anonymous calls.
func (c *Client) createRequest(ctx context.Context, method, path string, headers map[string]string, payload []byte, accessToken string) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req, nil
}

// send performs one round trip and returns the status and the full body.
func (c *Client) send(ctx context.Context, method, path string, headers map[string]string, payload []byte, accessToken string) (int, []byte, error) {
	req, err := c.createRequest(ctx, method, path, headers, payload, accessToken)
	if err != nil {
		return 0, nil, err
	}
	if err := waitForRateLimit(ctx); err != nil {
		return 0, nil, &TransportError{Method: method, URL: req.URL.String(), Err: err}
	}

	log.Debug().Str("method", method).Str("path", path).Str("request_id", req.Header.Get("X-Request-ID")).Msg("Sending admin API request")
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: req.URL.String(), Err: err}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: req.URL.String(), Err: err}
	}
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("Admin API request completed")
	return resp.StatusCode, body, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
