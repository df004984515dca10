// Package apiclient wraps outbound calls to the platform REST API. It
// attaches the bearer credential from the session store, recovers from an
// expired access token with a single deduplicated refresh-and-retry, and on
// terminal auth failure clears the session and fires the forced-logout hook.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/saptapadi/admin-gateway/session"
)

const defaultRefreshPath = "/api/auth/refresh-token"

// Client is an authenticated HTTP client for the upstream API. The refresh
// in-flight handle lives on the instance, not at module level, so separate
// clients (e.g. in tests) never share refresh state.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	store         session.Store
	refreshPath   string
	onAuthFailure func()
	logger        zerolog.Logger
	refreshGroup  singleflight.Group
}

// Option modifies a Client instance during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRefreshPath overrides the token-refresh endpoint path.
func WithRefreshPath(path string) Option {
	return func(c *Client) {
		c.refreshPath = path
	}
}

// WithOnAuthFailure sets the hook fired once per terminal auth failure,
// after the session has been cleared. The browser front end did a hard
// navigation to the login page here.
func WithOnAuthFailure(fn func()) Option {
	return func(c *Client) {
		c.onAuthFailure = fn
	}
}

// New creates a client for the API at baseURL, reading and maintaining
// credentials through store.
func New(baseURL string, store session.Store, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("[apiclient.New] session store is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "[apiclient.New] invalid base URL")
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  http.DefaultClient,
		store:       store,
		refreshPath: defaultRefreshPath,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Send issues an authenticated call with a JSON-serialized body. A nil body
// sends no payload.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	var (
		payload     []byte
		contentType string
	)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "[Client.Send] marshalling %s %s body", method, path)
		}
		payload = b
		contentType = "application/json"
	}
	return c.send(ctx, method, path, contentType, payload, false)
}

// SendRaw issues an authenticated call with an opaque pre-encoded body. The
// content type is forwarded verbatim; empty means no Content-Type header.
func (c *Client) SendRaw(ctx context.Context, method, path, contentType string, body []byte) (*Response, error) {
	return c.send(ctx, method, path, contentType, body, false)
}

// Get issues an authenticated GET.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, path, nil)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Send(ctx, http.MethodPost, path, body)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Send(ctx, http.MethodPut, path, body)
}

// Patch issues an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Send(ctx, http.MethodPatch, path, body)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, path, nil)
}

// Upload posts an opaque multipart payload. The caller supplies the content
// type produced by its multipart writer; the client never substitutes its
// own, so the multipart boundary survives intact. The body is buffered so
// the single post-refresh retry can resend it.
func (c *Client) Upload(ctx context.Context, path, contentType string, body io.Reader) (*Response, error) {
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.Upload] reading %s payload", path)
	}
	return c.send(ctx, http.MethodPost, path, contentType, payload, false)
}

// send performs one HTTP exchange. On a 401 it triggers the deduplicated
// refresh and reissues the call exactly once; a 401 on the reissued call is
// returned to the caller as-is so a backend rejecting fresh tokens can never
// cause a refresh loop. Non-401 responses pass through untouched — this
// layer does not interpret business-level error payloads.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, retried bool) (*Response, error) {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.send] building %s %s", method, path)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.store.Read().AccessToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Bool("retry", retried).
		Msg("upstream request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.send] %s %s", method, path)
	}
	resp, err := readResponse(httpResp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || retried {
		return resp, nil
	}

	if err := c.refreshOnce(ctx); err != nil {
		c.logger.Warn().
			Str("request_id", requestID).
			Err(err).
			Msg("token refresh failed, session cleared")
		// The original unauthorized response; its body should not be relied on.
		return resp, nil
	}
	return c.send(ctx, method, path, contentType, body, true)
}
