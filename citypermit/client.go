package citypermit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const defaultUserAgent = "permitctl/dev"

// Request describes one outbound call: method, path relative to the base
// endpoint, an optional JSON body, and whether a session token must be
// attached. A Request is built per call and consumed once.
type Request struct {
	Method string
	Path   string
	Body   any
	NoAuth bool
}

// Client talks to the CityPermit API. It wraps an injected *http.Client
// it never owns or closes, the session authenticator, and the permit
// media defaults the write endpoints need.
type Client struct {
	httpClient *http.Client
	baseURL    string
	auth       *Auth
	userAgent  string
	logger     zerolog.Logger

	mediaMu          sync.Mutex
	defaultMediaType int
	defaultMediaCode string
}

// Option configures a Client
type Option func(*Client)

// WithPermitMediaTypeID pins the permit media type used during login
// instead of discovering it from the service.
func WithPermitMediaTypeID(id int) Option {
	return func(c *Client) {
		c.auth.mediaTypeID = id
	}
}

// WithUserAgent overrides the user-agent header sent on every call.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
		c.auth.userAgent = ua
	}
}

// NewClient creates a new CityPermit client. The http client is supplied
// by the caller and is used for every call, including login.
func NewClient(httpClient *http.Client, baseURL, username, password string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("%w: http client is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidConfig)
	}

	baseURL = strings.TrimRight(baseURL, "/")

	client := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		auth:       newAuth(httpClient, baseURL, username, password, logger),
		userAgent:  defaultUserAgent,
		logger:     logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Auth exposes the session authenticator, mainly so callers can force a
// re-login via Invalidate.
func (c *Client) Auth() *Auth {
	return c.auth
}

// Do executes one request against the service and decodes the response
// into a generic JSON value (nil for empty bodies).
//
// Authentication failures (401/403) clear the cached token and are retried
// exactly once after a fresh login; a second failure surfaces as AuthError.
// 429 surfaces immediately as RateLimitError, carrying the Retry-After
// hint, and is never retried here.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = encoded
	}

	var authValue string
	if !req.NoAuth {
		token, err := c.auth.EnsureAuthenticated(ctx)
		if err != nil {
			return nil, err
		}
		authValue = authorizationHeader(token)
	}

	for attempt := 1; ; attempt++ {
		status, header, respBody, err := c.send(ctx, req.Method, req.Path, body, authValue)
		if err != nil {
			return nil, &ConnectionError{Err: err}
		}

		switch {
		case status == http.StatusTooManyRequests:
			return nil, &RateLimitError{RetryAfter: parseRetryAfter(header)}

		case (status == http.StatusUnauthorized || status == http.StatusForbidden) && !req.NoAuth:
			c.auth.Invalidate()
			if attempt == 1 {
				c.logger.Debug().
					Str("method", req.Method).
					Str("path", req.Path).
					Msg("Session expired, re-authenticating")
				token, err := c.auth.EnsureAuthenticated(ctx)
				if err != nil {
					return nil, err
				}
				authValue = authorizationHeader(token)
				continue
			}
			return nil, &AuthError{Message: "request rejected after re-authentication"}

		case status >= 400:
			return nil, &APIError{StatusCode: status, Body: excerpt(respBody)}
		}

		return decodeBody(respBody)
	}
}

// send issues a single HTTP call and returns the raw result.
func (c *Client) send(ctx context.Context, method, path string, body []byte, authValue string) (int, http.Header, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", c.userAgent)
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if authValue != "" {
		req.Header.Set("Authorization", authValue)
	}

	return doRoundTrip(c.httpClient, req)
}

// newJSONRequest builds a request with an optional JSON body.
func newJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("content-type", "application/json")
	}
	return req, nil
}

// doRoundTrip runs one call and drains the body so the transport can
// reuse the connection.
func doRoundTrip(httpClient *http.Client, req *http.Request) (int, http.Header, []byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}

	return resp.StatusCode, resp.Header, body, nil
}

// parseRetryAfter reads the Retry-After header as whole seconds. Absent
// or unparseable values are reported as nil.
func parseRetryAfter(header http.Header) *int {
	value := header.Get("Retry-After")
	if value == "" {
		return nil
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &seconds
}
