package citypermit

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// loginMethod is the only login flavor the service supports for
// username/password accounts.
const loginMethod = "Pas"

// Auth holds the credentials and the cached session token for one client
// instance. Credentials are immutable after construction; the token is the
// only mutable state and is written on login success and cleared whenever a
// request observes an authentication failure.
type Auth struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	userAgent  string
	logger     zerolog.Logger

	mu          sync.Mutex
	token       string
	mediaTypeID int
}

// newAuth wires the authenticator. The http client is the injected
// transport owned by the caller.
func newAuth(httpClient *http.Client, baseURL, username, password string, logger zerolog.Logger) *Auth {
	return &Auth{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   username,
		password:   password,
		userAgent:  defaultUserAgent,
		logger:     logger,
	}
}

// Token returns the cached session token, or an empty string when no
// session is active.
func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// Invalidate clears the cached session token so the next authenticated
// request logs in again.
func (a *Auth) Invalidate() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

// EnsureAuthenticated returns the cached session token, logging in first
// when none is cached. Concurrent callers that each observe an empty cache
// may each log in; logins are idempotent so the redundant call is tolerated
// instead of coordinated.
func (a *Auth) EnsureAuthenticated(ctx context.Context) (string, error) {
	if token := a.Token(); token != "" {
		return token, nil
	}
	return a.login(ctx)
}

// login performs the credential exchange and caches the resulting token.
// No retry happens here; the request executor decides whether an auth
// failure warrants a fresh login.
func (a *Auth) login(ctx context.Context) (string, error) {
	typeID, err := a.ensureMediaTypeID(ctx)
	if err != nil {
		return "", err
	}

	payload := map[string]any{
		"identifier":        a.username,
		"loginMethod":       loginMethod,
		"password":          a.password,
		"permitMediaTypeID": typeID,
	}

	a.logger.Debug().Str("username", a.username).Msg("Logging in to CityPermit")

	status, header, body, err := a.send(ctx, http.MethodPost, "/login", payload)
	if err != nil {
		return "", &ConnectionError{Err: err}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return "", &RateLimitError{RetryAfter: parseRetryAfter(header)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", &AuthError{Message: "rejected credentials"}
	case status >= 400:
		return "", &AuthError{Message: fmt.Sprintf("login failed with status %d", status)}
	}

	data, err := decodeBody(body)
	if err != nil {
		return "", &AuthError{Message: "invalid login response", Err: err}
	}

	response, ok := data.(map[string]any)
	if !ok {
		return "", &AuthError{Message: "unexpected login response shape"}
	}

	// LoginStatus 2 is the service's "bad credentials" marker; the HTTP
	// status is still 200 in that case.
	if loginStatus, ok := response["LoginStatus"].(float64); ok && loginStatus == 2 {
		message, _ := response["ErrorMessage"].(string)
		if message == "" {
			message = "unknown authentication error"
		}
		return "", &AuthError{Message: message}
	}

	token, _ := response["Token"].(string)
	if token == "" {
		return "", &AuthError{Message: "no token in login response"}
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()

	return token, nil
}

// ensureMediaTypeID resolves the permit media type used for login. When
// none is configured it fetches the login page metadata and takes the
// first advertised type.
func (a *Auth) ensureMediaTypeID(ctx context.Context) (int, error) {
	a.mu.Lock()
	typeID := a.mediaTypeID
	a.mu.Unlock()
	if typeID != 0 {
		return typeID, nil
	}

	status, header, body, err := a.send(ctx, http.MethodGet, "/login", nil)
	if err != nil {
		return 0, &ConnectionError{Err: err}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return 0, &RateLimitError{RetryAfter: parseRetryAfter(header)}
	case status >= 400:
		return 0, &AuthError{Message: fmt.Sprintf("login metadata fetch failed with status %d", status)}
	}

	data, err := decodeBody(body)
	if err != nil {
		return 0, &AuthError{Message: "invalid login metadata response", Err: err}
	}

	response, ok := data.(map[string]any)
	if !ok {
		return 0, &AuthError{Message: "unexpected login metadata shape"}
	}
	rawTypes, ok := response["PermitMediaTypes"].([]any)
	if !ok || len(rawTypes) == 0 {
		return 0, &AuthError{Message: "no permit media types available"}
	}
	first, ok := rawTypes[0].(map[string]any)
	if !ok {
		return 0, &AuthError{Message: "invalid permit media type entry"}
	}

	typeID, err = toInt(first["ID"])
	if err != nil {
		return 0, &AuthError{Message: "invalid permit media type ID", Err: err}
	}

	a.mu.Lock()
	a.mediaTypeID = typeID
	a.mu.Unlock()

	return typeID, nil
}

// send issues one unauthenticated call against the base endpoint and
// returns the raw status, headers and body.
func (a *Auth) send(ctx context.Context, method, path string, payload any) (int, http.Header, []byte, error) {
	req, err := newJSONRequest(ctx, method, a.baseURL+path, payload)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", a.userAgent)

	return doRoundTrip(a.httpClient, req)
}

// authorizationHeader renders the session token the way the service
// expects it on authenticated calls.
func authorizationHeader(token string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(token))
	return "Token " + encoded
}
