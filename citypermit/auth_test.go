package citypermit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAuthenticatedCachesToken(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&logins, 1)
		json.NewEncoder(w).Encode(map[string]any{"Token": "tok-1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	token, err := client.Auth().EnsureAuthenticated(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	token, err = client.Auth().EnsureAuthenticated(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
}

func TestLoginRejectedCredentials(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "http 401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantMsg: "rejected credentials",
		},
		{
			name: "login status marker",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"LoginStatus":  2,
					"ErrorMessage": "wrong password",
				})
			},
			wantMsg: "wrong password",
		},
		{
			name: "missing token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"LoginStatus": 1})
			},
			wantMsg: "no token in login response",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantMsg: "login failed with status 500",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html>maintenance</html>"))
			},
			wantMsg: "invalid login response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/login", tt.handler)
			server := httptest.NewServer(mux)
			defer server.Close()

			client := newTestClient(t, server.URL)

			_, err := client.Auth().EnsureAuthenticated(context.Background())
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Contains(t, authErr.Error(), tt.wantMsg)
			assert.Empty(t, client.Auth().Token(), "failed login must leave the cache empty")
		})
	}
}

func TestLoginRateLimited(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Auth().EnsureAuthenticated(context.Background())
	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.NotNil(t, rateErr.RetryAfter)
	assert.Equal(t, 7, *rateErr.RetryAfter)
}

func TestLoginDiscoversMediaType(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(map[string]any{
				"PermitMediaTypes": []any{
					map[string]any{"ID": 12, "Name": "Visitor"},
					map[string]any{"ID": 34, "Name": "Resident"},
				},
			})
			return
		}

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(12), payload["permitMediaTypeID"])
		json.NewEncoder(w).Encode(map[string]any{"Token": "tok-1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	// No WithPermitMediaTypeID: the type must come from discovery.
	client, err := NewClient(&http.Client{}, server.URL, "user@example.test", "secret", zerolog.Nop())
	require.NoError(t, err)

	token, err := client.Auth().EnsureAuthenticated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestLoginDiscoveryFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		wantMsg string
	}{
		{"empty type list", map[string]any{"PermitMediaTypes": []any{}}, "no permit media types"},
		{"missing type list", map[string]any{}, "no permit media types"},
		{"bad entry", map[string]any{"PermitMediaTypes": []any{"nope"}}, "invalid permit media type entry"},
		{"bad id", map[string]any{"PermitMediaTypes": []any{map[string]any{"ID": true}}}, "invalid permit media type ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.body)
			})
			server := httptest.NewServer(mux)
			defer server.Close()

			client, err := NewClient(&http.Client{}, server.URL, "user@example.test", "secret", zerolog.Nop())
			require.NoError(t, err)

			_, err = client.Auth().EnsureAuthenticated(context.Background())
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Contains(t, authErr.Error(), tt.wantMsg)
		})
	}
}

func TestInvalidateForcesRelogin(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&logins, 1)
		token := "tok-1"
		if n > 1 {
			token = "tok-2"
		}
		json.NewEncoder(w).Encode(map[string]any{"Token": token})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	token, err := client.Auth().EnsureAuthenticated(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	client.Auth().Invalidate()
	assert.Empty(t, client.Auth().Token())

	token, err = client.Auth().EnsureAuthenticated(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)
}
