// Package citypermit provides a client for the CityPermit parking
// service API.
//
// The service issues visitor parking reservations against a resident
// permit. This package implements the authenticated request engine and
// thin typed operations over it.
//
// # Architecture
//
//   - Auth: credential store and session authenticator (login, token
//     cache, invalidation)
//   - Client: the request executor with the auth-retry policy, plus the
//     per-endpoint operations
//   - Models: Account, Zone, Reservation and Favorite records mapped
//     from the service's JSON
//   - Errors: classified failures (AuthError, RateLimitError,
//     ParseError, ConnectionError, APIError)
//
// # Usage
//
// The HTTP transport is supplied by the caller and never closed by the
// client:
//
//	httpClient := &http.Client{Timeout: 20 * time.Second}
//	client, err := citypermit.NewClient(httpClient,
//		"https://api.parking.example", "user@example.com", "secret", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	account, err := client.GetAccount(ctx)
//
// # Session handling
//
// Login happens lazily on the first authenticated call. When a request
// comes back 401/403 the cached token is dropped, one fresh login is
// performed and the request is retried exactly once; a second rejection
// surfaces as *AuthError. HTTP 429 is never retried: it surfaces as
// *RateLimitError carrying the Retry-After hint so the caller can decide
// how to back off.
//
// # Error handling
//
// Failures are typed for programmatic reaction:
//
//	var rateErr *citypermit.RateLimitError
//	if errors.As(err, &rateErr) && rateErr.RetryAfter != nil {
//		time.Sleep(time.Duration(*rateErr.RetryAfter) * time.Second)
//	}
package citypermit
