// Package ratelimithttp is a header-only adapter exposing ratelimit
// Decisions over HTTP response headers. It performs no routing, request
// parsing, or business logic — the external transport layer owns all of
// that; this package only knows how to write the five headers spec §6
// assigns to the rate-limit decision contract.
package ratelimithttp

import (
	"net/http"
	"strconv"

	"github.com/warden-acs/warden/pkg/ratelimit"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderPolicy    = "X-RateLimit-Policy"
	HeaderRetry     = "Retry-After"
)

// WriteHeaders sets the rate-limit response headers for decision under
// policy. Retry-After is only set when the request was blocked.
func WriteHeaders(w http.ResponseWriter, decision ratelimit.Decision, policy ratelimit.Policy) {
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(policy.RequestLimit))
	h.Set(HeaderRemaining, strconv.Itoa(decision.Remaining))
	h.Set(HeaderReset, strconv.Itoa(int(decision.ResetIn.Seconds())))
	h.Set(HeaderPolicy, policy.Name)
	if decision.RetryAfter != nil {
		h.Set(HeaderRetry, strconv.Itoa(int(decision.RetryAfter.Seconds())))
	}
}

// Suggested status mapping for the embedding HTTP layer (this module does
// not translate errors to HTTP responses itself):
//
//   Validation          -> 400
//   NotFound            -> 404
//   Conflict            -> 409
//   rate limit exceeded -> 429
//   StoreUnavailable    -> 503
