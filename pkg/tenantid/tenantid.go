// Package tenantid resolves the tenant identifier for an inbound request,
// in the priority order spec'd for the module's external contract: an
// explicit context item, the X-Tenant-Id header, the tenantId query
// parameter, an authenticated "tenant_id" claim, the request subdomain,
// and finally a fixed default. It is a header/resolution adapter only: it
// never routes requests or touches persistence.
package tenantid

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// DefaultTenant is returned when no resolution step yields a value.
const DefaultTenant = "default"

type contextKey struct{}

// NewContext returns a context carrying tenantID as the explicit context
// item consulted first by Resolve.
func NewContext(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// FromContext returns the tenant id previously stored by NewContext, if
// any.
func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(contextKey{}).(string)
	return v, ok && v != ""
}

// Claims is the minimal shape tenantid needs from an already-verified
// authentication claim set; the module that verifies credentials (out of
// this module's scope) supplies the concrete type.
type Claims interface {
	// TenantID returns the "tenant_id" claim value, or "" if absent.
	TenantID() string
}

// claimsContextKey is where an authenticated Claims value is expected to
// have been stored by the (external) auth middleware.
type claimsContextKey struct{}

// NewClaimsContext attaches claims to ctx for the claim-resolution step.
func NewClaimsContext(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func claimsFromContext(ctx context.Context) (Claims, bool) {
	v, ok := ctx.Value(claimsContextKey{}).(Claims)
	return v, ok && v != nil
}

// HeaderName is the header consulted in step 2.
const HeaderName = "X-Tenant-Id"

// QueryParam is the query parameter consulted in step 3.
const QueryParam = "tenantId"

// Resolve applies the six-step resolution chain to r (whose context
// should already carry any items NewContext/NewClaimsContext attached)
// and always returns a non-empty tenant id.
func Resolve(r *http.Request) string {
	ctx := r.Context()

	if id, ok := FromContext(ctx); ok {
		return id
	}
	if id := r.Header.Get(HeaderName); id != "" {
		return id
	}
	if id := r.URL.Query().Get(QueryParam); id != "" {
		return id
	}
	if claims, ok := claimsFromContext(ctx); ok {
		if id := claims.TenantID(); id != "" {
			return id
		}
	}
	if id := subdomain(r.Host); id != "" {
		return id
	}
	return DefaultTenant
}

// subdomain extracts the leftmost label of host as a tenant id, e.g.
// "acme.warden.example.com" -> "acme". A bare hostname or an IP address
// yields "".
func subdomain(host string) string {
	host = stripPort(host)
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return ""
	}
	first := labels[0]
	if first == "" || first == "www" {
		return ""
	}
	return first
}

func stripPort(host string) string {
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		return host[:idx]
	}
	return host
}
