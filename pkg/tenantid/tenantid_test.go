package tenantid

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeClaims string

func (c fakeClaims) TenantID() string { return string(c) }

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, url, nil)
}

func TestResolve_DefaultWhenNothingElseMatches(t *testing.T) {
	r := newRequest(t, "http://localhost/")
	if got := Resolve(r); got != DefaultTenant {
		t.Fatalf("Resolve() = %q, want %q", got, DefaultTenant)
	}
}

func TestResolve_Subdomain(t *testing.T) {
	r := newRequest(t, "http://acme.warden.example.com/")
	if got := Resolve(r); got != "acme" {
		t.Fatalf("Resolve() = %q, want %q", got, "acme")
	}
}

func TestResolve_Claim(t *testing.T) {
	r := newRequest(t, "http://acme.warden.example.com/")
	r = r.WithContext(NewClaimsContext(r.Context(), fakeClaims("claim-tenant")))
	if got := Resolve(r); got != "claim-tenant" {
		t.Fatalf("Resolve() = %q, want claim to win over subdomain", got)
	}
}

func TestResolve_QueryParam(t *testing.T) {
	r := newRequest(t, "http://acme.warden.example.com/?tenantId=query-tenant")
	r = r.WithContext(NewClaimsContext(r.Context(), fakeClaims("claim-tenant")))
	if got := Resolve(r); got != "query-tenant" {
		t.Fatalf("Resolve() = %q, want query param to win over claim", got)
	}
}

func TestResolve_Header(t *testing.T) {
	r := newRequest(t, "http://acme.warden.example.com/?tenantId=query-tenant")
	r.Header.Set(HeaderName, "header-tenant")
	if got := Resolve(r); got != "header-tenant" {
		t.Fatalf("Resolve() = %q, want header to win over query param", got)
	}
}

func TestResolve_ContextItem(t *testing.T) {
	r := newRequest(t, "http://acme.warden.example.com/?tenantId=query-tenant")
	r.Header.Set(HeaderName, "header-tenant")
	r = r.WithContext(NewContext(r.Context(), "context-tenant"))
	if got := Resolve(r); got != "context-tenant" {
		t.Fatalf("Resolve() = %q, want explicit context item to win over everything", got)
	}
}

func TestResolve_WWWSubdomainIsNotATenant(t *testing.T) {
	r := newRequest(t, "http://www.example.com/")
	if got := Resolve(r); got != DefaultTenant {
		t.Fatalf("Resolve() = %q, want default for www subdomain", got)
	}
}
