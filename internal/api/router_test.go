package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/api/middleware"
	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/service"
)

var adminPrefixes = []string{"/roles", "/groups", "/permissions", "/users"}

func isAdminPath(path string) bool {
	for _, p := range adminPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func testRouter() *echo.Echo {
	issuer := service.NewJWTIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	return NewRouter(Deps{Issuer: issuer, Log: zerolog.Nop()})
}

func TestRouter_EveryAdminRouteHasAPolicy(t *testing.T) {
	e := testRouter()

	seen := 0
	for _, r := range e.Routes() {
		if !isAdminPath(r.Path) {
			continue
		}
		seen++
		if _, ok := Policy()[middleware.RouteKey(r.Method, r.Path)]; !ok {
			t.Errorf("route %s %s is not in the policy table", r.Method, r.Path)
		}
	}
	if seen != len(Policy()) {
		t.Fatalf("policy table has %d entries but %d admin routes are registered", len(Policy()), seen)
	}
}

func TestRouter_AdminRoutesRequireBearer(t *testing.T) {
	e := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error != domain.KindTokenNotValid.String() {
		t.Fatalf("unexpected error tag %q", body.Error)
	}
}

func TestRouter_Liveness(t *testing.T) {
	e := testRouter()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPolicyGrants(t *testing.T) {
	grants := PolicyGrants()
	seen := map[domain.Grant]bool{}
	for i, g := range grants {
		if seen[g] {
			t.Fatalf("duplicate grant %s", g)
		}
		seen[g] = true
		if i > 0 && grants[i-1].String() >= g.String() {
			t.Fatalf("grants not sorted at %d", i)
		}
	}
	for _, want := range []domain.Grant{
		{Resource: "roles", Method: "query"},
		{Resource: "groups", Method: "assign"},
	} {
		if !seen[want] {
			t.Fatalf("expected %s among grants", want)
		}
	}
}
