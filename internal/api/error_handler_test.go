package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
)

func renderError(t *testing.T, err error) (int, errorResponse, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body, rec.Body.String()
}

func TestHTTPErrorHandler_DomainKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		tag    string
		msg    string
	}{
		{domain.IDNotValid("ID x is not valid"), http.StatusBadRequest, "ID_NOT_VALID", "ID x is not valid"},
		{domain.NotFound("ID y not found"), http.StatusNotFound, "NOT_FOUND", "ID y not found"},
		{domain.TokenNotValid(nil, "Token z is not valid"), http.StatusBadRequest, "TOKEN_NOT_VALID", "Token z is not valid"},
		{domain.Forbidden("Username or password wrong!"), http.StatusForbidden, "FORBIDDEN", "Username or password wrong!"},
		{domain.Validation("email is required"), http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required"},
		{fmt.Errorf("wrapped: %w", domain.NotFound("gone")), http.StatusNotFound, "NOT_FOUND", "gone"},
	}
	for _, tc := range cases {
		status, body, _ := renderError(t, tc.err)
		if status != tc.status || body.Error != tc.tag || body.Message != tc.msg {
			t.Errorf("%v: got %d %+v, want %d %s %q", tc.err, status, body, tc.status, tc.tag, tc.msg)
		}
	}
}

func TestHTTPErrorHandler_InternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused to mongo-0:27017")
	for _, err := range []error{cause, domain.Internal(cause, "login")} {
		status, body, raw := renderError(t, err)
		if status != http.StatusInternalServerError || body.Error != "INTERNAL_ERROR" {
			t.Fatalf("unexpected response: %d %+v", status, body)
		}
		if strings.Contains(raw, "mongo-0") {
			t.Fatalf("internal cause leaked: %s", raw)
		}
	}
}

func TestHTTPErrorHandler_EchoErrors(t *testing.T) {
	status, body, _ := renderError(t, echo.NewHTTPError(http.StatusBadRequest, "invalid payload"))
	if status != http.StatusBadRequest || body.Error != "VALIDATION_ERROR" || body.Message != "invalid payload" {
		t.Fatalf("unexpected bind failure rendering: %d %+v", status, body)
	}

	guard := &echo.HTTPError{
		Code:     http.StatusUnauthorized,
		Message:  "token expired",
		Internal: domain.TokenNotValid(nil, "token expired"),
	}
	status, body, _ = renderError(t, guard)
	if status != http.StatusUnauthorized || body.Error != "TOKEN_NOT_VALID" {
		t.Fatalf("unexpected guard rendering: %d %+v", status, body)
	}
}
