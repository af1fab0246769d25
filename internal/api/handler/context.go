package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessctl/identity-api/internal/api/middleware"
	"github.com/accessctl/identity-api/internal/core/domain"
)

// ctxClaims extracts the claims injected by the bearer guard. Missing claims
// mean the route was mounted without a guard, so the request is refused.
func ctxClaims(c echo.Context) (domain.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return domain.Claims{}, &echo.HTTPError{
			Code:     http.StatusUnauthorized,
			Message:  "missing authentication claims",
			Internal: domain.TokenNotValid(nil, "missing authentication claims"),
		}
	}
	return claims, nil
}

// bind decodes the request body and runs the registered validator.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}
