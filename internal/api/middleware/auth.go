package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

// Context keys set by the bearer guards.
const (
	claimsKey = "claims"
	tokenKey  = "token"
)

// Auth validates the bearer access token, including its expiry, and injects
// the claims into context.
func Auth(issuer ports.TokenIssuer) echo.MiddlewareFunc {
	return bearer(issuer.Validate)
}

// AuthLenient checks the bearer signature and accepts a token that expired
// within the issuer's renew window, so renewal and rejection keep working once
// the access token has lapsed.
func AuthLenient(issuer ports.TokenIssuer) echo.MiddlewareFunc {
	return bearer(issuer.ValidateSignature)
}

func bearer(validate func(string) (domain.Claims, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(domain.TokenNotValid(nil, "missing authorization header"))
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized(domain.TokenNotValid(nil, "invalid authorization header"))
			}
			raw := strings.TrimSpace(parts[1])

			claims, err := validate(raw)
			if err != nil {
				return unauthorized(err)
			}

			SetClaims(c, claims, raw)
			return next(c)
		}
	}
}

// unauthorized keeps the domain tag while forcing 401.
func unauthorized(err error) error {
	return &echo.HTTPError{
		Code:     http.StatusUnauthorized,
		Message:  domain.MessageOf(err),
		Internal: err,
	}
}

// SetClaims stores the identity a bearer guard has established.
func SetClaims(c echo.Context, claims domain.Claims, token string) {
	c.Set(claimsKey, claims)
	c.Set(tokenKey, token)
}

// ClaimsFrom returns the claims injected by a bearer guard.
func ClaimsFrom(c echo.Context) (domain.Claims, bool) {
	claims, ok := c.Get(claimsKey).(domain.Claims)
	return claims, ok && claims.UserID != ""
}

// TokenFrom returns the raw bearer token injected by a bearer guard.
func TokenFrom(c echo.Context) string {
	tok, _ := c.Get(tokenKey).(string)
	return tok
}
