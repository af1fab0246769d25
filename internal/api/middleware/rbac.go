package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

// Policy maps a route, keyed by RouteKey, to the grant it requires.
type Policy map[string]domain.Grant

// RouteKey builds a Policy key from an HTTP method and an Echo route path.
func RouteKey(method, path string) string { return method + " " + path }

// Lookup returns the grant required by the matched route of c, if any.
func (p Policy) Lookup(c echo.Context) (domain.Grant, bool) {
	g, ok := p[RouteKey(c.Request().Method, c.Path())]
	return g, ok
}

// RBAC enforces role-based access control. It must run after Auth. Routes
// absent from policy pass through; listed routes are admitted only when the
// authorizer permits the caller.
func RBAC(policy Policy, authz ports.Authorizer, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			want, guarded := policy.Lookup(c)
			if !guarded {
				return next(c)
			}

			claims, ok := ClaimsFrom(c)
			if !ok {
				return unauthorized(domain.TokenNotValid(nil, "missing authentication claims"))
			}

			decision, err := authz.Authorize(c.Request().Context(), claims.UserID, want)
			if err != nil {
				return err
			}
			if decision != domain.Permit {
				log.Info().
					Str("user_id", claims.UserID).
					Str("grant", want.String()).
					Str("path", c.Path()).
					Msg("access denied")
				return &echo.HTTPError{
					Code:     http.StatusForbidden,
					Message:  "forbidden",
					Internal: domain.Forbidden("Access to %s denied", want),
				}
			}
			return next(c)
		}
	}
}
