package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps every domain error kind to its HTTP status code.
//   - Logs internal errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<TAG>", "message": "<text>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router) and guard rejections
	// that carry a domain error in Internal.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		var de *domain.Error
		if errors.As(he.Internal, &de) {
			return he.Code, errorResponse{Error: de.Kind.String(), Message: domain.MessageOf(de)}
		}
		return he.Code, errorResponse{Error: tagForStatus(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
	}
	return StatusOf(kind), errorResponse{Error: kind.String(), Message: domain.MessageOf(err)}
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindIDNotValid:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindTokenNotValid:
		return http.StatusBadRequest
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func tagForStatus(code int) string {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.KindValidation.String()
	case http.StatusUnauthorized:
		return domain.KindTokenNotValid.String()
	case http.StatusForbidden:
		return domain.KindForbidden.String()
	case http.StatusNotFound:
		return domain.KindNotFound.String()
	case http.StatusInternalServerError:
		return domain.KindInternal.String()
	default:
		return http.StatusText(code)
	}
}
