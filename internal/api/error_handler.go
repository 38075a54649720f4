package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webauth/authd/internal/core/domain"
	"github.com/webauth/authd/pkg/logger"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnexpected(log, c, err)
			return he.Code, domain.MsgServerUnavailable
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := statusFor(de.Kind); ok {
			return status, domain.MessageOf(de)
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	logUnexpected(log, c, err)
	return http.StatusInternalServerError, domain.MsgServerUnavailable
}

// statusFor maps a failure kind to its status. Internal has no mapping.
func statusFor(k domain.Kind) (int, bool) {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest, true
	case domain.KindDuplicate:
		return http.StatusConflict, true
	case domain.KindNotFound, domain.KindInvalidCredential:
		return http.StatusUnauthorized, true
	case domain.KindMalformed, domain.KindExpired, domain.KindRevoked:
		return http.StatusUnauthorized, true
	default:
		return 0, false
	}
}

func logUnexpected(log zerolog.Logger, c echo.Context, err error) {
	logger.Err(log.Error(), err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("unhandled error")
}
