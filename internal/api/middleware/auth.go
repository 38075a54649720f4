package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webauth/authd/internal/api/handler"
	"github.com/webauth/authd/internal/api/metrics"
	"github.com/webauth/authd/internal/core/domain"
)

// Authenticator verifies a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Claims, error)
}

// Auth verifies the session cookie and injects the claims into context.
// Storage failures surface as errors for the central handler; every other
// rejection is a 401.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := handler.TokenFromRequest(c.Request())
			if token == "" {
				metrics.TokenVerificationsTotal.WithLabelValues(domain.KindMalformed.String()).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing session cookie")
			}

			claims, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				kind := domain.KindOf(err)
				metrics.TokenVerificationsTotal.WithLabelValues(kind.String()).Inc()
				if kind == domain.KindInternal {
					return err
				}
				return echo.NewHTTPError(http.StatusUnauthorized, domain.MessageOf(err))
			}

			metrics.TokenVerificationsTotal.WithLabelValues("accepted").Inc()
			handler.SetClaims(c, claims)
			return next(c)
		}
	}
}
