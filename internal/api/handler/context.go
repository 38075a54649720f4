package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/webauth/authd/internal/core/domain"
)

// ClaimsKey is the echo context key under which the Auth middleware stores the
// verified session claims.
const ClaimsKey = "claims"

// SetClaims stores verified claims on the request context.
func SetClaims(c echo.Context, claims *domain.Claims) {
	c.Set(ClaimsKey, claims)
}

// ctxClaims extracts the claims injected by the Auth middleware. Their
// absence means the route was mounted without it, so the request is treated
// as unauthenticated.
func ctxClaims(c echo.Context) (*domain.Claims, error) {
	claims, _ := c.Get(ClaimsKey).(*domain.Claims)
	if claims == nil {
		return nil, &domain.Error{Kind: domain.KindMalformed, Message: domain.MsgMalformedToken}
	}
	return claims, nil
}
