package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webauth/authd/internal/api/handler"
	"github.com/webauth/authd/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := c.Get(handler.ClaimsKey).(*domain.Claims)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.MsgMalformedToken})
			}
			if _, ok := allowed[claims.Role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
