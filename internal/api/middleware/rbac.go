package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quietsummit/travel-api/internal/core/domain"
)

// RBAC admits requests whose token role is one of allowedRoles. Others fail
// with domain.ErrForbidden, rendered as 403 by the error handler. Must run
// after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, _ := ClaimsFrom(c)
			if _, ok := allowed[claims.Role]; !ok {
				zerolog.Ctx(c.Request().Context()).Warn().
					Str("email", claims.Email).
					Str("role", claims.Role).
					Str("path", c.Path()).
					Msg("role not permitted")
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
