package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quietsummit/travel-api/internal/api/middleware"
	"github.com/quietsummit/travel-api/internal/core/domain"
)

// ctxClaims extracts the identity injected by the Auth middleware. An empty
// email means the token was structurally valid but carries no identity.
func ctxClaims(c echo.Context) (domain.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return domain.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if claims.Email == "" {
		return domain.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}
	return claims, nil
}
