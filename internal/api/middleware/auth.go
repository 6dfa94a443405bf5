package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/quietsummit/travel-api/internal/core/domain"
)

const ContextKeyClaims = "claims"

// Auth validates the bearer JWT and injects its identity claims into context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id := domain.Claims{}
			id.Email, _ = claims["email"].(string)
			id.Name, _ = claims["name"].(string)
			id.Role, _ = claims["role"].(string)
			id.IsHost, _ = claims["isHost"].(bool)

			c.Set(ContextKeyClaims, id)
			c.Set("email", id.Email)
			c.Set("role", id.Role)

			return next(c)
		}
	}
}

// ClaimsFrom returns the identity injected by Auth.
func ClaimsFrom(c echo.Context) (domain.Claims, bool) {
	claims, ok := c.Get(ContextKeyClaims).(domain.Claims)
	return claims, ok
}
