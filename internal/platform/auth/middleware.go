package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Middleware returns echo middleware that extracts and verifies the bearer
// token. A missing or malformed Authorization header yields 401; a token that
// fails verification yields 403. On success the decoded identity is attached
// to the request context.
func Middleware(tm *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			id, err := tm.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired token")
			}

			ctx := context.WithValue(c.Request().Context(), identityKey, id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// IdentityFromContext returns the identity attached by Middleware. The second
// return value is false when the request was not authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// WithIdentity returns a context carrying the given identity. Intended for
// tests and internal calls.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
