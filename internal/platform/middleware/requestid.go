// Package middleware provides the cross-cutting echo middleware used by the
// server: request IDs, request logging, panic recovery, and rate limiting.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderRequestID is the response header carrying the request ID.
const HeaderRequestID = "X-Request-Id"

// RequestID assigns each request a UUID, honoring one supplied by the client,
// and stores it under the "request_id" context key for the logger.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(HeaderRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(HeaderRequestID, rid)
			return next(c)
		}
	}
}
