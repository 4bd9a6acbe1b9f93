package db

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Ping verifies the store is reachable within a short deadline.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// HealthHandler returns the liveness probe handler. It reports the server
// version and pings the store.
func HealthHandler(d *DB, version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := d.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	}
}
