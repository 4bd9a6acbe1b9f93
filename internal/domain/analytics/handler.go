package analytics

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medtrack/medtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard/stats", h.DashboardStats)
	g.GET("/analytics/adherence", h.Adherence)
}

func (h *Handler) DashboardStats(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	stats, err := h.svc.DashboardStats(c.Request().Context(), actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Adherence(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	period := c.QueryParam("period")
	if period == "" {
		period = "week"
	}

	report, err := h.svc.Adherence(c.Request().Context(), actor.ID, period)
	if err != nil {
		if errors.Is(err, ErrInvalidPeriod) {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid period. Use 'week', 'month', or 'year'.")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, report)
}
