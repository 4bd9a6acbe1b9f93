package medication

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/platform/blobstore"
)

type Handler struct {
	svc    *Service
	photos blobstore.PhotoStore
}

func NewHandler(svc *Service, photos blobstore.PhotoStore) *Handler {
	return &Handler{svc: svc, photos: photos}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/medications", h.List)
	g.POST("/medications", h.Create)
	g.PUT("/medications/:id", h.Update)
	g.DELETE("/medications/:id", h.Delete)
	g.POST("/medications/:id/mark-taken", h.MarkTaken)
	g.GET("/medications/:id/logs", h.Logs)
}

func (h *Handler) List(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	meds, err := h.svc.List(c.Request().Context(), actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) Create(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	var req UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	m, err := h.svc.Create(c.Request().Context(), actor, req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":        m.ID,
		"user_id":   m.UserID,
		"name":      m.Name,
		"dosage":    m.Dosage,
		"frequency": m.Frequency,
		"message":   "Medication added successfully",
	})
}

func (h *Handler) Update(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req UpsertRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	m, err := h.svc.Update(c.Request().Context(), actor, id, req)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":        m.ID,
		"user_id":   m.UserID,
		"name":      m.Name,
		"dosage":    m.Dosage,
		"frequency": m.Frequency,
		"message":   "Medication updated successfully",
	})
}

func (h *Handler) Delete(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Medication deleted successfully"})
}

// MarkTaken accepts either a JSON body or a multipart form with an optional
// photo file attached as "photo".
func (h *Handler) MarkTaken(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	date := c.FormValue("date")
	if date == "" {
		var body struct {
			Date string `json:"date"`
		}
		if err := c.Bind(&body); err == nil {
			date = body.Date
		}
	}

	photoURL, err := h.storePhoto(c)
	if err != nil {
		return err
	}

	l, err := h.svc.MarkTaken(c.Request().Context(), actor, id, date, photoURL)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Medication marked as taken",
		"log":     l,
	})
}

func (h *Handler) Logs(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	id, err := parseID(c)
	if err != nil {
		return err
	}

	logs, err := h.svc.Logs(c.Request().Context(), actor.ID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, logs)
}

// storePhoto saves an attached photo, if any, and returns its URL.
func (h *Handler) storePhoto(c echo.Context) (*string, error) {
	file, err := c.FormFile("photo")
	if err != nil {
		return nil, nil // no photo attached
	}

	src, err := file.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer src.Close()

	url, err := h.photos.Save(c.Request().Context(), file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, blobstore.ErrFileTooLarge.Error())
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return nil, echo.NewHTTPError(http.StatusBadRequest, blobstore.ErrInvalidContentType.Error())
		default:
			return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to store photo")
		}
	}
	return &url, nil
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid medication id")
	}
	return id, nil
}

func mapServiceError(err error) error {
	var ve ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Medication not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
}
