package caretaker

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medtrack/medtrack/internal/domain/medication"
	"github.com/medtrack/medtrack/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the caretaker routes on g. The caller is expected to
// guard g with the caretaker role.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.POST("/patients", h.AddPatient)
	g.DELETE("/patients/:patientId", h.RemovePatient)
	g.GET("/patients/:patientId/medications", h.PatientMedications)
	g.POST("/patients/:patientId/medications/:medicationId/mark-taken", h.MarkTaken)
}

func (h *Handler) ListPatients(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	patients, err := h.svc.ListPatients(c.Request().Context(), actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) AddPatient(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	var req AddPatientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	p, err := h.svc.AddPatient(c.Request().Context(), actor, req.PatientUsername)
	if err != nil {
		var ve ValidationError
		switch {
		case errors.As(err, &ve):
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		case errors.Is(err, ErrAlreadyLinked):
			return echo.NewHTTPError(http.StatusBadRequest, "You are already a caretaker for this patient")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Patient added successfully",
		"patient": p,
	})
}

func (h *Handler) RemovePatient(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	patientID, err := parsePatientID(c)
	if err != nil {
		return err
	}

	if err := h.svc.RemovePatient(c.Request().Context(), actor, patientID); err != nil {
		if errors.Is(err, ErrNotLinked) {
			return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient removed successfully"})
}

func (h *Handler) PatientMedications(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	patientID, err := parsePatientID(c)
	if err != nil {
		return err
	}

	meds, err := h.svc.PatientMedications(c.Request().Context(), actor, patientID)
	if err != nil {
		if errors.Is(err, ErrNotLinked) {
			return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to view this patient's medications")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) MarkTaken(c echo.Context) error {
	actor, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	patientID, err := parsePatientID(c)
	if err != nil {
		return err
	}
	medicationID, err := strconv.ParseInt(c.Param("medicationId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid medication id")
	}

	var body struct {
		Date string `json:"date"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	l, err := h.svc.MarkTaken(c.Request().Context(), actor, patientID, medicationID, body.Date)
	if err != nil {
		var ve ValidationError
		switch {
		case errors.As(err, &ve):
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		case errors.Is(err, ErrNotLinked):
			return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to manage this patient's medications")
		case errors.Is(err, medication.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Medication not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Medication marked as taken",
		"log":     l,
	})
}

func parsePatientID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("patientId"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid patient id")
	}
	return id, nil
}
