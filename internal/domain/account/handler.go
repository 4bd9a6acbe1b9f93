package account

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

// RegisterRoutes mounts the public auth routes on public and the
// token-protected ones on authed.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/auth/signup", h.Signup)
	public.POST("/auth/login", h.Login)
	authed.GET("/auth/me", h.Me)
}

func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, token, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		if errors.Is(err, ErrDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "Username or email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Message: "User created successfully",
		Token:   token,
		User:    publicUser(u),
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	u, token, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		var ve ValidationError
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    publicUser(u),
	})
}

func (h *Handler) Me(c echo.Context) error {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	u, err := h.svc.Me(c.Request().Context(), id.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}

	return c.JSON(http.StatusOK, map[string]User{"user": publicUser(u)})
}

// publicUser strips server-only fields before serialization.
func publicUser(u *User) User {
	return User{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
