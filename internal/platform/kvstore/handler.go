package kvstore

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic-api/internal/platform/auth"
)

// maxValueBytes bounds a stored preference blob.
const maxValueBytes = 64 << 10

// Handler exposes the per-user preference store. Values are opaque to the
// server; clients store whatever they used to keep in local storage.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/preferences")
	g.GET("/:key", h.Get)
	g.PUT("/:key", h.Put)
	g.DELETE("/:key", h.Delete)
}

func (h *Handler) Get(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	value, err := h.store.Get(c.Request().Context(), userID, c.Param("key"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "preference not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(value))
}

func (h *Handler) Put(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxValueBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(body) > maxValueBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "preference value too large")
	}
	if err := h.store.Put(c.Request().Context(), userID, c.Param("key"), string(body)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Delete(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	if err := h.store.Delete(c.Request().Context(), userID, c.Param("key")); err != nil && !errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
