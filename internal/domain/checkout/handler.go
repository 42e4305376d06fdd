package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/clinichq/clinic-api/internal/platform/auth"
	"github.com/clinichq/clinic-api/internal/platform/payments"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/checkout/sessions", auth.RequireRole("admin", "front-desk"))
	g.POST("", h.Open)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Close)
	g.POST("/:id/lines", h.AddLine)
	g.DELETE("/:id/lines/:lineID", h.RemoveLine)
	g.PUT("/:id/discount", h.SetDiscount)
	g.PUT("/:id/tip", h.SetTip)
	g.PUT("/:id/customer", h.SetCustomer)
	g.PUT("/:id/payment-method", h.SetPaymentMethod)
	g.POST("/:id/checkout", h.Checkout)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/done", h.Done)
	g.POST("/:id/back", h.Back)
}

// sessionView is what every session endpoint returns: the session plus its
// priced totals, rounded to cents.
type sessionView struct {
	Session *Session `json:"session"`
	Totals  Totals   `json:"totals"`
}

func view(s *Session) sessionView {
	return sessionView{Session: s, Totals: Price(s).Rounded()}
}

func (h *Handler) Open(c echo.Context) error {
	s := h.svc.Open(c.Request().Context())
	return c.JSON(http.StatusCreated, view(s))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view(s))
}

func (h *Handler) Close(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	h.svc.Close(c.Request().Context(), id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddLine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var line CartLine
	if err := c.Bind(&line); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := h.svc.AddLine(c.Request().Context(), id, line)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view(s))
}

func (h *Handler) RemoveLine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid line id")
	}
	s, err := h.svc.RemoveLine(c.Request().Context(), id, lineID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view(s))
}

func (h *Handler) SetDiscount(c echo.Context) error {
	var req struct {
		Enabled bool            `json:"enabled"`
		Percent decimal.Decimal `json:"percent"`
	}
	return h.mutate(c, &req, func(ctx context.Context, id uuid.UUID) (*Session, error) {
		return h.svc.SetDiscount(ctx, id, req.Enabled, req.Percent)
	})
}

func (h *Handler) SetTip(c echo.Context) error {
	var req struct {
		Mode  string          `json:"mode"`
		Value decimal.Decimal `json:"value"`
	}
	return h.mutate(c, &req, func(ctx context.Context, id uuid.UUID) (*Session, error) {
		return h.svc.SetTip(ctx, id, req.Mode, req.Value)
	})
}

func (h *Handler) SetCustomer(c echo.Context) error {
	var req struct {
		CustomerID *uuid.UUID `json:"customer_id"`
	}
	return h.mutate(c, &req, func(ctx context.Context, id uuid.UUID) (*Session, error) {
		return h.svc.SetCustomer(ctx, id, req.CustomerID)
	})
}

func (h *Handler) SetPaymentMethod(c echo.Context) error {
	var req struct {
		Method string `json:"method"`
	}
	return h.mutate(c, &req, func(ctx context.Context, id uuid.UUID) (*Session, error) {
		return h.svc.SetPaymentMethod(ctx, id, req.Method)
	})
}

func (h *Handler) Checkout(c echo.Context) error {
	return h.transition(c, h.svc.Checkout)
}

func (h *Handler) Confirm(c echo.Context) error {
	return h.transition(c, h.svc.Confirm)
}

func (h *Handler) Done(c echo.Context) error {
	return h.transition(c, h.svc.Done)
}

func (h *Handler) Back(c echo.Context) error {
	return h.transition(c, h.svc.Back)
}

func (h *Handler) mutate(c echo.Context, req interface{}, fn func(ctx context.Context, id uuid.UUID) (*Session, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s, err := fn(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view(s))
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Session, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := fn(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view(s))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "checkout session not found")
	case errors.Is(err, ErrInvalidStage):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, payments.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
