package loyalty

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinichq/clinic-api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/loyalty", auth.RequireRole("admin", "front-desk"))
	g.GET("/:patientID", h.GetAccount)
	g.GET("/:patientID/transactions", h.Transactions)
	g.POST("/:patientID/earn", h.Earn)
	g.POST("/:patientID/redeem", h.Redeem)
	g.GET("/:patientID/subscription", h.ActiveSubscription)
	g.POST("/:patientID/subscriptions", h.Subscribe)
	g.POST("/subscriptions/:id/cancel", h.CancelSubscription)
}

func (h *Handler) GetAccount(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	account, err := h.svc.GetAccount(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *Handler) Transactions(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	txs, err := h.svc.Transactions(c.Request().Context(), patientID, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, txs)
}

func (h *Handler) Earn(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req struct {
		Points      int    `json:"points"`
		Type        string `json:"type"`
		Source      string `json:"source"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Type == "" {
		req.Type = TxEarned
	}
	account, err := h.svc.AddPoints(c.Request().Context(), patientID, req.Points, req.Type, req.Source, req.Description, nil)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *Handler) Redeem(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req struct {
		Points      int    `json:"points"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	account, err := h.svc.RedeemPoints(c.Request().Context(), patientID, req.Points, req.Description)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *Handler) ActiveSubscription(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	sub, err := h.svc.ActiveSubscription(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Subscribe(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req struct {
		PlanType string `json:"plan_type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.Subscribe(c.Request().Context(), patientID, req.PlanType)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *Handler) CancelSubscription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.CancelSubscription(c.Request().Context(), id, req.Reason)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientPoints):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrDuplicateSubscription):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
