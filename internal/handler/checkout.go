package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"linkcart/internal/dto"
	"linkcart/internal/middleware"
	"linkcart/internal/service"

	"github.com/labstack/echo/v4"
)

const maxStatusWait = 60 * time.Second

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Begin(c echo.Context) error {
	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	attempt, err := h.checkoutService.BeginCheckout(c.Request().Context(), middleware.BuyerFrom(c), req.PaymentNonce)
	if err != nil {
		return httpError(err)
	}

	// Server-side charge gateways may already have resolved the attempt.
	state := ""
	if snap, err := h.checkoutService.Lookup(attempt.Request.OrderID); err == nil {
		state = snap.State.String()
	}

	return c.JSON(http.StatusCreated, &dto.CheckoutResponse{
		OrderID:     attempt.Request.OrderID,
		Amount:      attempt.Request.Amount,
		Currency:    attempt.Request.Currency,
		ApprovalURL: attempt.ApprovalURL,
		State:       state,
	})
}

// Status reports an attempt's state. With ?wait=<duration> it holds the
// request until the attempt resolves or the duration passes.
func (h *CheckoutHandler) Status(c echo.Context) error {
	orderID := c.Param("orderID")

	wait := time.Duration(0)
	if raw := c.QueryParam("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid wait duration")
		}
		wait = min(d, maxStatusWait)
	}

	if wait == 0 {
		snap, err := h.checkoutService.Lookup(orderID)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, outcomeResponse(orderID, snap.State.String(), snap.Err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), wait)
	defer cancel()

	out, err := h.checkoutService.Wait(ctx, orderID)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, outcomeResponse(orderID, out.State.String(), out.Err))
}

func outcomeResponse(orderID, state string, cause error) *dto.CheckoutOutcomeResponse {
	resp := &dto.CheckoutOutcomeResponse{OrderID: orderID, State: state}
	if cause != nil {
		resp.Error = cause.Error()
	}
	return resp
}
