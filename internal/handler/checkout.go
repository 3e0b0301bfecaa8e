package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/pricing"
	"github.com/fario/flyschool/internal/repository"
	"github.com/fario/flyschool/internal/service"
)

// CheckoutHandler exposes the public checkout endpoint.
type CheckoutHandler struct {
	Checkout *service.Checkout
}

func NewCheckoutHandler(checkout *service.Checkout) *CheckoutHandler {
	return &CheckoutHandler{Checkout: checkout}
}

// Create starts a checkout: POST /v1/checkout.
func (h *CheckoutHandler) Create(c echo.Context) error {
	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Checkout.Start(ctx, req)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// checkoutError maps service and pricing sentinels onto HTTP answers.
func checkoutError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, pricing.ErrInsufficientCapacity):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient_capacity"})
	case errors.Is(err, pricing.ErrInvalidVoucherAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_voucher_amount"})
	case errors.Is(err, pricing.ErrInvalidAmount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_amount"})
	case errors.Is(err, service.ErrProviderUnavailable):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment_provider_unavailable"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	default:
		c.Logger().Errorf("checkout: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
	}
}
