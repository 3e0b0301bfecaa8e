package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/repository"
	"github.com/fario/flyschool/internal/service"
)

// maxWebhookBody bounds how much of a webhook payload is read.
const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookVerifier checks a raw webhook payload against its signature
// header. Implemented by the payment client; tests substitute fakes.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (payment.WebhookEvent, error)
}

// ConfirmService is the slice of the confirmation workflow the payment
// endpoints need.
type ConfirmService interface {
	HandleWebhook(ctx context.Context, ev payment.WebhookEvent) error
	ConfirmPoll(ctx context.Context, bookingID string) (service.ConfirmOutcome, error)
}

// PaymentHandler exposes the provider webhook and the client's
// post-redirect confirmation poll.
type PaymentHandler struct {
	Verifier WebhookVerifier
	Confirm  ConfirmService
}

func NewPaymentHandler(verifier WebhookVerifier, confirm ConfirmService) *PaymentHandler {
	return &PaymentHandler{Verifier: verifier, Confirm: confirm}
}

// Webhook receives provider notifications: POST /v1/payments/webhook.
// The signature is checked against the raw body before anything is
// parsed; a mismatch answers 400 and touches no state. Business
// outcomes always answer 200 so the provider stops redelivering.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}

	ev, err := h.Verifier.VerifyWebhook(body, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature_invalid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if err := h.Confirm.HandleWebhook(ctx, ev); err != nil {
		c.Logger().Errorf("webhook %s: %v", ev.ID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// ConfirmPoll answers the client's "did my payment go through" check
// after the redirect back: POST /v1/payments/confirm.
func (h *PaymentHandler) ConfirmPoll(c echo.Context) error {
	var req struct {
		BookingID string `json:"booking_id"`
	}
	if err := c.Bind(&req); err != nil || req.BookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing_fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	out, err := h.Confirm.ConfirmPoll(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
		}
		c.Logger().Errorf("confirm poll %s: %v", req.BookingID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
	}

	resp := echo.Map{"ok": true, "booking_id": out.BookingID, "status": out.Status}
	if out.VoucherCode != "" {
		resp["voucher_code"] = out.VoucherCode
	}
	return c.JSON(http.StatusOK, resp)
}
