package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/repository"
	"github.com/fario/flyschool/internal/service"
)

type fakeVerifier struct {
	event payment.WebhookEvent
	err   error
	seen  []string // signature headers passed in
}

func (f *fakeVerifier) VerifyWebhook(_ []byte, sigHeader string) (payment.WebhookEvent, error) {
	f.seen = append(f.seen, sigHeader)
	if f.err != nil {
		return payment.WebhookEvent{}, f.err
	}
	return f.event, nil
}

type fakeConfirm struct {
	webhookErr error
	handled    []payment.WebhookEvent
	outcome    service.ConfirmOutcome
	pollErr    error
}

func (f *fakeConfirm) HandleWebhook(_ context.Context, ev payment.WebhookEvent) error {
	if f.webhookErr != nil {
		return f.webhookErr
	}
	f.handled = append(f.handled, ev)
	return nil
}

func (f *fakeConfirm) ConfirmPoll(_ context.Context, bookingID string) (service.ConfirmOutcome, error) {
	if f.pollErr != nil {
		return service.ConfirmOutcome{}, f.pollErr
	}
	out := f.outcome
	out.BookingID = bookingID
	return out, nil
}

func webhookRequest(t *testing.T, h *PaymentHandler, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", signature)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Webhook(e.NewContext(req, rec)))
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("bad signature")}
	confirm := &fakeConfirm{}
	h := NewPaymentHandler(verifier, confirm)

	rec := webhookRequest(t, h, `{"id":"evt_1"}`, "t=1,v1=deadbeef")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature_invalid")
	assert.Empty(t, confirm.handled)
}

func TestWebhookAcksVerifiedEvent(t *testing.T) {
	verifier := &fakeVerifier{event: payment.WebhookEvent{
		ID: "evt_1", Type: "checkout.session.completed", BookingID: "b-1", Paid: true,
	}}
	confirm := &fakeConfirm{}
	h := NewPaymentHandler(verifier, confirm)

	rec := webhookRequest(t, h, `{"id":"evt_1"}`, "t=1,v1=ok")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, confirm.handled, 1)
	assert.Equal(t, "evt_1", confirm.handled[0].ID)
	// The raw signature header reaches the verifier untouched.
	assert.Equal(t, []string{"t=1,v1=ok"}, verifier.seen)
}

func TestWebhookInternalFailureAnswers500(t *testing.T) {
	verifier := &fakeVerifier{event: payment.WebhookEvent{ID: "evt_1"}}
	confirm := &fakeConfirm{webhookErr: errors.New("db down")}
	h := NewPaymentHandler(verifier, confirm)

	rec := webhookRequest(t, h, `{"id":"evt_1"}`, "t=1,v1=ok")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func confirmRequest(t *testing.T, h *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/confirm", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ConfirmPoll(e.NewContext(req, rec)))
	return rec
}

func TestConfirmPollReturnsOutcome(t *testing.T) {
	confirm := &fakeConfirm{outcome: service.ConfirmOutcome{Status: "paid", VoucherCode: "7KQ2M8XWPD"}}
	h := NewPaymentHandler(&fakeVerifier{}, confirm)

	rec := confirmRequest(t, h, `{"booking_id":"b-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
	assert.Contains(t, rec.Body.String(), `"paid"`)
	assert.Contains(t, rec.Body.String(), "7KQ2M8XWPD")
}

func TestConfirmPollRequiresBookingID(t *testing.T) {
	h := NewPaymentHandler(&fakeVerifier{}, &fakeConfirm{})

	rec := confirmRequest(t, h, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_fields")
}

func TestConfirmPollUnknownBookingAnswers404(t *testing.T) {
	confirm := &fakeConfirm{pollErr: repository.ErrBookingNotFound}
	h := NewPaymentHandler(&fakeVerifier{}, confirm)

	rec := confirmRequest(t, h, `{"booking_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
