package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/queue"
)

type confirmEnv struct {
	svc      *Confirmation
	bookings *fakeBookings
	payments *fakePayments
	catalog  *fakeCatalog
	vouchers *fakeVouchers
	events   *fakeEvents
	provider *fakeProvider
	publish  *fakePublisher
}

func newConfirmEnv(bs ...model.Booking) *confirmEnv {
	env := &confirmEnv{
		bookings: newFakeBookings(bs...),
		payments: newFakePayments(),
		catalog:  newFakeCatalog(),
		vouchers: newFakeVouchers(),
		events:   newFakeEvents(),
		provider: newFakeProvider(),
		publish:  &fakePublisher{},
	}
	env.catalog.sessions[1] = model.CourseSession{
		ID: 1, CourseTitle: "Beginner casting", UnitPriceCHF: 190,
		SeatsTotal: 8, SeatsLeft: 5, IsActive: true,
	}
	env.svc = NewConfirmation(env.bookings, env.payments, env.catalog, env.vouchers,
		env.events, NewVoucherIssuer(env.vouchers), env.provider, env.publish,
		fakeTx{}, zap.NewNop())
	return env
}

func courseBooking(id string) model.Booking {
	return model.Booking{
		ID: id, Kind: model.KindCourse, TargetID: 1,
		CustomerName: "Anna Muster", CustomerEmail: "anna@example.com",
		Quantity: 2, AmountCHF: 380, Currency: "CHF",
		PaymentMode: model.PayOnline, Status: model.StatusAwaitingPayment,
	}
}

func voucherBooking(id string) model.Booking {
	return model.Booking{
		ID: id, Kind: model.KindVoucher, TargetID: 3,
		CustomerName: "Anna Muster", CustomerEmail: "anna@example.com",
		Quantity: 1, AmountCHF: 150, Currency: "CHF",
		PaymentMode: model.PayOnline, Status: model.StatusAwaitingPayment,
		VoucherRecipient: "Max Muster",
	}
}

func completedEvent(eventID, bookingID string) payment.WebhookEvent {
	return payment.WebhookEvent{
		ID: eventID, Type: "checkout.session.completed",
		BookingID: bookingID, SessionID: "cs_test_1", IntentID: "pi_1", Paid: true,
	}
}

func TestWebhookSettlesCourseBooking(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))

	require.NoError(t, env.svc.HandleWebhook(context.Background(), completedEvent("evt_1", "b-1")))

	b, _ := env.bookings.GetByID(context.Background(), "b-1")
	assert.Equal(t, model.StatusPaid, b.Status)
	assert.Equal(t, 3, env.catalog.sessions[1].SeatsLeft)

	p, err := env.payments.GetByBookingID(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, p.Status)
	require.NotNil(t, p.PaidAt)

	require.Len(t, env.publish.published, 1)
	assert.Equal(t, queue.TypeBookingPaid, env.publish.published[0].Type)
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))
	ev := completedEvent("evt_1", "b-1")

	require.NoError(t, env.svc.HandleWebhook(context.Background(), ev))
	require.NoError(t, env.svc.HandleWebhook(context.Background(), ev))

	// Seats decremented once, one paid email.
	assert.Equal(t, []int{2}, env.catalog.decrements)
	assert.Len(t, env.publish.published, 1)
}

func TestSecondDistinctEventDoesNotDoubleSettle(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))

	require.NoError(t, env.svc.HandleWebhook(context.Background(), completedEvent("evt_1", "b-1")))
	first, _ := env.payments.GetByBookingID(context.Background(), "b-1")

	require.NoError(t, env.svc.HandleWebhook(context.Background(), completedEvent("evt_2", "b-1")))

	assert.Equal(t, []int{2}, env.catalog.decrements)
	assert.Len(t, env.publish.published, 1)
	second, _ := env.payments.GetByBookingID(context.Background(), "b-1")
	assert.Equal(t, first.PaidAt, second.PaidAt)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))

	require.NoError(t, env.svc.HandleWebhook(context.Background(), payment.WebhookEvent{
		ID: "evt_1", Type: "charge.refunded",
	}))
	b, _ := env.bookings.GetByID(context.Background(), "b-1")
	assert.Equal(t, model.StatusAwaitingPayment, b.Status)
}

func TestWebhookForCancelledBookingIsAckedWithoutSettling(t *testing.T) {
	b := courseBooking("b-1")
	b.Status = model.StatusCancelled
	env := newConfirmEnv(b)

	require.NoError(t, env.svc.HandleWebhook(context.Background(), completedEvent("evt_1", "b-1")))

	got, _ := env.bookings.GetByID(context.Background(), "b-1")
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Empty(t, env.catalog.decrements)
	assert.Empty(t, env.publish.published)
}

func TestWebhookIssuesVoucher(t *testing.T) {
	env := newConfirmEnv(voucherBooking("b-2"))

	require.NoError(t, env.svc.HandleWebhook(context.Background(), completedEvent("evt_1", "b-2")))

	v, err := env.vouchers.GetByBookingID(context.Background(), "b-2")
	require.NoError(t, err)
	assert.Len(t, v.Code, 10)
	assert.Equal(t, int64(150), v.OriginalCHF)
	assert.Equal(t, int64(150), v.RemainingCHF)

	require.Len(t, env.publish.published, 1)
	assert.Equal(t, v.Code, env.publish.published[0].VoucherCode)
}

func TestPollAnswersFromDatabaseWhenAlreadyPaid(t *testing.T) {
	b := voucherBooking("b-2")
	b.Status = model.StatusPaid
	env := newConfirmEnv(b)
	env.vouchers.byBooking["b-2"] = model.Voucher{BookingID: "b-2", Code: "7KQ2M8XWPD"}

	out, err := env.svc.ConfirmPoll(context.Background(), "b-2")
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)
	assert.Equal(t, "7KQ2M8XWPD", out.VoucherCode)
	// No provider round trip needed.
	assert.Empty(t, env.provider.created)
}

func TestPollSettlesWhenProviderReportsPaid(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))
	env.payments.byBooking["b-1"] = model.Payment{BookingID: "b-1", Provider: "stripe", SessionID: "cs_42", Status: model.PaymentPending}
	env.provider.sessions["cs_42"] = payment.Session{ID: "cs_42", IntentID: "pi_9", Paid: true}

	out, err := env.svc.ConfirmPoll(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)

	b, _ := env.bookings.GetByID(context.Background(), "b-1")
	assert.Equal(t, model.StatusPaid, b.Status)
	assert.Equal(t, []int{2}, env.catalog.decrements)
	assert.Len(t, env.publish.published, 1)
}

func TestPollReportsPendingOnProviderOutage(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))
	env.payments.byBooking["b-1"] = model.Payment{BookingID: "b-1", Provider: "stripe", SessionID: "cs_42", Status: model.PaymentPending}
	env.provider.getErr = errors.New("stripe: 503")

	out, err := env.svc.ConfirmPoll(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
}

func TestPollReportsPendingWithoutSession(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))

	out, err := env.svc.ConfirmPoll(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", out.Status)
}

func TestMarkInvoicePaidRunsSameSettleFlow(t *testing.T) {
	b := courseBooking("b-1")
	b.PaymentMode = model.PayByInvoice
	b.Status = model.StatusInvoiceRequested
	env := newConfirmEnv(b)

	out, err := env.svc.MarkInvoicePaid(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "paid", out.Status)

	got, _ := env.bookings.GetByID(context.Background(), "b-1")
	assert.Equal(t, model.StatusPaid, got.Status)
	assert.Equal(t, []int{2}, env.catalog.decrements)

	p, _ := env.payments.GetByBookingID(context.Background(), "b-1")
	assert.Equal(t, "invoice", p.Provider)
	assert.Equal(t, model.PaymentPaid, p.Status)
}

func TestMarkInvoicePaidTwiceKeepsFirstTimestamp(t *testing.T) {
	b := courseBooking("b-1")
	b.Status = model.StatusInvoiceRequested
	env := newConfirmEnv(b)

	_, err := env.svc.MarkInvoicePaid(context.Background(), "b-1")
	require.NoError(t, err)
	first, _ := env.payments.GetByBookingID(context.Background(), "b-1")

	_, err = env.svc.MarkInvoicePaid(context.Background(), "b-1")
	require.NoError(t, err)
	second, _ := env.payments.GetByBookingID(context.Background(), "b-1")

	assert.Equal(t, first.PaidAt, second.PaidAt)
	assert.Equal(t, []int{2}, env.catalog.decrements)
	assert.Len(t, env.publish.published, 1)
}

func TestPublishFailureDoesNotFailSettlement(t *testing.T) {
	env := newConfirmEnv(courseBooking("b-1"))
	env.publish.err = errors.New("broker down")

	require.NoError(t, env.svc.HandleWebhook(context.Background(), completedEvent("evt_1", "b-1")))

	b, _ := env.bookings.GetByID(context.Background(), "b-1")
	assert.Equal(t, model.StatusPaid, b.Status)
}
