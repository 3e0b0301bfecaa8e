package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/pricing"
	"github.com/fario/flyschool/internal/queue"
)

type checkoutEnv struct {
	svc      *Checkout
	bookings *fakeBookings
	payments *fakePayments
	catalog  *fakeCatalog
	provider *fakeProvider
	events   *fakePublisher
}

func newCheckoutEnv() *checkoutEnv {
	env := &checkoutEnv{
		bookings: newFakeBookings(),
		payments: newFakePayments(),
		catalog:  newFakeCatalog(),
		provider: newFakeProvider(),
		events:   &fakePublisher{},
	}
	env.catalog.sessions[1] = model.CourseSession{
		ID: 1, CourseTitle: "Beginner casting", StartsAt: time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC),
		UnitPriceCHF: 190, SeatsTotal: 8, SeatsLeft: 5, IsActive: true,
	}
	env.catalog.offerings[2] = model.LessonOffering{
		ID: 2, Kind: model.LessonPrivate, Title: "Private guiding", BasePriceCHF: 120,
		SurchargeCHF: 40, MinHours: 2, IsActive: true,
	}
	env.catalog.options[3] = model.VoucherOption{
		ID: 3, Title: "Gift voucher", AllowedValues: []int64{100, 150, 200, 250}, IsActive: true,
	}
	content := &fakeContent{contact: model.ContactContent{SchoolName: "River Run", IBAN: "CH93 0076 2011 6238 5295 7"}}
	env.svc = NewCheckout(env.bookings, env.payments, env.catalog, content,
		env.provider, env.events, zap.NewNop(),
		"https://site.test/success", "https://site.test/cancel")
	return env
}

func courseRequest() CheckoutRequest {
	return CheckoutRequest{
		Kind: "COURSE", TargetID: 1, CustomerName: "Anna Muster",
		CustomerEmail: "anna@example.com", Quantity: 2, PaymentMode: "ONLINE",
	}
}

func TestCheckoutCourseOnline(t *testing.T) {
	env := newCheckoutEnv()

	res, err := env.svc.Start(context.Background(), courseRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(380), res.AmountCHF)
	assert.Equal(t, model.StatusAwaitingPayment, res.Status)
	assert.NotEmpty(t, res.CheckoutURL)

	b, err := env.bookings.GetByID(context.Background(), res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.KindCourse, b.Kind)
	assert.Equal(t, "CHF", b.Currency)

	require.Len(t, env.provider.created, 1)
	assert.Equal(t, int64(380), env.provider.created[0].AmountCHF)
	assert.Equal(t, res.BookingID, env.provider.created[0].BookingID)

	p, err := env.payments.GetByBookingID(context.Background(), res.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, p.Status)
	assert.Equal(t, "cs_test_1", p.SessionID)

	// Checkout never touches inventory; seats move on confirmation.
	assert.Equal(t, 5, env.catalog.sessions[1].SeatsLeft)
	assert.Empty(t, env.events.published)
}

func TestCheckoutLessonClampsMinimumHours(t *testing.T) {
	env := newCheckoutEnv()

	res, err := env.svc.Start(context.Background(), CheckoutRequest{
		Kind: "PRIVATE_LESSON", TargetID: 2, CustomerName: "Anna Muster",
		CustomerEmail: "anna@example.com", Hours: 1, AdditionalPeople: 1, PaymentMode: "ONLINE",
	})
	require.NoError(t, err)

	// 2h minimum at 120/h plus one extra person at 40.
	assert.Equal(t, int64(280), res.AmountCHF)
	b, _ := env.bookings.GetByID(context.Background(), res.BookingID)
	assert.Equal(t, 2, b.Hours)
	assert.Equal(t, 2, b.Quantity)
}

func TestCheckoutVoucherInvoiceMode(t *testing.T) {
	env := newCheckoutEnv()

	res, err := env.svc.Start(context.Background(), CheckoutRequest{
		Kind: "VOUCHER", TargetID: 3, CustomerName: "Anna Muster",
		CustomerEmail: "anna@example.com", AmountCHF: 150, PaymentMode: "INVOICE",
		VoucherRecipient: "Max Muster",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusInvoiceRequested, res.Status)
	assert.Empty(t, res.CheckoutURL)
	assert.Empty(t, env.provider.created)

	require.Len(t, env.events.published, 1)
	ev := env.events.published[0]
	assert.Equal(t, queue.TypeInvoiceRequested, ev.Type)
	assert.Equal(t, "CH93 0076 2011 6238 5295 7", ev.InvoiceIBAN)
	assert.Equal(t, int64(150), ev.AmountCHF)
}

func TestCheckoutValidation(t *testing.T) {
	env := newCheckoutEnv()

	cases := []struct {
		name    string
		mutate  func(*CheckoutRequest)
		wantErr error
	}{
		{"missing email", func(r *CheckoutRequest) { r.CustomerEmail = "" }, ErrMissingFields},
		{"bad kind", func(r *CheckoutRequest) { r.Kind = "SNORKELING" }, ErrMissingFields},
		{"bad payment mode", func(r *CheckoutRequest) { r.PaymentMode = "CASH" }, ErrMissingFields},
		{"unknown session", func(r *CheckoutRequest) { r.TargetID = 99 }, ErrNotFound},
		{"too many seats", func(r *CheckoutRequest) { r.Quantity = 6 }, pricing.ErrInsufficientCapacity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := courseRequest()
			tc.mutate(&req)
			_, err := env.svc.Start(context.Background(), req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCheckoutVoucherRejectsOffListAmount(t *testing.T) {
	env := newCheckoutEnv()

	_, err := env.svc.Start(context.Background(), CheckoutRequest{
		Kind: "VOUCHER", TargetID: 3, CustomerName: "Anna Muster",
		CustomerEmail: "anna@example.com", AmountCHF: 120, PaymentMode: "ONLINE",
		VoucherRecipient: "Max Muster",
	})
	assert.ErrorIs(t, err, pricing.ErrInvalidVoucherAmount)
}

func TestCheckoutVoucherRequiresRecipient(t *testing.T) {
	env := newCheckoutEnv()

	_, err := env.svc.Start(context.Background(), CheckoutRequest{
		Kind: "VOUCHER", TargetID: 3, CustomerName: "Anna Muster",
		CustomerEmail: "anna@example.com", AmountCHF: 150, PaymentMode: "ONLINE",
	})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCheckoutProviderDownCancelsBooking(t *testing.T) {
	env := newCheckoutEnv()
	env.provider.createErr = errors.New("stripe: 503")

	_, err := env.svc.Start(context.Background(), courseRequest())
	require.ErrorIs(t, err, ErrProviderUnavailable)

	// Exactly one booking exists and it is cancelled.
	require.Len(t, env.bookings.byID, 1)
	for _, b := range env.bookings.byID {
		assert.Equal(t, model.StatusCancelled, b.Status)
	}
}
