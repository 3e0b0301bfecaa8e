package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/pricing"
	"github.com/fario/flyschool/internal/queue"
	"github.com/fario/flyschool/internal/repository"
)

// CheckoutRequest is the public checkout payload. Which optional
// fields matter depends on the kind; validation beyond the tags
// happens in the pricing rules.
type CheckoutRequest struct {
	Kind             string `json:"kind" validate:"required,oneof=COURSE PRIVATE_LESSON TASTER_LESSON VOUCHER"`
	TargetID         uint64 `json:"target_id" validate:"required"`
	CustomerName     string `json:"customer_name" validate:"required"`
	CustomerEmail    string `json:"customer_email" validate:"required,email"`
	CustomerPhone    string `json:"customer_phone"`
	Quantity         int    `json:"quantity"`
	Hours            int    `json:"hours"`
	AdditionalPeople int    `json:"additional_people"`
	AmountCHF        int64  `json:"amount_chf"`
	PaymentMode      string `json:"payment_mode" validate:"required,oneof=ONLINE INVOICE"`
	Notes            string `json:"notes"`
	VoucherRecipient string `json:"voucher_recipient"`
	VoucherMessage   string `json:"voucher_message"`
}

// CheckoutResult is what the public checkout endpoint returns.
type CheckoutResult struct {
	BookingID   string              `json:"booking_id"`
	Status      model.BookingStatus `json:"status"`
	AmountCHF   int64               `json:"amount_chf"`
	CheckoutURL string              `json:"redirect_url,omitempty"`
}

// Checkout prices a purchase, creates the booking and, for online
// payment, opens the provider session the customer is redirected to.
type Checkout struct {
	bookings BookingStore
	payments PaymentStore
	catalog  CatalogStore
	content  ContentStore
	provider payment.Provider
	events   EventPublisher
	validate *validator.Validate
	log      *zap.Logger

	successURL string
	cancelURL  string
}

// NewCheckout wires the checkout workflow.
func NewCheckout(bookings BookingStore, payments PaymentStore, catalog CatalogStore,
	content ContentStore, provider payment.Provider, events EventPublisher,
	log *zap.Logger, successURL, cancelURL string) *Checkout {
	return &Checkout{
		bookings:   bookings,
		payments:   payments,
		catalog:    catalog,
		content:    content,
		provider:   provider,
		events:     events,
		validate:   validator.New(),
		log:        log,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// Start validates and prices the request, persists the booking and
// returns what the client needs to proceed: a provider checkout URL
// for online payment, or the invoice-requested state for bank
// transfer. The booking is created before the provider is contacted so
// a provider outage leaves an auditable cancelled booking rather than
// nothing.
func (s *Checkout) Start(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	kind := model.BookingKind(req.Kind)
	if kind == model.KindVoucher && strings.TrimSpace(req.VoucherRecipient) == "" {
		return CheckoutResult{}, fmt.Errorf("%w: voucher_recipient is required", ErrMissingFields)
	}

	b := model.Booking{
		ID:               uuid.NewString(),
		Kind:             kind,
		TargetID:         req.TargetID,
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerEmail:    strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:    strings.TrimSpace(req.CustomerPhone),
		Quantity:         req.Quantity,
		Currency:         "CHF",
		PaymentMode:      model.PaymentMode(req.PaymentMode),
		Notes:            req.Notes,
		VoucherRecipient: strings.TrimSpace(req.VoucherRecipient),
		VoucherMessage:   req.VoucherMessage,
	}

	if err := s.price(ctx, req, &b); err != nil {
		return CheckoutResult{}, err
	}

	b.Status = model.StatusAwaitingPayment
	if b.PaymentMode == model.PayByInvoice {
		b.Status = model.StatusInvoiceRequested
	}
	if err := s.bookings.Create(ctx, &b); err != nil {
		return CheckoutResult{}, err
	}

	if b.PaymentMode == model.PayByInvoice {
		return s.startInvoice(ctx, b)
	}
	return s.startOnline(ctx, b)
}

// price resolves the purchase target and computes the amount. Lesson
// bookings also record the effective billed hours.
func (s *Checkout) price(ctx context.Context, req CheckoutRequest, b *model.Booking) error {
	switch b.Kind {
	case model.KindCourse:
		sess, err := s.catalog.GetCourseSession(ctx, b.TargetID)
		if err != nil {
			return targetErr(err)
		}
		amount, err := pricing.CoursePrice(sess.UnitPriceCHF, req.Quantity, sess.SeatsLeft)
		if err != nil {
			return err
		}
		b.AmountCHF = amount
	case model.KindPrivateLesson, model.KindTasterLesson:
		off, err := s.catalog.GetLessonOffering(ctx, b.TargetID)
		if err != nil {
			return targetErr(err)
		}
		amount, hours, err := pricing.LessonPrice(off.BasePriceCHF, off.SurchargeCHF, off.MinHours, req.Hours, req.AdditionalPeople)
		if err != nil {
			return err
		}
		b.AmountCHF = amount
		b.Hours = hours
		b.AdditionalPeople = req.AdditionalPeople
		if b.AdditionalPeople < 0 {
			b.AdditionalPeople = 0
		}
		b.Quantity = 1 + b.AdditionalPeople
	case model.KindVoucher:
		opt, err := s.catalog.GetVoucherOption(ctx, b.TargetID)
		if err != nil {
			return targetErr(err)
		}
		amount, err := pricing.VoucherPrice(req.AmountCHF, opt.AllowedValues)
		if err != nil {
			return err
		}
		b.AmountCHF = amount
		b.Quantity = 1
	}
	return nil
}

// startOnline opens the provider session. On provider failure the
// booking is cancelled so it never lingers in AWAITING_PAYMENT with no
// way to pay.
func (s *Checkout) startOnline(ctx context.Context, b model.Booking) (CheckoutResult, error) {
	sess, err := s.provider.CreateCheckoutSession(ctx, payment.CreateSessionParams{
		BookingID:     b.ID,
		Description:   describeBooking(ctx, s.catalog, b),
		AmountCHF:     b.AmountCHF,
		CustomerEmail: b.CustomerEmail,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
	})
	if err != nil {
		s.log.Error("checkout: provider session failed, cancelling booking",
			zap.String("booking_id", b.ID), zap.Error(err))
		if cerr := s.bookings.UpdateStatus(ctx, b.ID, model.StatusCancelled); cerr != nil {
			s.log.Error("checkout: cancel after provider failure failed",
				zap.String("booking_id", b.ID), zap.Error(cerr))
		}
		return CheckoutResult{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if err := s.payments.Upsert(ctx, model.Payment{
		BookingID: b.ID,
		Provider:  "stripe",
		SessionID: sess.ID,
		IntentID:  sess.IntentID,
		Status:    model.PaymentPending,
	}); err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{
		BookingID:   b.ID,
		Status:      b.Status,
		AmountCHF:   b.AmountCHF,
		CheckoutURL: sess.URL,
	}, nil
}

// startInvoice records the pending invoice payment and hands the
// invoice email off to the broker. A broker outage only costs the
// email; the booking and its INVOICE_REQUESTED state are already
// committed.
func (s *Checkout) startInvoice(ctx context.Context, b model.Booking) (CheckoutResult, error) {
	if err := s.payments.Upsert(ctx, model.Payment{
		BookingID: b.ID,
		Provider:  "invoice",
		Status:    model.PaymentPending,
	}); err != nil {
		return CheckoutResult{}, err
	}

	var contact model.ContactContent
	if err := s.content.Get(ctx, model.SectionContact, &contact); err != nil {
		s.log.Warn("checkout: contact content missing, invoice mail will lack IBAN", zap.Error(err))
	}
	ev := bookingEvent(ctx, s.catalog, b, queue.TypeInvoiceRequested)
	ev.InvoiceIBAN = contact.IBAN
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Error("checkout: publish invoice event failed",
			zap.String("booking_id", b.ID), zap.Error(err))
	}

	return CheckoutResult{
		BookingID: b.ID,
		Status:    b.Status,
		AmountCHF: b.AmountCHF,
	}, nil
}

// targetErr maps catalog not-found sentinels onto the service-level
// ErrNotFound the HTTP layer knows.
func targetErr(err error) error {
	switch err {
	case repository.ErrSessionNotFound, repository.ErrOfferingNotFound, repository.ErrVoucherOptionNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
}

// describeBooking builds the human-readable line the provider checkout
// and the document emails show. Catalog lookups are best effort; a
// deactivated target falls back to a generic label.
func describeBooking(ctx context.Context, catalog CatalogStore, b model.Booking) string {
	switch b.Kind {
	case model.KindCourse:
		if sess, err := catalog.GetCourseSession(ctx, b.TargetID); err == nil {
			return fmt.Sprintf("%s, %s (%d seat(s))", sess.CourseTitle, sess.StartsAt.Format("02.01.2006"), b.Quantity)
		}
		return fmt.Sprintf("Course session #%d (%d seat(s))", b.TargetID, b.Quantity)
	case model.KindPrivateLesson, model.KindTasterLesson:
		if off, err := catalog.GetLessonOffering(ctx, b.TargetID); err == nil {
			return fmt.Sprintf("%s, %d hour(s)", off.Title, b.Hours)
		}
		return fmt.Sprintf("Lesson #%d, %d hour(s)", b.TargetID, b.Hours)
	case model.KindVoucher:
		return fmt.Sprintf("Gift voucher CHF %d", b.AmountCHF)
	}
	return "Booking " + b.ID
}

// bookingEvent assembles the common fields of a broker event for a
// booking.
func bookingEvent(ctx context.Context, catalog CatalogStore, b model.Booking, eventType string) queue.BookingEvent {
	quantity := b.Quantity
	if quantity <= 0 || b.AmountCHF%int64(quantity) != 0 {
		// Surcharges make per-head division inexact; bill one line.
		quantity = 1
	}
	return queue.BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		Kind:          string(b.Kind),
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		Description:   describeBooking(ctx, catalog, b),
		Quantity:      quantity,
		UnitCHF:       b.AmountCHF / int64(quantity),
		AmountCHF:     b.AmountCHF,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
