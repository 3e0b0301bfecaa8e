package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/queue"
	"github.com/fario/flyschool/internal/repository"
)

// ConfirmOutcome reports the state of a booking after a confirmation
// attempt. Status is "paid" once money is recorded, "pending" while
// the provider has not reported payment yet.
type ConfirmOutcome struct {
	BookingID     string              `json:"booking_id"`
	Status        string              `json:"status"`
	BookingStatus model.BookingStatus `json:"booking_status"`
	VoucherCode   string              `json:"voucher_code,omitempty"`
}

// Confirmation settles bookings when money arrives: from provider
// webhooks, from the client's post-redirect poll, or from an admin
// recording a bank transfer. All three paths converge on one
// transactional settle step, so each booking is settled exactly once
// no matter how many signals arrive or in which order.
type Confirmation struct {
	bookings BookingStore
	payments PaymentStore
	catalog  CatalogStore
	vouchers VoucherStore
	events   EventStore
	issuer   *VoucherIssuer
	provider payment.Provider
	publish  EventPublisher
	tx       TxRunner
	log      *zap.Logger
}

// NewConfirmation wires the confirmation workflow.
func NewConfirmation(bookings BookingStore, payments PaymentStore, catalog CatalogStore,
	vouchers VoucherStore, events EventStore, issuer *VoucherIssuer,
	provider payment.Provider, publish EventPublisher, tx TxRunner, log *zap.Logger) *Confirmation {
	return &Confirmation{
		bookings: bookings,
		payments: payments,
		catalog:  catalog,
		vouchers: vouchers,
		events:   events,
		issuer:   issuer,
		provider: provider,
		publish:  publish,
		tx:       tx,
		log:      log,
	}
}

// settleRefs carries the provider references a settle attempt writes
// onto the payment row, plus the webhook event id when the attempt
// comes from a webhook delivery.
type settleRefs struct {
	provider  string
	sessionID string
	intentID  string
	eventID   string
	eventType string
}

// HandleWebhook processes one verified provider notification. The
// returned error is only ever an internal failure; business outcomes
// (duplicate delivery, unknown booking, already paid) are logged and
// acknowledged so the provider stops redelivering.
func (s *Confirmation) HandleWebhook(ctx context.Context, ev payment.WebhookEvent) error {
	if !ev.SessionCompleted() {
		s.log.Debug("confirmation: ignoring webhook event", zap.String("type", ev.Type))
		return nil
	}
	if ev.BookingID == "" {
		s.log.Error("confirmation: webhook without booking reference", zap.String("event_id", ev.ID))
		return nil
	}

	outcome, err := s.settleInTx(ctx, ev.BookingID, settleRefs{
		provider:  "stripe",
		sessionID: ev.SessionID,
		intentID:  ev.IntentID,
		eventID:   ev.ID,
		eventType: ev.Type,
	})
	switch err {
	case nil:
	case repository.ErrDuplicateEvent:
		s.log.Info("confirmation: duplicate webhook delivery acknowledged",
			zap.String("event_id", ev.ID), zap.String("booking_id", ev.BookingID))
		return nil
	case repository.ErrBookingNotFound:
		s.log.Error("confirmation: webhook for unknown booking",
			zap.String("event_id", ev.ID), zap.String("booking_id", ev.BookingID))
		return nil
	case ErrBookingCancelled:
		s.log.Error("confirmation: payment received for cancelled booking, manual follow-up needed",
			zap.String("event_id", ev.ID), zap.String("booking_id", ev.BookingID))
		return nil
	default:
		return err
	}

	s.publishPaid(ctx, outcome)
	return nil
}

// ConfirmPoll is the client's "did my payment go through" check after
// the provider redirect. When the webhook already settled the booking
// it answers from the database; otherwise it asks the provider and
// settles on a paid answer, so a lost webhook delays nothing. Provider
// outages degrade to "pending" rather than an error because the
// webhook will settle the booking eventually.
func (s *Confirmation) ConfirmPoll(ctx context.Context, bookingID string) (ConfirmOutcome, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return ConfirmOutcome{}, err
	}
	if b.Status == model.StatusPaid {
		return s.paidOutcome(ctx, b)
	}
	if b.Status == model.StatusCancelled {
		return ConfirmOutcome{BookingID: b.ID, Status: "cancelled", BookingStatus: b.Status}, nil
	}

	p, err := s.payments.GetByBookingID(ctx, bookingID)
	if err == sql.ErrNoRows {
		return ConfirmOutcome{BookingID: b.ID, Status: "pending", BookingStatus: b.Status}, nil
	}
	if err != nil {
		return ConfirmOutcome{}, err
	}
	if p.SessionID == "" {
		return ConfirmOutcome{BookingID: b.ID, Status: "pending", BookingStatus: b.Status}, nil
	}

	sess, err := s.provider.GetSession(ctx, p.SessionID)
	if err != nil {
		s.log.Warn("confirmation: provider poll failed, reporting pending",
			zap.String("booking_id", bookingID), zap.Error(err))
		return ConfirmOutcome{BookingID: b.ID, Status: "pending", BookingStatus: b.Status}, nil
	}
	if !sess.Paid {
		return ConfirmOutcome{BookingID: b.ID, Status: "pending", BookingStatus: b.Status}, nil
	}

	outcome, err := s.settleInTx(ctx, bookingID, settleRefs{
		provider:  "stripe",
		sessionID: sess.ID,
		intentID:  sess.IntentID,
	})
	if err != nil {
		return ConfirmOutcome{}, err
	}
	s.publishPaid(ctx, outcome)
	return outcome.ConfirmOutcome, nil
}

// MarkInvoicePaid records a bank transfer observed by the back office.
// It runs the same settle step as the online paths, so seats decrement
// and vouchers issue identically.
func (s *Confirmation) MarkInvoicePaid(ctx context.Context, bookingID string) (ConfirmOutcome, error) {
	outcome, err := s.settleInTx(ctx, bookingID, settleRefs{provider: "invoice"})
	if err != nil {
		return ConfirmOutcome{}, err
	}
	s.publishPaid(ctx, outcome)
	return outcome.ConfirmOutcome, nil
}

// settleOutcome is ConfirmOutcome plus what publishPaid needs.
type settleOutcome struct {
	ConfirmOutcome
	booking   model.Booking
	firstPaid bool // whether this call performed the transition
}

// settleInTx runs the settle step in one transaction: webhook dedup,
// booking transition, seat decrement, payment upsert and voucher
// issuance commit or roll back together.
func (s *Confirmation) settleInTx(ctx context.Context, bookingID string, refs settleRefs) (settleOutcome, error) {
	var out settleOutcome
	err := s.tx.RunInTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = s.settle(ctx, tx, bookingID, refs)
		return err
	})
	return out, err
}

func (s *Confirmation) settle(ctx context.Context, tx *sql.Tx, bookingID string, refs settleRefs) (settleOutcome, error) {
	b, err := s.bookings.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return settleOutcome{}, err
	}

	// Record the webhook event id first. The primary key makes a
	// concurrent duplicate delivery fail here, before any mutation.
	if refs.eventID != "" {
		if err := s.events.MarkProcessedTx(ctx, tx, refs.eventID, refs.eventType); err != nil {
			return settleOutcome{}, err
		}
	}

	if b.Status == model.StatusCancelled {
		return settleOutcome{}, ErrBookingCancelled
	}

	transitioned, err := s.bookings.MarkPaidTx(ctx, tx, b.ID)
	if err != nil {
		return settleOutcome{}, err
	}

	out := settleOutcome{
		ConfirmOutcome: ConfirmOutcome{BookingID: b.ID, Status: "paid", BookingStatus: model.StatusPaid},
		booking:        b,
		firstPaid:      transitioned,
	}

	if transitioned {
		if b.Kind == model.KindCourse {
			if err := s.catalog.DecrementSeatsTx(ctx, tx, b.TargetID, b.Quantity); err != nil {
				return settleOutcome{}, fmt.Errorf("decrement seats for booking %s: %w", b.ID, err)
			}
		}
		now := time.Now().UTC()
		if err := s.payments.UpsertTx(ctx, tx, model.Payment{
			BookingID: b.ID,
			Provider:  refs.provider,
			SessionID: refs.sessionID,
			IntentID:  refs.intentID,
			Status:    model.PaymentPaid,
			PaidAt:    &now,
		}); err != nil {
			return settleOutcome{}, err
		}
	}

	// Voucher issuance is idempotent per booking, so the already-paid
	// path resolves the existing code through the same call.
	if b.Kind == model.KindVoucher {
		v, err := s.issuer.IssueTx(ctx, tx, b)
		if err != nil {
			return settleOutcome{}, err
		}
		out.VoucherCode = v.Code
	}
	return out, nil
}

// paidOutcome answers a poll for a booking that is already PAID.
func (s *Confirmation) paidOutcome(ctx context.Context, b model.Booking) (ConfirmOutcome, error) {
	out := ConfirmOutcome{BookingID: b.ID, Status: "paid", BookingStatus: b.Status}
	if b.Kind == model.KindVoucher {
		v, err := s.vouchers.GetByBookingID(ctx, b.ID)
		if err != nil && err != repository.ErrVoucherNotFound {
			return ConfirmOutcome{}, err
		}
		out.VoucherCode = v.Code
	}
	return out, nil
}

// publishPaid hands the confirmation email off to the broker, only for
// the call that actually performed the transition. Failures are logged
// and swallowed; the payment is already committed.
func (s *Confirmation) publishPaid(ctx context.Context, out settleOutcome) {
	if !out.firstPaid {
		return
	}
	ev := bookingEvent(ctx, s.catalog, out.booking, queue.TypeBookingPaid)
	if out.VoucherCode != "" {
		ev.VoucherCode = out.VoucherCode
		ev.VoucherValueCHF = out.booking.AmountCHF
		ev.VoucherRecipient = out.booking.VoucherRecipient
		ev.VoucherMessage = out.booking.VoucherMessage
	}
	if err := s.publish.Publish(ctx, ev); err != nil {
		s.log.Error("confirmation: publish paid event failed",
			zap.String("booking_id", out.BookingID), zap.Error(err))
	}
}
