package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fario/flyschool/internal/model"
)

// PaymentRepo persists the single payment row attached to a booking.
// The payments table has a unique key on booking_id, so every
// confirmation attempt upserts the same row instead of inserting
// duplicates.  An existing paid_at timestamp is never overwritten.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentUpsert = `INSERT INTO payments (booking_id, provider, session_id, intent_id, status, paid_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		provider   = VALUES(provider),
		session_id = IF(VALUES(session_id) <> '', VALUES(session_id), session_id),
		intent_id  = IF(VALUES(intent_id) <> '', VALUES(intent_id), intent_id),
		status     = VALUES(status),
		paid_at    = COALESCE(paid_at, VALUES(paid_at))`

// Upsert inserts or updates the payment row for a booking.  Empty
// provider references in the incoming record do not erase previously
// stored ones, and COALESCE keeps the first paid_at ever written.
func (r *PaymentRepo) Upsert(ctx context.Context, p model.Payment) error {
	_, err := r.db.ExecContext(ctx, paymentUpsert,
		p.BookingID, p.Provider, p.SessionID, p.IntentID, p.Status, nullTime(p.PaidAt))
	return err
}

// UpsertTx is Upsert within an existing transaction; used by the
// confirmation flow so the payment update commits together with the
// booking status change.
func (r *PaymentRepo) UpsertTx(ctx context.Context, tx *sql.Tx, p model.Payment) error {
	_, err := tx.ExecContext(ctx, paymentUpsert,
		p.BookingID, p.Provider, p.SessionID, p.IntentID, p.Status, nullTime(p.PaidAt))
	return err
}

const paymentColumns = `id, booking_id, provider, session_id, intent_id, status, paid_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (model.Payment, error) {
	var (
		p      model.Payment
		paidAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.BookingID, &p.Provider, &p.SessionID, &p.IntentID, &p.Status, &paidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Payment{}, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return p, nil
}

// GetByBookingID loads the payment row for a booking.  sql.ErrNoRows
// is returned unchanged when no payment exists yet; callers treat that
// as "no online payment started".
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (model.Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ?`, bookingID))
}

// GetByBookingIDTx is GetByBookingID within a transaction.
func (r *PaymentRepo) GetByBookingIDTx(ctx context.Context, tx *sql.Tx, bookingID string) (model.Payment, error) {
	return scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = ?`, bookingID))
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
