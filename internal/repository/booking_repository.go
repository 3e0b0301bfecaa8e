package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fario/flyschool/internal/model"
)

// BookingRepo provides persistence for bookings.  Bookings are created
// by checkout with a pre-generated UUID and move through a one-way
// lifecycle enforced here: once PAID, no further status change is
// accepted.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning several repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingColumns = `id, kind, target_id, customer_name, customer_email, customer_phone,
	quantity, hours, additional_people, amount_chf, currency, payment_mode, status,
	notes, voucher_recipient, voucher_message, created_at, updated_at`

// Create inserts a new booking.  The caller must have set the ID and the
// initial status.  Timestamps are populated by the database and read
// back onto the passed record.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(id, kind, target_id, customer_name, customer_email, customer_phone,
		 quantity, hours, additional_people, amount_chf, currency, payment_mode, status,
		 notes, voucher_recipient, voucher_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.Kind, b.TargetID, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.Quantity, b.Hours, b.AdditionalPeople, b.AmountCHF, b.Currency, b.PaymentMode, b.Status,
		b.Notes, b.VoucherRecipient, b.VoucherMessage,
	)
	if err != nil {
		return err
	}
	// Query back the row to populate timestamps and defaults.
	return r.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var (
		b       model.Booking
		notes   sql.NullString
		message sql.NullString
	)
	err := row.Scan(
		&b.ID, &b.Kind, &b.TargetID, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.Quantity, &b.Hours, &b.AdditionalPeople, &b.AmountCHF, &b.Currency, &b.PaymentMode, &b.Status,
		&notes, &b.VoucherRecipient, &message, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Notes = notes.String
	b.VoucherMessage = message.String
	return b, nil
}

// GetByID loads a booking by its UUID.  ErrBookingNotFound is returned
// when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx loads a booking inside a transaction with a row lock so the
// confirmation flow can read-check-update atomically.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatus changes a booking's lifecycle status.  The one-way
// lifecycle is enforced: a PAID booking cannot be moved to any other
// state and ErrPaidImmutable is returned for such attempts.  Moving to
// PAID should go through MarkPaidTx instead so side effects run inside
// the confirmation transaction.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status <> 'PAID'`,
		status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the booking does not exist or it is already PAID.
		var current model.BookingStatus
		err := r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ?`, id).Scan(&current)
		if err == sql.ErrNoRows {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if current == model.StatusPaid && status != model.StatusPaid {
			return ErrPaidImmutable
		}
	}
	return nil
}

// MarkPaidTx transitions a booking to PAID within the provided
// transaction.  It only succeeds from AWAITING_PAYMENT or
// INVOICE_REQUESTED; the returned bool reports whether this call
// performed the transition (false means the booking was already PAID
// or CANCELLED and the caller must decide based on the current state).
func (r *BookingRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = 'PAID'
		 WHERE id = ? AND status IN ('AWAITING_PAYMENT','INVOICE_REQUESTED')`,
		id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// BookingFilter narrows List results for the admin back office.
type BookingFilter struct {
	Status model.BookingStatus // empty matches all statuses
	Kind   model.BookingKind   // empty matches all kinds
	Since  time.Time           // zero matches all creation times
}

// List returns bookings matching the filter, newest first.  It backs
// both the admin listing endpoint and the CSV export.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := make([]interface{}, 0, 3)
	if f.Status != "" {
		q += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Kind != "" {
		q += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	if !f.Since.IsZero() {
		q += ` AND created_at >= ?`
		args = append(args, f.Since.UTC().Format("2006-01-02 15:04:05"))
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
