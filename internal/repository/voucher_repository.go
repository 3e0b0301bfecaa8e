package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/fario/flyschool/internal/model"
)

// VoucherRepo persists issued gift vouchers.  Both the redemption code
// and the originating booking carry unique keys, so the database is
// the final arbiter for code collisions and duplicate issuance; the
// issuer in the service layer reacts to the sentinel errors mapped
// here.
type VoucherRepo struct {
	db *sql.DB
}

// NewVoucherRepo returns a new VoucherRepo bound to the given database.
func NewVoucherRepo(db *sql.DB) *VoucherRepo { return &VoucherRepo{db: db} }

const voucherColumns = `id, booking_id, code, original_value_chf, remaining_value_chf, recipient_name, message, created_at`

func scanVoucher(row interface{ Scan(...interface{}) error }) (model.Voucher, error) {
	var (
		v       model.Voucher
		message sql.NullString
	)
	err := row.Scan(&v.ID, &v.BookingID, &v.Code, &v.OriginalCHF, &v.RemainingCHF,
		&v.Recipient, &message, &v.CreatedAt)
	if err != nil {
		return model.Voucher{}, err
	}
	v.Message = message.String
	return v, nil
}

// CreateTx inserts a voucher within the provided transaction and
// populates its generated ID.  A duplicate redemption code maps to
// ErrVoucherCodeExists so the issuer can regenerate and retry.
func (r *VoucherRepo) CreateTx(ctx context.Context, tx *sql.Tx, v *model.Voucher) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO vouchers (booking_id, code, original_value_chf, remaining_value_chf, recipient_name, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.BookingID, v.Code, v.OriginalCHF, v.RemainingCHF, v.Recipient, v.Message)
	if err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "ux_vouchers_code") {
				return ErrVoucherCodeExists
			}
			// Unique key on booking_id: someone issued concurrently.
			return ErrDuplicateEvent
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return nil
}

// GetByBookingIDTx loads the voucher issued for a booking inside a
// transaction.  ErrVoucherNotFound is returned when none exists.
func (r *VoucherRepo) GetByBookingIDTx(ctx context.Context, tx *sql.Tx, bookingID string) (model.Voucher, error) {
	v, err := scanVoucher(tx.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE booking_id = ?`, bookingID))
	if err == sql.ErrNoRows {
		return model.Voucher{}, ErrVoucherNotFound
	}
	return v, err
}

// GetByBookingID is GetByBookingIDTx outside a transaction.
func (r *VoucherRepo) GetByBookingID(ctx context.Context, bookingID string) (model.Voucher, error) {
	v, err := scanVoucher(r.db.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE booking_id = ?`, bookingID))
	if err == sql.ErrNoRows {
		return model.Voucher{}, ErrVoucherNotFound
	}
	return v, err
}

// CodeExistsTx reports whether a redemption code is already taken.
// The unique key on code remains the authoritative check; this lookup
// only avoids burning an insert on an obvious collision.
func (r *VoucherRepo) CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM vouchers WHERE code = ? LIMIT 1`, code).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all vouchers, newest first, for the admin back office.
func (r *VoucherRepo) List(ctx context.Context) ([]model.Voucher, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	vouchers := make([]model.Voucher, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vouchers, nil
}

// SetRemaining updates the unredeemed balance of a voucher after an
// admin records a redemption.  The guard keeps the balance within
// [0, original].
func (r *VoucherRepo) SetRemaining(ctx context.Context, code string, remainingCHF int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vouchers SET remaining_value_chf = ?
		 WHERE code = ? AND ? >= 0 AND ? <= original_value_chf`,
		remainingCHF, code, remainingCHF, remainingCHF)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVoucherNotFound
	}
	return nil
}
