package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/repository"
)

// codeAlphabet excludes 0/O and 1/I so codes survive being read aloud
// or copied from a printout.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// codeLength of 10 over a 32-symbol alphabet gives 32^10 possible
// codes; collisions are practically impossible but the unique key
// catches them anyway.
const codeLength = 10

const maxCodeRetries = 5

// VoucherIssuer creates the voucher row for a paid voucher booking.
// Issuance is idempotent per booking: a second call returns the
// voucher created by the first.
type VoucherIssuer struct {
	vouchers VoucherStore
}

// NewVoucherIssuer returns a VoucherIssuer backed by the given store.
func NewVoucherIssuer(vouchers VoucherStore) *VoucherIssuer {
	return &VoucherIssuer{vouchers: vouchers}
}

// IssueTx creates the voucher for a booking within the confirmation
// transaction. If the booking already has a voucher it is returned
// unchanged. Code collisions regenerate and retry a bounded number of
// times.
func (i *VoucherIssuer) IssueTx(ctx context.Context, tx *sql.Tx, b model.Booking) (model.Voucher, error) {
	existing, err := i.vouchers.GetByBookingIDTx(ctx, tx, b.ID)
	if err == nil {
		return existing, nil
	}
	if err != repository.ErrVoucherNotFound {
		return model.Voucher{}, err
	}

	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		code, err := newVoucherCode()
		if err != nil {
			return model.Voucher{}, err
		}
		taken, err := i.vouchers.CodeExistsTx(ctx, tx, code)
		if err != nil {
			return model.Voucher{}, err
		}
		if taken {
			continue
		}
		v := model.Voucher{
			BookingID:    b.ID,
			Code:         code,
			OriginalCHF:  b.AmountCHF,
			RemainingCHF: b.AmountCHF,
			Recipient:    b.VoucherRecipient,
			Message:      b.VoucherMessage,
		}
		err = i.vouchers.CreateTx(ctx, tx, &v)
		if err == nil {
			return v, nil
		}
		if err == repository.ErrVoucherCodeExists {
			continue
		}
		if err == repository.ErrDuplicateEvent {
			// Concurrent issuance won the race; return its voucher.
			return i.vouchers.GetByBookingIDTx(ctx, tx, b.ID)
		}
		return model.Voucher{}, err
	}
	return model.Voucher{}, fmt.Errorf("voucher code generation exhausted after %d attempts", maxCodeRetries)
}

// newVoucherCode draws codeLength symbols from the alphabet using
// crypto/rand.
func newVoucherCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
