package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCreatesVoucherWithFullBalance(t *testing.T) {
	vouchers := newFakeVouchers()
	issuer := NewVoucherIssuer(vouchers)

	b := voucherBooking("b-1")
	v, err := issuer.IssueTx(context.Background(), nil, b)
	require.NoError(t, err)

	assert.Len(t, v.Code, codeLength)
	assert.Equal(t, b.AmountCHF, v.OriginalCHF)
	assert.Equal(t, b.AmountCHF, v.RemainingCHF)
	assert.Equal(t, "Max Muster", v.Recipient)
}

func TestIssueIsIdempotentPerBooking(t *testing.T) {
	vouchers := newFakeVouchers()
	issuer := NewVoucherIssuer(vouchers)
	b := voucherBooking("b-1")

	first, err := issuer.IssueTx(context.Background(), nil, b)
	require.NoError(t, err)
	second, err := issuer.IssueTx(context.Background(), nil, b)
	require.NoError(t, err)

	assert.Equal(t, first.Code, second.Code)
	assert.Len(t, vouchers.byBooking, 1)
}

func TestIssueRetriesOnCodeCollision(t *testing.T) {
	vouchers := newFakeVouchers()
	vouchers.failCodes = 2
	issuer := NewVoucherIssuer(vouchers)

	v, err := issuer.IssueTx(context.Background(), nil, voucherBooking("b-1"))
	require.NoError(t, err)
	assert.Len(t, v.Code, codeLength)
}

func TestIssueChecksCodeBeforeInsert(t *testing.T) {
	vouchers := newFakeVouchers()
	vouchers.preTaken = 2
	issuer := NewVoucherIssuer(vouchers)

	v, err := issuer.IssueTx(context.Background(), nil, voucherBooking("b-1"))
	require.NoError(t, err)
	assert.Len(t, v.Code, codeLength)
	// Two taken codes were skipped, the third check passed.
	assert.Equal(t, 3, vouchers.existsCalls)
	assert.Len(t, vouchers.byBooking, 1)
}

func TestIssueGivesUpAfterBoundedRetries(t *testing.T) {
	vouchers := newFakeVouchers()
	vouchers.failCodes = maxCodeRetries
	issuer := NewVoucherIssuer(vouchers)

	_, err := issuer.IssueTx(context.Background(), nil, voucherBooking("b-1"))
	assert.Error(t, err)
}

func TestDistinctBookingsGetDistinctCodes(t *testing.T) {
	vouchers := newFakeVouchers()
	issuer := NewVoucherIssuer(vouchers)

	a, err := issuer.IssueTx(context.Background(), nil, voucherBooking("b-1"))
	require.NoError(t, err)
	b, err := issuer.IssueTx(context.Background(), nil, voucherBooking("b-2"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Code, b.Code)
}

func TestVoucherCodesUseSafeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newVoucherCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
	}
}
