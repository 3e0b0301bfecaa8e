package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderInvoice(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out, err := RenderInvoice(InvoiceData{
		Number:       "INV-2026-4F2A9C",
		IssuedAt:     issued,
		DueAt:        issued.AddDate(0, 0, 30),
		CustomerName: "Anna Muster",
		CustomerMail: "anna@example.com",
		Lines: []InvoiceLine{
			{Description: "Beginner casting course, 12.04.2026", Quantity: 2, UnitCHF: 190, TotalCHF: 380},
		},
		TotalCHF:   380,
		IBAN:       "CH93 0076 2011 6238 5295 7",
		SchoolName: "River Run Fly Fishing School",
		SchoolAddr: "Seestrasse 12, 8700 Kusnacht",
	})
	require.NoError(t, err)
	require.Greater(t, len(out), 500)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderVoucher(t *testing.T) {
	out, err := RenderVoucher(VoucherData{
		Code:       "7KQ2M8XWPD",
		ValueCHF:   150,
		Recipient:  "Max Muster",
		Message:    "Tight lines on your birthday!",
		IssuedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		SchoolName: "River Run Fly Fishing School",
		SchoolAddr: "Seestrasse 12, 8700 Kusnacht",
	})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderVoucherWithoutMessage(t *testing.T) {
	out, err := RenderVoucher(VoucherData{
		Code:       "ABCDEF2345",
		ValueCHF:   100,
		Recipient:  "Max Muster",
		IssuedAt:   time.Now(),
		SchoolName: "River Run Fly Fishing School",
		SchoolAddr: "Seestrasse 12, 8700 Kusnacht",
	})
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(out[:4]))
}
