package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fario/flyschool/internal/mail"
	"github.com/fario/flyschool/internal/pdf"
)

type fakeMailer struct {
	sent []mail.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestConsumer(m *fakeMailer) *Consumer {
	return NewConsumer("amqp://unused", m, zap.NewNop(), "River Run Fly Fishing School", "Seestrasse 12, 8700 Kusnacht")
}

func TestHandlePaidVoucherAttachesPDF(t *testing.T) {
	m := &fakeMailer{}
	c := newTestConsumer(m)

	body, err := json.Marshal(BookingEvent{
		Type:             TypeBookingPaid,
		BookingID:        "0f8fad5b-d9cb-469f-a165-70867728950e",
		Kind:             "VOUCHER",
		CustomerName:     "Anna Muster",
		CustomerEmail:    "anna@example.com",
		Description:      "Gift voucher CHF 150",
		AmountCHF:        150,
		VoucherCode:      "7KQ2M8XWPD",
		VoucherValueCHF:  150,
		VoucherRecipient: "Max Muster",
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.NoError(t, c.handle(context.Background(), body))

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "anna@example.com", msg.To)
	assert.Contains(t, msg.Body, "7KQ2M8XWPD")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "voucher-7KQ2M8XWPD.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "%PDF", string(msg.Attachments[0].Content[:4]))
}

func TestHandleInvoiceRequested(t *testing.T) {
	m := &fakeMailer{}
	c := newTestConsumer(m)

	body, err := json.Marshal(BookingEvent{
		Type:          TypeInvoiceRequested,
		BookingID:     "0f8fad5b-d9cb-469f-a165-70867728950e",
		Kind:          "COURSE",
		CustomerName:  "Anna Muster",
		CustomerEmail: "anna@example.com",
		Description:   "Beginner casting course, 12.04.2026",
		Quantity:      2,
		UnitCHF:       190,
		AmountCHF:     380,
		InvoiceIBAN:   "CH93 0076 2011 6238 5295 7",
		OccurredAt:    "2026-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, c.handle(context.Background(), body))

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "Invoice INV-2026-0F8FAD - River Run Fly Fishing School", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "INV-2026-0F8FAD.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "%PDF", string(msg.Attachments[0].Content[:4]))
}

func TestHandleUnknownTypeIsDropped(t *testing.T) {
	m := &fakeMailer{}
	c := newTestConsumer(m)

	body, _ := json.Marshal(BookingEvent{Type: "booking.unknown"})
	require.NoError(t, c.handle(context.Background(), body))
	assert.Empty(t, m.sent)
}

func TestInvoiceNumberIsStable(t *testing.T) {
	issued := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := pdf.InvoiceNumber("0f8fad5b-d9cb-469f-a165-70867728950e", issued)
	b := pdf.InvoiceNumber("0f8fad5b-d9cb-469f-a165-70867728950e", issued)
	assert.Equal(t, a, b)
	assert.Equal(t, "INV-2026-0F8FAD", a)
}
