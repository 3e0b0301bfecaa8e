// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types routed through the booking events queue.
const (
	TypeBookingPaid      = "booking.paid"
	TypeInvoiceRequested = "booking.invoice_requested"
)

// BookingEvent is published when a booking reaches a state that owes
// the customer an email. It carries everything downstream consumers
// need to render documents and notify, without querying the primary
// database.
type BookingEvent struct {
	Type          string `json:"type"`
	BookingID     string `json:"booking_id"`
	Kind          string `json:"kind"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Description   string `json:"description"`
	Quantity      int    `json:"quantity"`
	UnitCHF       int64  `json:"unit_chf"`
	AmountCHF     int64  `json:"amount_chf"`

	// Voucher fields, set only for voucher bookings.
	VoucherCode      string `json:"voucher_code,omitempty"`
	VoucherValueCHF  int64  `json:"voucher_value_chf,omitempty"`
	VoucherRecipient string `json:"voucher_recipient,omitempty"`
	VoucherMessage   string `json:"voucher_message,omitempty"`

	// Invoice fields, set only for invoice-requested events.
	InvoiceIBAN string `json:"invoice_iban,omitempty"`

	OccurredAt string `json:"occurred_at"`
}
