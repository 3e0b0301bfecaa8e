package model

import "time"

// BookingKind identifies what a booking purchases.  The kind decides
// which catalog table the TargetID refers to and which pricing rule
// applies.
type BookingKind string

const (
	KindCourse        BookingKind = "COURSE"         // seat(s) on a course session
	KindPrivateLesson BookingKind = "PRIVATE_LESSON" // hours of private guiding
	KindTasterLesson  BookingKind = "TASTER_LESSON"  // short introductory lesson
	KindVoucher       BookingKind = "VOUCHER"        // gift voucher
)

// PaymentMode selects how the customer pays.
type PaymentMode string

const (
	PayOnline    PaymentMode = "ONLINE"  // card payment via the provider checkout
	PayByInvoice PaymentMode = "INVOICE" // invoice sent by email, paid by bank transfer
)

// BookingStatus is the lifecycle state of a booking.  The lifecycle is
// one-way: a booking starts in AWAITING_PAYMENT or INVOICE_REQUESTED,
// moves to PAID exactly once and never leaves PAID.  CANCELLED is only
// reachable before PAID.
type BookingStatus string

const (
	StatusAwaitingPayment  BookingStatus = "AWAITING_PAYMENT"
	StatusInvoiceRequested BookingStatus = "INVOICE_REQUESTED"
	StatusPaid             BookingStatus = "PAID"
	StatusCancelled        BookingStatus = "CANCELLED"
)

// Booking records one purchase attempt made through checkout.
//
// Fields:
//  ID               – UUID primary key, generated at creation.
//  Kind             – what is being purchased (see BookingKind).
//  TargetID         – course session, lesson offering or voucher option id.
//  CustomerName     – full name of the customer.
//  CustomerEmail    – contact email; confirmation and documents go here.
//  CustomerPhone    – optional phone number.
//  Quantity         – number of seats/people (courses, lessons).
//  Hours            – effective lesson duration after minimum clamping.
//  AdditionalPeople – extra participants on a lesson beyond the first.
//  AmountCHF        – computed total in whole Swiss francs, always > 0.
//  Currency         – ISO currency code, "CHF" in this domain.
//  PaymentMode      – online payment or pay-by-invoice.
//  Status           – lifecycle state (see BookingStatus).
//  Notes            – free-text customer notes.
//  VoucherRecipient – gift recipient name (voucher bookings only).
//  VoucherMessage   – gift message (voucher bookings only).
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               string        `json:"id"`
	Kind             BookingKind   `json:"kind"`
	TargetID         uint64        `json:"target_id"`
	CustomerName     string        `json:"customer_name"`
	CustomerEmail    string        `json:"customer_email"`
	CustomerPhone    string        `json:"customer_phone,omitempty"`
	Quantity         int           `json:"quantity"`
	Hours            int           `json:"hours,omitempty"`
	AdditionalPeople int           `json:"additional_people,omitempty"`
	AmountCHF        int64         `json:"amount_chf"`
	Currency         string        `json:"currency"`
	PaymentMode      PaymentMode   `json:"payment_mode"`
	Status           BookingStatus `json:"status"`
	Notes            string        `json:"notes,omitempty"`
	VoucherRecipient string        `json:"voucher_recipient,omitempty"`
	VoucherMessage   string        `json:"voucher_message,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
