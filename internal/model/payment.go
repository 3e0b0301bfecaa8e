package model

import "time"

// PaymentStatus mirrors the provider-reported state of a payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment tracks the external payment-provider session for a booking.
// There is at most one payment row per booking (unique key on
// booking_id); confirmation attempts upsert it rather than inserting
// duplicates.  PaidAt is set the first time money is confirmed and is
// never overwritten afterwards.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking this payment belongs to (unique).
//  Provider  – provider name, e.g. "stripe" or "invoice".
//  SessionID – provider checkout-session identifier.
//  IntentID  – provider payment-intent identifier, if reported.
//  Status    – provider-reported status (see PaymentStatus).
//  PaidAt    – when money was confirmed received (nullable).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Payment struct {
	ID        uint64        `json:"id"`
	BookingID string        `json:"booking_id"`
	Provider  string        `json:"provider"`
	SessionID string        `json:"session_id,omitempty"`
	IntentID  string        `json:"intent_id,omitempty"`
	Status    PaymentStatus `json:"status"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
