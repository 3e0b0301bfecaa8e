package model

import "time"

// Voucher is a gift voucher issued when a voucher booking is paid.
// Exactly one voucher exists per voucher booking and its redemption
// code is globally unique.  The remaining value never exceeds the
// original value; it is reduced by admins as the voucher is redeemed.
//
// Fields:
//  ID           – primary key identifier.
//  BookingID    – originating booking (unique).
//  Code         – unique redemption code from a restricted alphabet.
//  OriginalCHF  – value at issue time, equals the booking amount.
//  RemainingCHF – unredeemed balance, initialised to OriginalCHF.
//  Recipient    – optional gift recipient name.
//  Message      – optional gift message printed on the voucher.
//  CreatedAt    – issue timestamp.
type Voucher struct {
	ID           uint64    `json:"id"`
	BookingID    string    `json:"booking_id"`
	Code         string    `json:"code"`
	OriginalCHF  int64     `json:"original_chf"`
	RemainingCHF int64     `json:"remaining_chf"`
	Recipient    string    `json:"recipient,omitempty"`
	Message      string    `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
