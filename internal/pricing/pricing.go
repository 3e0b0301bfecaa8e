// Package pricing contains the pure price calculation for checkout.
// All amounts are whole Swiss francs; CHF has no meaningful sub-unit
// in this domain.  The functions here perform no I/O so they can be
// exercised exhaustively in tests.
package pricing

import "errors"

var (
	// ErrInsufficientCapacity is returned when a course booking requests
	// more seats than the session has left.
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	// ErrInvalidVoucherAmount is returned when the requested voucher
	// value is not one of the option's configured denominations.
	ErrInvalidVoucherAmount = errors.New("invalid voucher amount")
	// ErrInvalidAmount is returned when a computed amount is not a
	// positive whole number of francs.
	ErrInvalidAmount = errors.New("invalid amount")
)

// CoursePrice computes the total for a course-seat purchase:
// unit price times quantity.  Quantity must be a positive integer not
// exceeding the seats still available on the session.
func CoursePrice(unitPriceCHF int64, quantity, seatsLeft int) (int64, error) {
	if quantity <= 0 || quantity > seatsLeft {
		return 0, ErrInsufficientCapacity
	}
	amount := unitPriceCHF * int64(quantity)
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

// LessonPrice computes the total for a lesson purchase:
// base price per hour times the effective duration, plus a flat
// surcharge per additional participant.  The requested duration is
// clamped up to the offering's minimum and additional people are
// clamped to zero or more.  It returns the amount together with the
// effective hours so callers can persist what was actually billed.
func LessonPrice(basePriceCHF, surchargeCHF int64, minHours, requestedHours, additionalPeople int) (int64, int, error) {
	hours := requestedHours
	if hours < minHours {
		hours = minHours
	}
	if additionalPeople < 0 {
		additionalPeople = 0
	}
	amount := basePriceCHF*int64(hours) + surchargeCHF*int64(additionalPeople)
	if hours <= 0 || amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	return amount, hours, nil
}

// VoucherPrice validates a requested voucher value against the allowed
// denominations and returns it unchanged when it matches exactly.
func VoucherPrice(requestedCHF int64, allowed []int64) (int64, error) {
	for _, v := range allowed {
		if v == requestedCHF {
			if requestedCHF <= 0 {
				return 0, ErrInvalidAmount
			}
			return requestedCHF, nil
		}
	}
	return 0, ErrInvalidVoucherAmount
}
