package service

import "errors"

// Sentinel errors the HTTP layer translates into status codes. The
// pricing package contributes its own sentinels for amount problems;
// repositories contribute not-found and lifecycle sentinels.
var (
	// ErrMissingFields is returned when a checkout request fails
	// validation. Handlers answer 400.
	ErrMissingFields = errors.New("missing or invalid fields")

	// ErrNotFound is returned when the purchase target of a checkout
	// does not exist or is inactive. Handlers answer 404.
	ErrNotFound = errors.New("not found")

	// ErrProviderUnavailable is returned when the payment provider
	// cannot be reached or rejects the session. Handlers answer 502.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrBookingCancelled is returned when a payment arrives for a
	// booking that was cancelled in the meantime. The money was taken
	// but the booking cannot be revived; the case is logged for manual
	// follow-up and handlers answer 409.
	ErrBookingCancelled = errors.New("booking is cancelled")
)
