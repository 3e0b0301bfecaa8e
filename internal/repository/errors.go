// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios. For example, ErrPaidImmutable indicates an attempt to
// move a booking out of the PAID state, while ErrDuplicateEvent
// signals that a provider notification has already been handled and
// the delivery should simply be acknowledged.
package repository

import "errors"

// ErrBookingNotFound is returned when a booking UUID does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSessionNotFound is returned when a course session does not exist
// or is inactive.
var ErrSessionNotFound = errors.New("course session not found")

// ErrOfferingNotFound is returned when a lesson offering does not
// exist or is inactive.
var ErrOfferingNotFound = errors.New("lesson offering not found")

// ErrVoucherOptionNotFound is returned when a voucher option does not
// exist or is inactive.
var ErrVoucherOptionNotFound = errors.New("voucher option not found")

// ErrVoucherNotFound is returned when no voucher exists for a booking.
var ErrVoucherNotFound = errors.New("voucher not found")

// ErrPaidImmutable is returned when a status update would move a
// booking out of the PAID state. The lifecycle is one-way; handlers
// should translate this into an HTTP 409 response.
var ErrPaidImmutable = errors.New("booking already paid")

// ErrNoCapacity is returned when an atomic seat decrement would drive
// seats_left negative. Pricing validates capacity before a booking is
// created, so hitting this during confirmation indicates a bug or an
// oversold race and is logged loudly rather than shown to users.
var ErrNoCapacity = errors.New("no remaining capacity")

// ErrDuplicateEvent is returned when a provider event id has already
// been recorded in processed_payment_events. Duplicate webhook
// deliveries are expected and harmless.
var ErrDuplicateEvent = errors.New("event already processed")

// ErrVoucherCodeExists is returned when inserting a voucher collides
// with an existing redemption code. The issuer regenerates and
// retries on this error.
var ErrVoucherCodeExists = errors.New("voucher code already exists")

// ErrContentNotFound is returned when a site_content section is
// missing.
var ErrContentNotFound = errors.New("content section not found")
