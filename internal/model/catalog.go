package model

import "time"

// CourseSession is one dated run of a group course with a fixed number
// of seats.  SeatsLeft is decremented atomically when a course booking
// is paid and must never go negative.
//
// Fields:
//  ID           – primary key identifier.
//  CourseTitle  – name of the course as shown in the catalog.
//  StartsAt     – date and time the session begins.
//  Location     – meeting point / river stretch.
//  UnitPriceCHF – price per seat in whole francs.
//  SeatsTotal   – capacity of the session.
//  SeatsLeft    – seats still available for sale.
//  IsActive     – whether the session is shown and bookable.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type CourseSession struct {
	ID           uint64    `json:"id"`
	CourseTitle  string    `json:"course_title"`
	StartsAt     time.Time `json:"starts_at"`
	Location     string    `json:"location"`
	UnitPriceCHF int64     `json:"unit_price_chf"`
	SeatsTotal   int       `json:"seats_total"`
	SeatsLeft    int       `json:"seats_left"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LessonKind distinguishes private guiding from short taster lessons.
type LessonKind string

const (
	LessonPrivate LessonKind = "PRIVATE"
	LessonTaster  LessonKind = "TASTER"
)

// LessonOffering describes a bookable lesson type priced per hour with
// a configured minimum duration and a per-person surcharge for
// additional participants.
//
// Fields:
//  ID           – primary key identifier.
//  Kind         – PRIVATE or TASTER.
//  Title        – offering name as shown in the catalog.
//  BasePriceCHF – price per hour for the first participant.
//  SurchargeCHF – flat surcharge per additional participant.
//  MinHours     – minimum billable duration; requests below are clamped up.
//  IsActive     – whether the offering is shown and bookable.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type LessonOffering struct {
	ID           uint64     `json:"id"`
	Kind         LessonKind `json:"kind"`
	Title        string     `json:"title"`
	BasePriceCHF int64      `json:"base_price_chf"`
	SurchargeCHF int64      `json:"surcharge_chf"`
	MinHours     int        `json:"min_hours"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// VoucherOption is a purchasable gift-voucher denomination set.  A
// voucher booking must request a value that is exactly one of the
// allowed values.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – option name as shown in the catalog.
//  AllowedValues – permitted voucher values in whole francs.
//  IsActive      – whether the option is shown and bookable.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type VoucherOption struct {
	ID            uint64    `json:"id"`
	Title         string    `json:"title"`
	AllowedValues []int64   `json:"allowed_values"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
