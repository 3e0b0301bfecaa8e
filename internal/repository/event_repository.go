package repository

import (
	"context"
	"database/sql"
	"strings"
)

// EventRepo records provider notification ids that have been handled.
// The primary key on event_id lives at the storage layer, which closes
// the race between two near-simultaneous deliveries of the same
// webhook: exactly one insert succeeds, the other maps to
// ErrDuplicateEvent and is acknowledged without side effects.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// MarkProcessedTx inserts the event id within the provided transaction.
// Because the insert commits together with the paid-state mutation,
// either both happen or neither does; a crash mid-processing leaves
// the event unrecorded and the provider's redelivery re-attempts it.
func (r *EventRepo) MarkProcessedTx(ctx context.Context, tx *sql.Tx, eventID, eventType string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO processed_payment_events (event_id, event_type) VALUES (?, ?)`,
		eventID, eventType)
	if err != nil && isDuplicateKey(err) {
		return ErrDuplicateEvent
	}
	return err
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
