// Package service contains the booking workflows: checkout, payment
// confirmation and voucher issuance. Services hold the business rules
// and transaction boundaries; repositories do the SQL.
package service

import (
	"context"
	"database/sql"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/queue"
	"github.com/fario/flyschool/internal/repository"
)

// The store interfaces mirror the repository methods each service
// consumes. Production wiring passes the concrete repositories; tests
// pass fakes with a nil *sql.Tx.

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (model.Booking, error)
	GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (model.Booking, error)
	MarkPaidTx(ctx context.Context, tx *sql.Tx, id string) (bool, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error
}

type PaymentStore interface {
	Upsert(ctx context.Context, p model.Payment) error
	UpsertTx(ctx context.Context, tx *sql.Tx, p model.Payment) error
	GetByBookingID(ctx context.Context, bookingID string) (model.Payment, error)
}

type CatalogStore interface {
	GetCourseSession(ctx context.Context, id uint64) (model.CourseSession, error)
	GetLessonOffering(ctx context.Context, id uint64) (model.LessonOffering, error)
	GetVoucherOption(ctx context.Context, id uint64) (model.VoucherOption, error)
	DecrementSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, quantity int) error
}

type VoucherStore interface {
	CreateTx(ctx context.Context, tx *sql.Tx, v *model.Voucher) error
	CodeExistsTx(ctx context.Context, tx *sql.Tx, code string) (bool, error)
	GetByBookingIDTx(ctx context.Context, tx *sql.Tx, bookingID string) (model.Voucher, error)
	GetByBookingID(ctx context.Context, bookingID string) (model.Voucher, error)
}

type EventStore interface {
	MarkProcessedTx(ctx context.Context, tx *sql.Tx, eventID, eventType string) error
}

type ContentStore interface {
	Get(ctx context.Context, section string, dst interface{}) error
}

// EventPublisher pushes booking events to the broker. Publish failures
// are logged and swallowed by the services; email is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// TxRunner opens the transaction a multi-repository mutation runs in.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// DBTxRunner is the production TxRunner on a live database handle.
type DBTxRunner struct {
	DB *sql.DB
}

// RunInTx begins a transaction, runs fn and commits. Any error from fn
// or from the commit rolls the transaction back.
func (r DBTxRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

var _ BookingStore = (*repository.BookingRepo)(nil)
var _ PaymentStore = (*repository.PaymentRepo)(nil)
var _ CatalogStore = (*repository.CatalogRepo)(nil)
var _ VoucherStore = (*repository.VoucherRepo)(nil)
var _ EventStore = (*repository.EventRepo)(nil)
var _ ContentStore = (*repository.ContentRepo)(nil)
