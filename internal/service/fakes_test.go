package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fario/flyschool/internal/model"
	"github.com/fario/flyschool/internal/payment"
	"github.com/fario/flyschool/internal/queue"
	"github.com/fario/flyschool/internal/repository"
)

// In-memory fakes for the store interfaces. RunInTx passes a nil
// transaction, which the fakes ignore.

type fakeTx struct{}

func (fakeTx) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error { return fn(nil) }

type fakeBookings struct {
	byID      map[string]*model.Booking
	createErr error
}

func newFakeBookings(bs ...model.Booking) *fakeBookings {
	f := &fakeBookings{byID: make(map[string]*model.Booking)}
	for i := range bs {
		b := bs[i]
		f.byID[b.ID] = &b
	}
	return f
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	clone := *b
	f.byID[b.ID] = &clone
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (model.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return model.Booking{}, repository.ErrBookingNotFound
	}
	return *b, nil
}

func (f *fakeBookings) GetByIDTx(ctx context.Context, _ *sql.Tx, id string) (model.Booking, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeBookings) MarkPaidTx(_ context.Context, _ *sql.Tx, id string) (bool, error) {
	b, ok := f.byID[id]
	if !ok {
		return false, repository.ErrBookingNotFound
	}
	if b.Status != model.StatusAwaitingPayment && b.Status != model.StatusInvoiceRequested {
		return false, nil
	}
	b.Status = model.StatusPaid
	return true, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id string, status model.BookingStatus) error {
	b, ok := f.byID[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status == model.StatusPaid && status != model.StatusPaid {
		return repository.ErrPaidImmutable
	}
	b.Status = status
	return nil
}

type fakePayments struct {
	byBooking map[string]model.Payment
}

func newFakePayments() *fakePayments {
	return &fakePayments{byBooking: make(map[string]model.Payment)}
}

func (f *fakePayments) Upsert(_ context.Context, p model.Payment) error {
	existing, ok := f.byBooking[p.BookingID]
	if ok {
		if p.SessionID == "" {
			p.SessionID = existing.SessionID
		}
		if p.IntentID == "" {
			p.IntentID = existing.IntentID
		}
		if existing.PaidAt != nil {
			p.PaidAt = existing.PaidAt
		}
	}
	f.byBooking[p.BookingID] = p
	return nil
}

func (f *fakePayments) UpsertTx(ctx context.Context, _ *sql.Tx, p model.Payment) error {
	return f.Upsert(ctx, p)
}

func (f *fakePayments) GetByBookingID(_ context.Context, bookingID string) (model.Payment, error) {
	p, ok := f.byBooking[bookingID]
	if !ok {
		return model.Payment{}, sql.ErrNoRows
	}
	return p, nil
}

type fakeCatalog struct {
	sessions   map[uint64]model.CourseSession
	offerings  map[uint64]model.LessonOffering
	options    map[uint64]model.VoucherOption
	decrements []int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		sessions:  make(map[uint64]model.CourseSession),
		offerings: make(map[uint64]model.LessonOffering),
		options:   make(map[uint64]model.VoucherOption),
	}
}

func (f *fakeCatalog) GetCourseSession(_ context.Context, id uint64) (model.CourseSession, error) {
	s, ok := f.sessions[id]
	if !ok || !s.IsActive {
		return model.CourseSession{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeCatalog) GetLessonOffering(_ context.Context, id uint64) (model.LessonOffering, error) {
	o, ok := f.offerings[id]
	if !ok || !o.IsActive {
		return model.LessonOffering{}, repository.ErrOfferingNotFound
	}
	return o, nil
}

func (f *fakeCatalog) GetVoucherOption(_ context.Context, id uint64) (model.VoucherOption, error) {
	o, ok := f.options[id]
	if !ok || !o.IsActive {
		return model.VoucherOption{}, repository.ErrVoucherOptionNotFound
	}
	return o, nil
}

func (f *fakeCatalog) DecrementSeatsTx(_ context.Context, _ *sql.Tx, id uint64, quantity int) error {
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.SeatsLeft < quantity {
		return repository.ErrNoCapacity
	}
	s.SeatsLeft -= quantity
	f.sessions[id] = s
	f.decrements = append(f.decrements, quantity)
	return nil
}

type fakeVouchers struct {
	byBooking   map[string]model.Voucher
	takenCodes  map[string]bool
	nextID      uint64
	failCodes   int // next N creates fail with ErrVoucherCodeExists
	preTaken    int // next N existence checks report the code as taken
	existsCalls int
}

func newFakeVouchers() *fakeVouchers {
	return &fakeVouchers{byBooking: make(map[string]model.Voucher), takenCodes: make(map[string]bool)}
}

func (f *fakeVouchers) CreateTx(_ context.Context, _ *sql.Tx, v *model.Voucher) error {
	if f.failCodes > 0 {
		f.failCodes--
		return repository.ErrVoucherCodeExists
	}
	if f.takenCodes[v.Code] {
		return repository.ErrVoucherCodeExists
	}
	if _, ok := f.byBooking[v.BookingID]; ok {
		return repository.ErrDuplicateEvent
	}
	f.nextID++
	v.ID = f.nextID
	v.CreatedAt = time.Now().UTC()
	f.takenCodes[v.Code] = true
	f.byBooking[v.BookingID] = *v
	return nil
}

func (f *fakeVouchers) CodeExistsTx(_ context.Context, _ *sql.Tx, code string) (bool, error) {
	f.existsCalls++
	if f.preTaken > 0 {
		f.preTaken--
		return true, nil
	}
	return f.takenCodes[code], nil
}

func (f *fakeVouchers) GetByBookingIDTx(ctx context.Context, _ *sql.Tx, bookingID string) (model.Voucher, error) {
	return f.GetByBookingID(ctx, bookingID)
}

func (f *fakeVouchers) GetByBookingID(_ context.Context, bookingID string) (model.Voucher, error) {
	v, ok := f.byBooking[bookingID]
	if !ok {
		return model.Voucher{}, repository.ErrVoucherNotFound
	}
	return v, nil
}

type fakeEvents struct {
	processed map[string]bool
}

func newFakeEvents() *fakeEvents { return &fakeEvents{processed: make(map[string]bool)} }

func (f *fakeEvents) MarkProcessedTx(_ context.Context, _ *sql.Tx, eventID, _ string) error {
	if f.processed[eventID] {
		return repository.ErrDuplicateEvent
	}
	f.processed[eventID] = true
	return nil
}

type fakeContent struct {
	contact model.ContactContent
}

func (f *fakeContent) Get(_ context.Context, section string, dst interface{}) error {
	if section != model.SectionContact {
		return repository.ErrContentNotFound
	}
	*(dst.(*model.ContactContent)) = f.contact
	return nil
}

type fakePublisher struct {
	published []queue.BookingEvent
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, ev)
	return nil
}

type fakeProvider struct {
	sessions   map[string]payment.Session
	created    []payment.CreateSessionParams
	createErr  error
	getErr     error
	nextSessID string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: make(map[string]payment.Session), nextSessID: "cs_test_1"}
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, p payment.CreateSessionParams) (payment.Session, error) {
	if f.createErr != nil {
		return payment.Session{}, f.createErr
	}
	f.created = append(f.created, p)
	sess := payment.Session{ID: f.nextSessID, URL: "https://checkout.test/" + f.nextSessID}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeProvider) GetSession(_ context.Context, id string) (payment.Session, error) {
	if f.getErr != nil {
		return payment.Session{}, f.getErr
	}
	sess, ok := f.sessions[id]
	if !ok {
		return payment.Session{}, errors.New("no such session")
	}
	return sess, nil
}
