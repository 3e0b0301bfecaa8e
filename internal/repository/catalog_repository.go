package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/fario/flyschool/internal/model"
)

// CatalogRepo provides data access to the three purchasable catalog
// tables: course_sessions, lesson_offerings and voucher_options.  The
// public site reads active entries only; the admin back office manages
// all of them.  Seat inventory on course sessions is decremented here
// with an atomic guard so concurrent confirmations can never oversell.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ----- course sessions -----

const sessionColumns = `id, course_title, starts_at, location, unit_price_chf, seats_total, seats_left, is_active, created_at, updated_at`

func scanSession(row interface{ Scan(...interface{}) error }) (model.CourseSession, error) {
	var s model.CourseSession
	err := row.Scan(&s.ID, &s.CourseTitle, &s.StartsAt, &s.Location, &s.UnitPriceCHF,
		&s.SeatsTotal, &s.SeatsLeft, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetCourseSession loads an active course session by id.
// ErrSessionNotFound is returned when the row is missing or inactive.
func (r *CatalogRepo) GetCourseSession(ctx context.Context, id uint64) (model.CourseSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM course_sessions WHERE id = ? AND is_active = 1`, id))
	if err == sql.ErrNoRows {
		return model.CourseSession{}, ErrSessionNotFound
	}
	return s, err
}

// ListCourseSessions returns sessions ordered by start date.  When
// activeOnly is true, inactive sessions are filtered out (public
// catalog); the admin listing passes false.
func (r *CatalogRepo) ListCourseSessions(ctx context.Context, activeOnly bool) ([]model.CourseSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM course_sessions`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.CourseSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateCourseSession inserts a session and populates its generated ID.
func (r *CatalogRepo) CreateCourseSession(ctx context.Context, s *model.CourseSession) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO course_sessions (course_title, starts_at, location, unit_price_chf, seats_total, seats_left, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.CourseTitle, s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.Location,
		s.UnitPriceCHF, s.SeatsTotal, s.SeatsLeft, s.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// UpdateCourseSession updates the editable fields of a session.
// seats_left is intentionally not settable here; inventory only moves
// through DecrementSeatsTx or by changing seats_total, which adjusts
// seats_left by the same delta.
func (r *CatalogRepo) UpdateCourseSession(ctx context.Context, s model.CourseSession) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE course_sessions
		 SET course_title = ?, starts_at = ?, location = ?, unit_price_chf = ?,
			 seats_left = seats_left + (? - seats_total), seats_total = ?, is_active = ?
		 WHERE id = ?`,
		s.CourseTitle, s.StartsAt.UTC().Format("2006-01-02 15:04:05"), s.Location, s.UnitPriceCHF,
		s.SeatsTotal, s.SeatsTotal, s.IsActive, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DecrementSeatsTx atomically reduces seats_left for a session within
// the provided transaction.  The WHERE guard makes the decrement and
// the capacity check a single statement, so two concurrent
// confirmations for the last seat cannot both succeed.  When the guard
// fails, ErrNoCapacity is returned and the caller must roll back.
func (r *CatalogRepo) DecrementSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE course_sessions SET seats_left = seats_left - ? WHERE id = ? AND seats_left >= ?`,
		quantity, id, quantity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoCapacity
	}
	return nil
}

// ----- lesson offerings -----

const offeringColumns = `id, kind, title, base_price_chf, surcharge_chf, min_hours, is_active, created_at, updated_at`

func scanOffering(row interface{ Scan(...interface{}) error }) (model.LessonOffering, error) {
	var o model.LessonOffering
	err := row.Scan(&o.ID, &o.Kind, &o.Title, &o.BasePriceCHF, &o.SurchargeCHF,
		&o.MinHours, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetLessonOffering loads an active lesson offering by id.
func (r *CatalogRepo) GetLessonOffering(ctx context.Context, id uint64) (model.LessonOffering, error) {
	o, err := scanOffering(r.db.QueryRowContext(ctx,
		`SELECT `+offeringColumns+` FROM lesson_offerings WHERE id = ? AND is_active = 1`, id))
	if err == sql.ErrNoRows {
		return model.LessonOffering{}, ErrOfferingNotFound
	}
	return o, err
}

// ListLessonOfferings returns offerings, optionally active ones only.
func (r *CatalogRepo) ListLessonOfferings(ctx context.Context, activeOnly bool) ([]model.LessonOffering, error) {
	q := `SELECT ` + offeringColumns + ` FROM lesson_offerings`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY kind, title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	offerings := make([]model.LessonOffering, 0)
	for rows.Next() {
		o, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		offerings = append(offerings, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offerings, nil
}

// CreateLessonOffering inserts an offering and populates its ID.
func (r *CatalogRepo) CreateLessonOffering(ctx context.Context, o *model.LessonOffering) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_offerings (kind, title, base_price_chf, surcharge_chf, min_hours, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.Kind, o.Title, o.BasePriceCHF, o.SurchargeCHF, o.MinHours, o.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// UpdateLessonOffering updates the editable fields of an offering.
func (r *CatalogRepo) UpdateLessonOffering(ctx context.Context, o model.LessonOffering) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE lesson_offerings SET kind = ?, title = ?, base_price_chf = ?, surcharge_chf = ?, min_hours = ?, is_active = ? WHERE id = ?`,
		o.Kind, o.Title, o.BasePriceCHF, o.SurchargeCHF, o.MinHours, o.IsActive, o.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOfferingNotFound
	}
	return nil
}

// ----- voucher options -----

const voucherOptionColumns = `id, title, allowed_values, is_active, created_at, updated_at`

func scanVoucherOption(row interface{ Scan(...interface{}) error }) (model.VoucherOption, error) {
	var (
		o   model.VoucherOption
		raw []byte
	)
	err := row.Scan(&o.ID, &o.Title, &raw, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.VoucherOption{}, err
	}
	if err := json.Unmarshal(raw, &o.AllowedValues); err != nil {
		return model.VoucherOption{}, err
	}
	return o, nil
}

// GetVoucherOption loads an active voucher option by id.
func (r *CatalogRepo) GetVoucherOption(ctx context.Context, id uint64) (model.VoucherOption, error) {
	o, err := scanVoucherOption(r.db.QueryRowContext(ctx,
		`SELECT `+voucherOptionColumns+` FROM voucher_options WHERE id = ? AND is_active = 1`, id))
	if err == sql.ErrNoRows {
		return model.VoucherOption{}, ErrVoucherOptionNotFound
	}
	return o, err
}

// ListVoucherOptions returns voucher options, optionally active only.
func (r *CatalogRepo) ListVoucherOptions(ctx context.Context, activeOnly bool) ([]model.VoucherOption, error) {
	q := `SELECT ` + voucherOptionColumns + ` FROM voucher_options`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	options := make([]model.VoucherOption, 0)
	for rows.Next() {
		o, err := scanVoucherOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return options, nil
}

// CreateVoucherOption inserts an option and populates its ID.
func (r *CatalogRepo) CreateVoucherOption(ctx context.Context, o *model.VoucherOption) error {
	raw, err := json.Marshal(o.AllowedValues)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO voucher_options (title, allowed_values, is_active) VALUES (?, ?, ?)`,
		o.Title, raw, o.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// UpdateVoucherOption updates the editable fields of an option.
func (r *CatalogRepo) UpdateVoucherOption(ctx context.Context, o model.VoucherOption) error {
	raw, err := json.Marshal(o.AllowedValues)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE voucher_options SET title = ?, allowed_values = ?, is_active = ? WHERE id = ?`,
		o.Title, raw, o.IsActive, o.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVoucherOptionNotFound
	}
	return nil
}
