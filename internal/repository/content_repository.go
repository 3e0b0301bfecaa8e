package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// ContentRepo stores the editable site content.  Each section is one
// JSON payload; the typed structures in the model package define what
// a valid payload looks like and are validated at the boundary where
// the payload is decoded.
type ContentRepo struct {
	db *sql.DB
}

// NewContentRepo returns a new ContentRepo bound to the given database.
func NewContentRepo(db *sql.DB) *ContentRepo { return &ContentRepo{db: db} }

// Get decodes the payload of a section into dst, which must be a
// pointer to the section's typed structure.  ErrContentNotFound is
// returned for unknown sections.
func (r *ContentRepo) Get(ctx context.Context, section string, dst interface{}) error {
	var raw []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM site_content WHERE section = ?`, section).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrContentNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// GetRaw returns the payload of a section without decoding, together
// with its last update time.  Used by the public content endpoint,
// which serves all sections verbatim.
func (r *ContentRepo) GetRaw(ctx context.Context, section string) (json.RawMessage, time.Time, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM site_content WHERE section = ?`, section).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, ErrContentNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return raw, updatedAt, nil
}

// ListRaw returns every section payload keyed by section name.
func (r *ContentRepo) ListRaw(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT section, payload FROM site_content`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			section string
			raw     []byte
		)
		if err := rows.Scan(&section, &raw); err != nil {
			return nil, err
		}
		out[section] = json.RawMessage(raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert encodes src and writes it as the payload of a section,
// creating the section when missing.
func (r *ContentRepo) Upsert(ctx context.Context, section string, src interface{}) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO site_content (section, payload) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE payload = VALUES(payload)`,
		section, raw)
	return err
}
