package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// CastRepo reads cast (staff) records.  The engine uses it to
// snapshot fees at nomination time, to resolve the legacy
// single-nomination fallback at checkout, and to resolve display
// names when archiving.
type CastRepo struct {
	db *sql.DB
}

// NewCastRepo returns a new CastRepo bound to the given database.
func NewCastRepo(db *sql.DB) *CastRepo { return &CastRepo{db: db} }

// GetByID returns the cast member with the given id or ErrCastNotFound.
func (r *CastRepo) GetByID(ctx context.Context, id uint64) (*model.Cast, error) {
	const q = `SELECT id, store_id, display_name, nomination_fee FROM casts WHERE id = ?`
	var c model.Cast
	err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.StoreID, &c.DisplayName, &c.NominationFee)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCastNotFound
		}
		return nil, err
	}
	return &c, nil
}

// DisplayName resolves a cast member's current display name.  Archival
// rows snapshot the name at archival time, so a missing cast member
// degrades to an empty name rather than an error.
func (r *CastRepo) DisplayName(ctx context.Context, id uint64) (string, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCastNotFound) {
			return "", nil
		}
		return "", err
	}
	return c.DisplayName, nil
}
