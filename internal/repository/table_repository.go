package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// TableRepo reads venue tables.  Tables are reference data to the
// billing engine; only Session.TableID changes when a party moves.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// GetByID returns the table with the given id or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.VenueTable, error) {
	const q = `SELECT id, store_id, name, seat_type_id FROM tables WHERE id = ?`
	var t model.VenueTable
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.StoreID, &t.Name, &t.SeatTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}
