package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// SeatTypeRepo reads seat type reference data.  Seat types are never
// mutated by the billing engine; prices are snapshotted into the
// ledger at event time while unit lengths are looked up live.
type SeatTypeRepo struct {
	db *sql.DB
}

// NewSeatTypeRepo returns a new SeatTypeRepo bound to the given database.
func NewSeatTypeRepo(db *sql.DB) *SeatTypeRepo { return &SeatTypeRepo{db: db} }

// GetByID returns the seat type with the given id or ErrSeatTypeNotFound.
func (r *SeatTypeRepo) GetByID(ctx context.Context, id uint64) (*model.SeatType, error) {
	const q = `SELECT id, store_id, name, price_per_unit, time_unit_minutes FROM seat_types WHERE id = ?`
	var st model.SeatType
	err := r.db.QueryRowContext(ctx, q, id).Scan(&st.ID, &st.StoreID, &st.Name, &st.PricePerUnit, &st.TimeUnitMinutes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatTypeNotFound
		}
		return nil, err
	}
	return &st, nil
}

// UnitMinutesByID returns a map from seat type id to unit length for
// the given ids.  A ledger that spans table moves references several
// seat types, so the accumulator needs them all in one lookup.
// Passing an empty slice returns an empty map.
func (r *SeatTypeRepo) UnitMinutesByID(ctx context.Context, ids []uint64) (map[uint64]int, error) {
	out := make(map[uint64]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT id, time_unit_minutes FROM seat_types WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var unit int
		if err := rows.Scan(&id, &unit); err != nil {
			return nil, err
		}
		out[id] = unit
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
