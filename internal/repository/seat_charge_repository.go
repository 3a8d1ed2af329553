package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// SeatChargeRepo provides access to the append-only seat charge
// ledger.  Entries are only ever inserted while a session lives and
// removed as a whole when the session is deleted after checkout; the
// archival tables carry the history from then on.
type SeatChargeRepo struct {
	db *sql.DB
}

// NewSeatChargeRepo returns a new SeatChargeRepo bound to the given database.
func NewSeatChargeRepo(db *sql.DB) *SeatChargeRepo { return &SeatChargeRepo{db: db} }

// AppendTx inserts a ledger event within the given transaction and
// populates the generated id on the provided record.
func (r *SeatChargeRepo) AppendTx(ctx context.Context, tx *sql.Tx, ev *model.SeatChargeEvent) error {
	const q = `INSERT INTO seat_charge_events
		(session_id, seat_type_id, price_snapshot, changed_at, is_table_move_charge)
		VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ev.SessionID, ev.SeatTypeID, ev.PriceSnapshot, ev.ChangedAt, ev.IsTableMoveCharge)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

const seatChargeSelect = `SELECT id, session_id, seat_type_id, price_snapshot, changed_at, is_table_move_charge
	FROM seat_charge_events WHERE session_id = ? ORDER BY changed_at, id`

func collectSeatChargeEvents(rows *sql.Rows) ([]model.SeatChargeEvent, error) {
	defer rows.Close()
	events := make([]model.SeatChargeEvent, 0)
	for rows.Next() {
		var ev model.SeatChargeEvent
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.SeatTypeID, &ev.PriceSnapshot, &ev.ChangedAt, &ev.IsTableMoveCharge); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ListBySession returns all ledger events of a session ordered by
// changed_at.  Used for read-only quotes outside a transaction.
func (r *SeatChargeRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.SeatChargeEvent, error) {
	rows, err := r.db.QueryContext(ctx, seatChargeSelect, sessionID)
	if err != nil {
		return nil, err
	}
	return collectSeatChargeEvents(rows)
}

// ListBySessionTx is ListBySession inside a transaction, used by the
// table-move and checkout write paths after acquiring the session
// lease.
func (r *SeatChargeRepo) ListBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) ([]model.SeatChargeEvent, error) {
	rows, err := tx.QueryContext(ctx, seatChargeSelect, sessionID)
	if err != nil {
		return nil, err
	}
	return collectSeatChargeEvents(rows)
}

// DeleteBySessionTx removes a session's entire ledger.  Called only
// from the checkout transaction after the permanent checkout row is
// persisted.
func (r *SeatChargeRepo) DeleteBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) error {
	const q = `DELETE FROM seat_charge_events WHERE session_id = ?`
	_, err := tx.ExecContext(ctx, q, sessionID)
	return err
}
