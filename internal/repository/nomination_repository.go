package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// NominationRepo provides access to per-session nominations.  Fees
// are snapshotted when the nomination is captured; the store-level
// cast fee table is consulted only through the legacy fallback at
// checkout when no rows exist here.
type NominationRepo struct {
	db *sql.DB
}

// NewNominationRepo returns a new NominationRepo bound to the given database.
func NewNominationRepo(db *sql.DB) *NominationRepo { return &NominationRepo{db: db} }

// CreateTx inserts a nomination within the given transaction and
// populates the generated id on the provided record.
func (r *NominationRepo) CreateTx(ctx context.Context, tx *sql.Tx, n *model.Nomination) error {
	const q = `INSERT INTO nominations (session_id, cast_id, nomination_fee, created_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, n.SessionID, n.CastID, n.NominationFee, n.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

const nominationSelect = `SELECT id, session_id, cast_id, nomination_fee, created_at
	FROM nominations WHERE session_id = ? ORDER BY created_at, id`

func collectNominations(rows *sql.Rows) ([]model.Nomination, error) {
	defer rows.Close()
	out := make([]model.Nomination, 0)
	for rows.Next() {
		var n model.Nomination
		if err := rows.Scan(&n.ID, &n.SessionID, &n.CastID, &n.NominationFee, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListBySession returns all nominations of a session ordered by
// capture time.
func (r *NominationRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Nomination, error) {
	rows, err := r.db.QueryContext(ctx, nominationSelect, sessionID)
	if err != nil {
		return nil, err
	}
	return collectNominations(rows)
}

// ListBySessionTx is ListBySession inside the checkout transaction.
func (r *NominationRepo) ListBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) ([]model.Nomination, error) {
	rows, err := tx.QueryContext(ctx, nominationSelect, sessionID)
	if err != nil {
		return nil, err
	}
	return collectNominations(rows)
}

// DeleteBySessionTx removes a session's nominations.  Called only from
// the checkout transaction after their fees are folded into the
// checkout row and captured for archival.
func (r *NominationRepo) DeleteBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) error {
	const q = `DELETE FROM nominations WHERE session_id = ?`
	_, err := tx.ExecContext(ctx, q, sessionID)
	return err
}
