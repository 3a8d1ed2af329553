package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// SessionRepo provides access to live sessions.  Pause, resume, table
// move and checkout all race on the same session row, so every
// multi-step mutation goes through GetForUpdateTx first: the FOR
// UPDATE lease serializes writers at the datastore and a concurrent
// checkout loser simply observes the row as gone.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning several repositories.
func (r *SessionRepo) DB() *sql.DB { return r.db }

const sessionColumns = `id, store_id, table_id, start_at, charge_started_at,
	charge_paused_at, charge_paused_seconds, selected_cast_id, guest_count, is_new_customer`

func scanSession(row *sql.Row) (*model.Session, error) {
	var s model.Session
	var startedAt, pausedAt sql.NullTime
	var castID sql.NullInt64
	err := row.Scan(
		&s.ID, &s.StoreID, &s.TableID, &s.StartAt, &startedAt,
		&pausedAt, &s.ChargePausedSeconds, &castID, &s.GuestCount, &s.IsNewCustomer,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		s.ChargeStartedAt = &t
	}
	if pausedAt.Valid {
		t := pausedAt.Time
		s.ChargePausedAt = &t
	}
	if castID.Valid {
		id := uint64(castID.Int64)
		s.SelectedCastID = &id
	}
	return &s, nil
}

// GetByID returns the session with the given id or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`
	return scanSession(r.db.QueryRowContext(ctx, q, id))
}

// GetForUpdateTx loads a session inside the given transaction while
// taking a row-level lock.  Every clock transition and the checkout
// acquire this lease before touching the ledger, so their multi-step
// write sequences cannot interleave for the same session.
func (r *SessionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Session, error) {
	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ? FOR UPDATE`
	return scanSession(tx.QueryRowContext(ctx, q, id))
}

// EnsureTableFreeTx verifies the given table has no open session,
// locking the matching row (or its gap) so a concurrent seating or
// move landing on the same table serializes with this transaction.
// Returns ErrTableOccupied when a session holds the table.  The check
// is re-run inside the transaction that performs the write, not merely
// beforehand; the unique index on sessions.table_id is the backstop
// when two gap-locked inserts race (see CreateTx and MoveTableTx).
func (r *SessionRepo) EnsureTableFreeTx(ctx context.Context, tx *sql.Tx, tableID uint64) error {
	const q = `SELECT id FROM sessions WHERE table_id = ? LIMIT 1 FOR UPDATE`
	var id uint64
	err := tx.QueryRowContext(ctx, q, tableID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrTableOccupied
}

// CreateTx inserts a new session and populates the generated id on the
// provided record.  The caller must have verified the destination
// table is free within the same transaction; a loser of that race
// (unique index violation or a deadlock between two gap-locked
// seatings) surfaces as ErrTableOccupied.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	const q = `INSERT INTO sessions
		(store_id, table_id, start_at, guest_count, is_new_customer)
		VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.StoreID, s.TableID, s.StartAt, s.GuestCount, s.IsNewCustomer)
	if err != nil {
		if isTableConflict(err) {
			return ErrTableOccupied
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// StartClockTx records the NOT_STARTED -> RUNNING transition.  The
// first ledger event is appended by the caller in the same
// transaction.
func (r *SessionRepo) StartClockTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	const q = `UPDATE sessions SET charge_started_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, at, id)
	return err
}

// PauseClockTx records the RUNNING -> PAUSED transition.  No ledger
// event is written; the open interval simply stops accruing at the
// pause instant.
func (r *SessionRepo) PauseClockTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	const q = `UPDATE sessions SET charge_paused_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, at, id)
	return err
}

// ResumeClockTx records the PAUSED -> RUNNING transition.  The paused
// span is folded into charge_paused_seconds so the accumulator can
// exclude it from the unit-rounding calculation; the open interval
// keeps accruing from its original ledger timestamp.
func (r *SessionRepo) ResumeClockTx(ctx context.Context, tx *sql.Tx, id uint64, pausedSeconds int64) error {
	const q = `UPDATE sessions
		SET charge_paused_at = NULL, charge_paused_seconds = charge_paused_seconds + ?
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, pausedSeconds, id)
	return err
}

// MoveTableTx finalizes a table move on the session row: the session
// occupies the destination table, the visible "seated since" clock
// restarts at the move instant and the pause bookkeeping of the old
// interval is discarded.  The ledger entries for the move are appended
// by the caller in the same transaction.
func (r *SessionRepo) MoveTableTx(ctx context.Context, tx *sql.Tx, id, tableID uint64, at time.Time) error {
	const q = `UPDATE sessions
		SET table_id = ?, charge_started_at = ?, charge_paused_at = NULL, charge_paused_seconds = 0
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, tableID, at, id)
	if err != nil && isTableConflict(err) {
		return ErrTableOccupied
	}
	return err
}

// DeleteTx removes the session row, freeing the table for reuse.  The
// caller deletes the session's ledger and nominations first in the
// same transaction; the checkout row created earlier in that
// transaction remains as the durable revenue record.
func (r *SessionRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `DELETE FROM sessions WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, id)
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
