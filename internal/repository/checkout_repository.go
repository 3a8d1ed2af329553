package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// CheckoutRepo provides access to the permanent checkout records.  A
// row is inserted PENDING inside the checkout transaction and its only
// later mutation is the status/receipt update after the POS sync
// attempt.
type CheckoutRepo struct {
	db *sql.DB
}

// NewCheckoutRepo returns a new CheckoutRepo bound to the given database.
func NewCheckoutRepo(db *sql.DB) *CheckoutRepo { return &CheckoutRepo{db: db} }

// CreateTx inserts a checkout row within the given transaction and
// populates the generated id on the provided record.
func (r *CheckoutRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.Checkout) error {
	const q = `INSERT INTO checkouts
		(session_id, store_id, total_amount, charge_amount, order_amount, nomination_fee, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		c.SessionID, c.StoreID, c.TotalAmount, c.ChargeAmount, c.OrderAmount, c.NominationFee, c.Status, c.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// MarkCompleted transitions a checkout to COMPLETED, optionally
// recording the POS receipt reference.  A nil receiptID leaves the
// column null, which is the terminal state when POS sync failed or is
// disabled for the store.
func (r *CheckoutRepo) MarkCompleted(ctx context.Context, id uint64, receiptID *string) error {
	const q = `UPDATE checkouts SET status = ?, pos_receipt_id = ? WHERE id = ?`
	var ref interface{}
	if receiptID != nil {
		ref = *receiptID
	}
	res, err := r.db.ExecContext(ctx, q, model.CheckoutStatusCompleted, ref, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCheckoutNotFound
	}
	return nil
}

// GetByID returns the checkout with the given id or ErrCheckoutNotFound.
func (r *CheckoutRepo) GetByID(ctx context.Context, id uint64) (*model.Checkout, error) {
	const q = `SELECT id, session_id, store_id, total_amount, charge_amount, order_amount,
		nomination_fee, status, pos_receipt_id, created_at FROM checkouts WHERE id = ?`
	var c model.Checkout
	var receipt sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.SessionID, &c.StoreID, &c.TotalAmount, &c.ChargeAmount, &c.OrderAmount,
		&c.NominationFee, &c.Status, &receipt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckoutNotFound
		}
		return nil, err
	}
	if receipt.Valid {
		ref := receipt.String
		c.PosReceiptID = &ref
	}
	return &c, nil
}
