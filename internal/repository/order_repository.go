package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// OrderRepo provides access to orders and their line items.  The
// billing engine treats orders as read-only input except for the
// transition to CLOSED performed inside the checkout transaction.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateTx inserts an order and its items within the given
// transaction, populating generated ids.  Item prices are snapshots
// supplied by the ordering surface.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (session_id, status, created_at) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.SessionID, o.Status, o.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	if len(o.Items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, target_cast_id) VALUES `
	args := make([]interface{}, 0, len(o.Items)*6)
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		var target interface{}
		if it.TargetCastID != nil {
			target = *it.TargetCastID
		}
		args = append(args, it.OrderID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity, target)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns an order without its items, or ErrOrderNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	const q = `SELECT id, session_id, status, created_at FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.SessionID, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// UpdateStatus sets an order's status.  Transition validity is checked
// by the handler via model.CanTransitionOrderStatus before calling.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE orders SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const openOrdersSelect = `SELECT id, session_id, status, created_at
	FROM orders WHERE session_id = ? AND status NOT IN ('CLOSED', 'CANCEL') ORDER BY created_at, id`

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func listOpenOrders(ctx context.Context, q rowQuerier, sessionID uint64) ([]model.Order, error) {
	rows, err := q.QueryContext(ctx, openOrdersSelect, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.SessionID, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Items = []model.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	// Fetch items for all open orders in one query
	ids := make([]interface{}, 0, len(orders))
	placeholders := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		placeholders = append(placeholders, "?")
	}
	itemQuery := `SELECT id, order_id, product_id, product_name, unit_price, quantity, target_cast_id
		FROM order_items WHERE order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY order_id, id`
	irows, err := q.QueryContext(ctx, itemQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var it model.OrderItem
		var target sql.NullInt64
		if err := irows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity, &target); err != nil {
			return nil, err
		}
		if target.Valid {
			cid := uint64(target.Int64)
			it.TargetCastID = &cid
		}
		idx, ok := index[it.OrderID]
		if !ok {
			continue
		}
		orders[idx].Items = append(orders[idx].Items, it)
	}
	if err := irows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOpenBySession returns a session's orders whose status is neither
// CLOSED nor CANCEL, with items populated.
func (r *OrderRepo) ListOpenBySession(ctx context.Context, sessionID uint64) ([]model.Order, error) {
	return listOpenOrders(ctx, r.db, sessionID)
}

// ListOpenBySessionTx is ListOpenBySession inside the checkout
// transaction so the billed set cannot change under the lease.
func (r *OrderRepo) ListOpenBySessionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) ([]model.Order, error) {
	return listOpenOrders(ctx, tx, sessionID)
}

// CloseTx transitions the given orders to CLOSED within the checkout
// transaction.  Passing an empty slice has no effect and returns nil.
func (r *OrderRepo) CloseTx(ctx context.Context, tx *sql.Tx, orderIDs []uint64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	placeholders := make([]string, 0, len(orderIDs))
	args := make([]interface{}, 0, len(orderIDs)+1)
	args = append(args, model.OrderStatusClosed)
	for _, id := range orderIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `UPDATE orders SET status = ? WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
