package repository

import (
	"context"
	"database/sql"
	"log"

	"github.com/iliyamo/table-session-billing/internal/model"
)

// historyBatchSize caps how many archival rows one INSERT carries.
const historyBatchSize = 50

// HistoryRepo writes the denormalized archival copies of a checkout.
// Archival is a reporting convenience: it runs after the checkout
// transaction has committed and its failures never roll anything
// back.  Item and nomination inserts are batched; a failing batch is
// retried row by row so one malformed row cannot silently drop the
// rest of its batch.
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo returns a new HistoryRepo bound to the given database.
func NewHistoryRepo(db *sql.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// CreateHistory inserts the CheckoutHistory row.
func (r *HistoryRepo) CreateHistory(ctx context.Context, h *model.CheckoutHistory) error {
	const q = `INSERT INTO checkout_histories
		(history_id, checkout_id, store_id, session_id, table_name, seat_type_name,
		 guest_count, is_new_customer, charge_amount, order_amount, nomination_fee,
		 total_amount, subtotal_amount, tax_amount, tax_rate_percent, stay_minutes, checkout_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		h.HistoryID, h.CheckoutID, h.StoreID, h.SessionID, h.TableName, h.SeatTypeName,
		h.GuestCount, h.IsNewCustomer, h.ChargeAmount, h.OrderAmount, h.NominationFee,
		h.TotalAmount, h.SubtotalAmount, h.TaxAmount, h.TaxRatePercent, h.StayMinutes, h.CheckoutAt)
	return err
}

// chunkRange yields [start,end) offsets walking a slice of length n in
// steps of size.
func chunkRange(n, size int) [][2]int {
	if size <= 0 {
		size = 1
	}
	out := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// AddOrderItems archives order line copies in batches of at most
// historyBatchSize rows.  When a batch insert fails, each row of that
// batch is written individually and per-row failures are logged and
// skipped.
func (r *HistoryRepo) AddOrderItems(ctx context.Context, items []model.CheckoutOrderItem) error {
	for _, rng := range chunkRange(len(items), historyBatchSize) {
		batch := items[rng[0]:rng[1]]
		if err := r.insertItemBatch(ctx, batch); err != nil {
			log.Printf("history: item batch insert failed (%d rows), retrying row by row: %v", len(batch), err)
			for i := range batch {
				if err := r.insertItemBatch(ctx, batch[i:i+1]); err != nil {
					log.Printf("history: archiving order item %q failed: %v", batch[i].ProductName, err)
				}
			}
		}
	}
	return nil
}

func (r *HistoryRepo) insertItemBatch(ctx context.Context, items []model.CheckoutOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO checkout_order_items
		(history_id, product_name, unit_price, quantity, treat_cast_name, ordered_at) VALUES `
	args := make([]interface{}, 0, len(items)*6)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		var treat interface{}
		if it.TreatCastName != nil {
			treat = *it.TreatCastName
		}
		args = append(args, it.HistoryID, it.ProductName, it.UnitPrice, it.Quantity, treat, it.OrderedAt)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// AddNominations archives nomination copies with the same batching and
// per-row fallback as AddOrderItems.
func (r *HistoryRepo) AddNominations(ctx context.Context, noms []model.CheckoutNomination) error {
	for _, rng := range chunkRange(len(noms), historyBatchSize) {
		batch := noms[rng[0]:rng[1]]
		if err := r.insertNominationBatch(ctx, batch); err != nil {
			log.Printf("history: nomination batch insert failed (%d rows), retrying row by row: %v", len(batch), err)
			for i := range batch {
				if err := r.insertNominationBatch(ctx, batch[i:i+1]); err != nil {
					log.Printf("history: archiving nomination for %q failed: %v", batch[i].CastName, err)
				}
			}
		}
	}
	return nil
}

func (r *HistoryRepo) insertNominationBatch(ctx context.Context, noms []model.CheckoutNomination) error {
	if len(noms) == 0 {
		return nil
	}
	query := `INSERT INTO checkout_nominations (history_id, cast_name, fee) VALUES `
	args := make([]interface{}, 0, len(noms)*3)
	for i, n := range noms {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, n.HistoryID, n.CastName, n.Fee)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListHistoryByStore returns archived checkouts for reporting, newest
// first, capped at limit (0 means a default page of 50).
func (r *HistoryRepo) ListHistoryByStore(ctx context.Context, storeID uint64, limit int) ([]model.CheckoutHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT history_id, checkout_id, store_id, session_id, table_name, seat_type_name,
		guest_count, is_new_customer, charge_amount, order_amount, nomination_fee,
		total_amount, subtotal_amount, tax_amount, tax_rate_percent, stay_minutes, checkout_at
		FROM checkout_histories WHERE store_id = ? ORDER BY checkout_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CheckoutHistory, 0)
	for rows.Next() {
		var h model.CheckoutHistory
		if err := rows.Scan(
			&h.HistoryID, &h.CheckoutID, &h.StoreID, &h.SessionID, &h.TableName, &h.SeatTypeName,
			&h.GuestCount, &h.IsNewCustomer, &h.ChargeAmount, &h.OrderAmount, &h.NominationFee,
			&h.TotalAmount, &h.SubtotalAmount, &h.TaxAmount, &h.TaxRatePercent, &h.StayMinutes, &h.CheckoutAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
