package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/table-session-billing/internal/billing"
	"github.com/iliyamo/table-session-billing/internal/model"
)

// StoreRepo reads store configuration.  The billing engine consumes
// the tax rate and the POS-integration flag; both are read-only here.
type StoreRepo struct {
	db          *sql.DB
	fallbackTax float64
}

// NewStoreRepo returns a new StoreRepo bound to the given database.
// fallbackTax applies to stores whose tax rate column is null; a
// non-positive value falls back to billing.DefaultTaxRatePercent.
func NewStoreRepo(db *sql.DB, fallbackTax float64) *StoreRepo {
	if fallbackTax <= 0 {
		fallbackTax = billing.DefaultTaxRatePercent
	}
	return &StoreRepo{db: db, fallbackTax: fallbackTax}
}

// GetByID returns the store with the given id or ErrStoreNotFound.
// A null tax rate column falls back to the configured default.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (*model.Store, error) {
	const q = `SELECT id, name, tax_rate_percent, pos_enabled, pos_store_id FROM stores WHERE id = ?`
	var s model.Store
	var rate sql.NullFloat64
	var posStoreID sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &rate, &s.PosEnabled, &posStoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	s.TaxRatePercent = r.fallbackTax
	if rate.Valid {
		s.TaxRatePercent = rate.Float64
	}
	if posStoreID.Valid {
		s.PosStoreID = posStoreID.String
	}
	return &s, nil
}
