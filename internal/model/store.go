package model

// Store carries the per-store configuration the billing engine
// consumes read-only: the inclusive tax rate and whether checkouts are
// mirrored to the external POS provider.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – store display name.
//  TaxRatePercent – inclusive tax rate; 10.0 is assumed when the
//                   column is null.
//  PosEnabled     – POS-integration flag.
//  PosStoreID     – store identifier at the POS provider.
type Store struct {
	ID             uint64  // stores.id
	Name           string  // stores.name
	TaxRatePercent float64 // stores.tax_rate_percent (nullable, default 10.0)
	PosEnabled     bool    // stores.pos_enabled
	PosStoreID     string  // stores.pos_store_id
}
