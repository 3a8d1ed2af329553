package model

// Cast is a staff member guests may nominate or treat.  The engine
// reads cast rows for fee snapshots at nomination time, for the legacy
// single-nomination fallback at checkout, and to resolve display names
// when archiving.
//
// Fields:
//  ID            – primary key identifier.
//  StoreID       – store the cast member works at.
//  DisplayName   – name shown on receipts and reports.
//  NominationFee – store-level default nomination fee in minor units.
type Cast struct {
	ID            uint64 // casts.id
	StoreID       uint64 // casts.store_id
	DisplayName   string // casts.display_name
	NominationFee int64  // casts.nomination_fee
}
