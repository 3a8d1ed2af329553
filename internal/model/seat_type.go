package model

// SeatType describes a class of table (counter, box, VIP room) and the
// rate at which time at such a table is billed.  Seat types are
// reference data: the billing engine looks them up but never mutates
// them.  Prices are stored in integer minor currency units.
//
// Fields:
//  ID              – primary key identifier.
//  StoreID         – store the seat type belongs to.
//  Name            – display name shown on receipts and reports.
//  PricePerUnit    – price of one billing unit in minor units.
//  TimeUnitMinutes – length of one billing unit in minutes (> 0).
type SeatType struct {
	ID              uint64 // seat_types.id
	StoreID         uint64 // seat_types.store_id
	Name            string // seat_types.name
	PricePerUnit    int64  // seat_types.price_per_unit
	TimeUnitMinutes int    // seat_types.time_unit_minutes
}
