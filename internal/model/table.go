package model

// VenueTable is a physical table on the floor.  Each table is priced
// through its seat type.  At most one open session may occupy a table
// at any moment; the controller enforces this before seating a party
// or accepting a table move.
//
// Fields:
//  ID         – primary key identifier.
//  StoreID    – store the table belongs to.
//  Name       – display name (e.g. "B-3", "VIP 1").
//  SeatTypeID – seat type that prices time at this table.
type VenueTable struct {
	ID         uint64 // tables.id
	StoreID    uint64 // tables.store_id
	Name       string // tables.name
	SeatTypeID uint64 // tables.seat_type_id
}
