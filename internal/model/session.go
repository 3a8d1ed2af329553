package model

import "time"

// Session is one party's occupancy of a table from seating to
// checkout.  The billing clock is represented by ChargeStartedAt and
// ChargePausedAt: a nil ChargeStartedAt means billing has not begun,
// a non-nil ChargePausedAt means billing is currently suspended.
// ChargePausedSeconds accumulates the total paused span of the
// currently accruing interval so paused time can be excluded from the
// unit-rounding calculation; it is reset when a table move opens a
// fresh interval.  The row is deleted after a successful checkout.
//
// Fields:
//  ID                  – primary key identifier.
//  StoreID             – store the session belongs to.
//  TableID             – table currently occupied.
//  StartAt             – when the party was seated.
//  ChargeStartedAt     – when the billing clock was (re)started; nil
//                        until the clock starts, reset on table move.
//  ChargePausedAt      – instant the clock was paused; nil while
//                        running.
//  ChargePausedSeconds – accumulated paused seconds of the open
//                        interval.
//  SelectedCastID      – legacy single-nomination field, consulted
//                        only when no Nomination rows exist.
//  GuestCount          – number of guests in the party.
//  IsNewCustomer       – first-visit flag carried into reporting.
type Session struct {
	ID                  uint64     // sessions.id
	StoreID             uint64     // sessions.store_id
	TableID             uint64     // sessions.table_id
	StartAt             time.Time  // sessions.start_at
	ChargeStartedAt     *time.Time // sessions.charge_started_at (nullable)
	ChargePausedAt      *time.Time // sessions.charge_paused_at (nullable)
	ChargePausedSeconds int64      // sessions.charge_paused_seconds
	SelectedCastID      *uint64    // sessions.selected_cast_id (nullable, legacy)
	GuestCount          int        // sessions.guest_count
	IsNewCustomer       bool       // sessions.is_new_customer
}
