package model

import "time"

// SeatChargeEvent is one entry of the append-only seat charge ledger.
// Events are totally ordered by ChangedAt within a session and are
// never updated or deleted while the session lives.
//
// An event with IsTableMoveCharge = false opens a billable interval at
// the rate captured in PriceSnapshot; the most recent such event marks
// the start of the currently accruing interval.  An event with
// IsTableMoveCharge = true is a closed, already-priced interval written
// by a completed table move: its PriceSnapshot is the full amount owed
// for that interval and is summed verbatim, never recomputed.
//
// Fields:
//  ID                – primary key identifier.
//  SessionID         – session the entry belongs to.
//  SeatTypeID        – seat type in effect for the interval.
//  PriceSnapshot     – unit price (open interval) or final interval
//                      amount (move charge), copied at event time so a
//                      later price change cannot rewrite history.
//  ChangedAt         – event timestamp; orders the ledger.
//  IsTableMoveCharge – true for a closed move-charge entry.
type SeatChargeEvent struct {
	ID                uint64    // seat_charge_events.id
	SessionID         uint64    // seat_charge_events.session_id
	SeatTypeID        uint64    // seat_charge_events.seat_type_id
	PriceSnapshot     int64     // seat_charge_events.price_snapshot
	ChangedAt         time.Time // seat_charge_events.changed_at
	IsTableMoveCharge bool      // seat_charge_events.is_table_move_charge
}
