// Package billing holds the pure calculations of the seat charge
// engine: the ledger accumulator, the inclusive tax split and the
// billing clock state machine.  Nothing in this package touches the
// database; callers load the ledger and session state and pass them
// in, which keeps every function deterministic for a given input and
// safe to call repeatedly (UI polling, pre-checkout, checkout).
package billing

import (
	"errors"
	"time"
)

// ErrLedgerCorrupt is returned when a session's ledger contains
// move-charge entries but no open-interval entry.  A correct
// controller always writes the new open-interval event in the same
// transaction as the move charge, so this state is unreachable unless
// the ledger was mutated outside the engine.
var ErrLedgerCorrupt = errors.New("seat charge ledger has no open interval")

// ErrUnknownSeatType is returned when the open interval references a
// seat type the caller did not supply unit minutes for.
var ErrUnknownSeatType = errors.New("unknown seat type in ledger")

// LedgerEvent is the slice element the accumulator works on.  It
// mirrors model.SeatChargeEvent but carries only the fields the
// calculation needs, so tests can build ledgers without touching the
// model package.
type LedgerEvent struct {
	SeatTypeID        uint64
	PriceSnapshot     int64
	ChangedAt         time.Time
	IsTableMoveCharge bool
}

// ChargeQuote is the result of accumulating a session's ledger.
//
//  ClosedAmount – sum of all move-charge entries, taken verbatim.
//  OpenAmount   – charge of the currently accruing interval.
//  OpenUnits    – billed units of the open interval.
//  TotalAmount  – ClosedAmount + OpenAmount.
type ChargeQuote struct {
	ClosedAmount int64
	OpenAmount   int64
	OpenUnits    int64
	TotalAmount  int64
}

// Quote computes the charge currently owed for a session's ledger as
// of the given instant.  unitMinutes maps seat type id to the length
// of one billing unit; pausedAt is the session's ChargePausedAt and
// pausedSeconds its accumulated paused span for the open interval.
//
// The open interval ends at pausedAt while the clock is suspended and
// at asOf otherwise.  Elapsed whole minutes, with the paused span
// subtracted, are rounded up to the next multiple of the unit length;
// any interval shorter than one minute still bills exactly one unit.
// An empty ledger (clock never started) owes nothing.
func Quote(events []LedgerEvent, unitMinutes map[uint64]int, pausedAt *time.Time, pausedSeconds int64, asOf time.Time) (ChargeQuote, error) {
	if len(events) == 0 {
		return ChargeQuote{}, nil
	}

	var q ChargeQuote
	var open *LedgerEvent
	for i := range events {
		ev := &events[i]
		if ev.IsTableMoveCharge {
			q.ClosedAmount += ev.PriceSnapshot
			continue
		}
		if open == nil || ev.ChangedAt.After(open.ChangedAt) {
			open = ev
		}
	}
	if open == nil {
		return ChargeQuote{}, ErrLedgerCorrupt
	}
	unit, ok := unitMinutes[open.SeatTypeID]
	if !ok || unit <= 0 {
		return ChargeQuote{}, ErrUnknownSeatType
	}

	end := asOf
	if pausedAt != nil {
		end = *pausedAt
	}
	elapsedSec := int64(end.Sub(open.ChangedAt) / time.Second)
	elapsedSec -= pausedSeconds
	if elapsedSec < 0 {
		elapsedSec = 0
	}
	elapsedMin := elapsedSec / 60

	if elapsedMin < 1 {
		q.OpenUnits = 1
	} else {
		q.OpenUnits = (elapsedMin + int64(unit) - 1) / int64(unit)
	}
	q.OpenAmount = q.OpenUnits * open.PriceSnapshot
	q.TotalAmount = q.ClosedAmount + q.OpenAmount
	return q, nil
}
