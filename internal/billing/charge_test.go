package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func minutes(m int) time.Time { return t0.Add(time.Duration(m) * time.Minute) }

// single open interval at 1000 per 30 minutes
func openLedger(price int64) []LedgerEvent {
	return []LedgerEvent{{SeatTypeID: 1, PriceSnapshot: price, ChangedAt: t0}}
}

var units30 = map[uint64]int{1: 30, 2: 60}

func TestQuote_EmptyLedgerOwesNothing(t *testing.T) {
	q, err := Quote(nil, units30, nil, 0, t0)
	assert.NoError(t, err)
	assert.Equal(t, ChargeQuote{}, q)
}

func TestQuote_MinimumCharge(t *testing.T) {
	// clock started and checked out within the same minute
	q, err := Quote(openLedger(1000), units30, nil, 0, t0.Add(20*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), q.OpenUnits)
	assert.Equal(t, int64(1000), q.TotalAmount)
}

func TestQuote_Rounding(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		units   int64
	}{
		{"exactly one unit", 30 * time.Minute, 1},
		{"one minute over", 31 * time.Minute, 2},
		{"just under one unit", 29*time.Minute + 59*time.Second, 1},
		{"ninety five minutes", 95 * time.Minute, 4},
		{"two units exactly", 60 * time.Minute, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := Quote(openLedger(1000), units30, nil, 0, t0.Add(tc.elapsed))
			assert.NoError(t, err)
			assert.Equal(t, tc.units, q.OpenUnits)
			assert.Equal(t, tc.units*1000, q.TotalAmount)
		})
	}
}

func TestQuote_PauseExclusion(t *testing.T) {
	// Ran 20 minutes, paused 40 minutes, ran 10 more: bill as 30
	// minutes of uninterrupted running, one unit, not three.
	asOf := minutes(70)
	q, err := Quote(openLedger(1000), units30, nil, 40*60, asOf)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), q.OpenUnits)
	assert.Equal(t, int64(1000), q.TotalAmount)
}

func TestQuote_PausedNow(t *testing.T) {
	// Currently suspended: the interval ends at the pause instant, not
	// at asOf, so polling during the pause never grows the charge.
	pausedAt := minutes(25)
	q1, err := Quote(openLedger(1000), units30, &pausedAt, 0, minutes(40))
	assert.NoError(t, err)
	q2, err := Quote(openLedger(1000), units30, &pausedAt, 0, minutes(400))
	assert.NoError(t, err)
	assert.Equal(t, q1, q2)
	assert.Equal(t, int64(1), q1.OpenUnits)
}

func TestQuote_TableMoveConservation(t *testing.T) {
	// Quote the source table at move time, then rebuild the ledger the
	// way the controller writes it: one closed move-charge entry plus a
	// fresh open interval at the destination rate.
	moveAt := minutes(45)
	before, err := Quote(openLedger(1000), units30, nil, 0, moveAt)
	assert.NoError(t, err)
	assert.Equal(t, int64(2000), before.TotalAmount) // ceil(45/30) = 2 units

	after := []LedgerEvent{
		{SeatTypeID: 1, PriceSnapshot: before.TotalAmount, ChangedAt: moveAt.Add(-time.Millisecond), IsTableMoveCharge: true},
		{SeatTypeID: 2, PriceSnapshot: 3000, ChangedAt: moveAt},
	}
	q, err := Quote(after, units30, nil, 0, moveAt)
	assert.NoError(t, err)
	// source charge preserved verbatim, never recomputed
	assert.Equal(t, before.TotalAmount, q.ClosedAmount)
	// the destination interval starts billing its own minimum unit
	assert.Equal(t, int64(1), q.OpenUnits)
	assert.Equal(t, int64(3000), q.OpenAmount)

	// a later price change on the source seat type must not rewrite the
	// closed entry
	q2, err := Quote(after, units30, nil, 0, moveAt.Add(61*time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, before.TotalAmount, q2.ClosedAmount)
	assert.Equal(t, int64(2), q2.OpenUnits) // 61 min on a 60 min unit
}

func TestQuote_Idempotent(t *testing.T) {
	asOf := minutes(42)
	q1, err := Quote(openLedger(1500), units30, nil, 0, asOf)
	assert.NoError(t, err)
	q2, err := Quote(openLedger(1500), units30, nil, 0, asOf)
	assert.NoError(t, err)
	assert.Equal(t, q1, q2)
}

func TestQuote_AsOfBeforeOpenEvent(t *testing.T) {
	// Clock skew between app servers must not produce a negative
	// elapsed span; the minimum unit still applies.
	q, err := Quote(openLedger(1000), units30, nil, 0, t0.Add(-time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, int64(1), q.OpenUnits)
}

func TestQuote_MoveChargeWithoutOpenInterval(t *testing.T) {
	events := []LedgerEvent{
		{SeatTypeID: 1, PriceSnapshot: 2000, ChangedAt: t0, IsTableMoveCharge: true},
	}
	_, err := Quote(events, units30, nil, 0, minutes(10))
	assert.ErrorIs(t, err, ErrLedgerCorrupt)
}

func TestQuote_UnknownSeatType(t *testing.T) {
	events := []LedgerEvent{{SeatTypeID: 99, PriceSnapshot: 1000, ChangedAt: t0}}
	_, err := Quote(events, units30, nil, 0, minutes(10))
	assert.ErrorIs(t, err, ErrUnknownSeatType)
}
