package pos

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTerminalTranID(t *testing.T) {
	now := time.Unix(1750000000, 0)
	for i := 0; i < 100; i++ {
		id := NewTerminalTranID(now)
		assert.LessOrEqual(t, len(id), 10)
		_, err := strconv.ParseInt(id, 10, 64)
		assert.NoError(t, err)
	}
}

func TestFoldProductID_NumericPassthrough(t *testing.T) {
	assert.Equal(t, "42", FoldProductID("42"))
	assert.Equal(t, "10000001", FoldProductID("10000001"))
}

func TestFoldProductID_Deterministic(t *testing.T) {
	a := FoldProductID("prod-abc-123")
	b := FoldProductID("prod-abc-123")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, FoldProductID("prod-abc-124"))
}

func TestFoldProductID_BoundedRange(t *testing.T) {
	for _, id := range []string{"prod-x", "table-charge:7", "nomination:3", "", "very-long-internal-identifier-0123456789"} {
		n, err := strconv.ParseInt(FoldProductID(id), 10, 64)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(productIDBase))
		assert.Less(t, n, int64(productIDBase+productIDSpan))
	}
}

func TestBuildTransaction(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("JST", 9*3600))
	facts := TransactionFacts{
		TableID:      7,
		TableName:    "VIP 1",
		Subtotal:     8636,
		Total:        9500,
		ChargeAmount: 4000,
		Items: []ItemFact{
			{ProductID: "101", ProductName: "Champagne", UnitPrice: 2000, Quantity: 1},
			{ProductID: "sku-soda", ProductName: "Soda", UnitPrice: 250, Quantity: 2},
		},
		Nominations: []NominationFact{
			{CastID: 3, CastName: "Rin", Fee: 3000},
			{CastID: 4, CastName: "Aoi", Fee: 0}, // zero fee is skipped
		},
	}
	tran := BuildTransaction(facts, now)

	// two items + one charge line + one nomination line
	assert.Len(t, tran.Details, 4)
	assert.Equal(t, "9500", tran.Total)
	assert.Equal(t, "8636", tran.Subtotal)
	assert.Equal(t, "1", tran.TaxDivision)
	assert.Equal(t, "2025-06-01T23:30:00+09:00", tran.TerminalDateTime)

	assert.Equal(t, "101", tran.Details[0].ProductID)
	assert.Equal(t, "2000", tran.Details[0].SalesPrice)
	assert.Equal(t, "2", tran.Details[1].Quantity)
	assert.Equal(t, "4000", tran.Details[2].SalesPrice)
	assert.Equal(t, "1", tran.Details[2].Quantity)
	assert.Equal(t, "3000", tran.Details[3].SalesPrice)
	for _, d := range tran.Details {
		assert.Equal(t, "1", d.TaxDivision)
	}
}

func TestBuildTransaction_NoChargeLineWhenZero(t *testing.T) {
	tran := BuildTransaction(TransactionFacts{ChargeAmount: 0}, time.Now())
	assert.Empty(t, tran.Details)
}
