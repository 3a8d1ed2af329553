package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitInclusiveTax_ReferenceFigures(t *testing.T) {
	// 2500 orders + 4000 charge + 3000 nomination at 10% inclusive
	subtotal, tax := SplitInclusiveTax(9500, 10.0)
	assert.Equal(t, int64(8636), subtotal)
	assert.Equal(t, int64(864), tax)
}

func TestSplitInclusiveTax_ZeroRate(t *testing.T) {
	subtotal, tax := SplitInclusiveTax(1234, 0)
	assert.Equal(t, int64(1234), subtotal)
	assert.Equal(t, int64(0), tax)
}

func TestSplitInclusiveTax_ZeroAndNegativeTotal(t *testing.T) {
	subtotal, tax := SplitInclusiveTax(0, 10.0)
	assert.Equal(t, int64(0), subtotal)
	assert.Equal(t, int64(0), tax)
	subtotal, tax = SplitInclusiveTax(-100, 10.0)
	assert.Equal(t, int64(0), subtotal)
	assert.Equal(t, int64(0), tax)
}

func TestSplitInclusiveTax_RoundTrip(t *testing.T) {
	rates := []float64{0, 5, 8, 10, 10.5, 20}
	for _, rate := range rates {
		for total := int64(0); total <= 3000; total++ {
			subtotal, tax := SplitInclusiveTax(total, rate)
			assert.Equal(t, total, subtotal+tax, "total=%d rate=%v", total, rate)
			assert.GreaterOrEqual(t, tax, int64(0), "total=%d rate=%v", total, rate)
		}
	}
}

func TestSplitInclusiveTax_FractionalRate(t *testing.T) {
	// 8.25% of 10000: subtotal = floor(10000*10000/10825)
	subtotal, tax := SplitInclusiveTax(10000, 8.25)
	assert.Equal(t, int64(9237), subtotal)
	assert.Equal(t, int64(763), tax)
}
