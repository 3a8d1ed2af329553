package billing

// DefaultTaxRatePercent is assumed when store configuration does not
// carry a tax rate.
const DefaultTaxRatePercent = 10.0

// SplitInclusiveTax derives the tax-exclusive subtotal and the tax
// portion from a tax-inclusive total.  The rate is converted to basis
// points once so the division itself runs in integer arithmetic:
// subtotal = floor(total * 10000 / (10000 + rateBp)).  This is an
// accounting computation and must not drift by currency-unit errors,
// so no floating division is involved past the rate conversion.
// subtotal + tax always equals total.
func SplitInclusiveTax(total int64, ratePercent float64) (subtotal, tax int64) {
	if total <= 0 {
		return 0, 0
	}
	rateBp := int64(ratePercent*100 + 0.5)
	if rateBp <= 0 {
		return total, 0
	}
	subtotal = total * 10000 / (10000 + rateBp)
	tax = total - subtotal
	return subtotal, tax
}
