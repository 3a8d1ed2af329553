package pos

import (
	"math/rand"
	"strconv"
	"time"
)

// Inclusive-tax division marker understood by the provider.
const taxDivisionInclusive = "1"

// Bounds of the numeric product-id range the provider accepts.
// Internal ids that are not already numeric are folded into
// [productIDBase, productIDBase+productIDSpan).
const (
	productIDBase = 10000000
	productIDSpan = 89999999
)

// Transaction is the payload registered with the provider: a header
// plus a flat list of line details, all monetary values as decimal
// strings under the inclusive-tax convention.
type Transaction struct {
	TerminalTranID   string       `json:"terminalTranId"`
	TerminalDateTime string       `json:"terminalTranDateTime"`
	TaxDivision      string       `json:"taxDivision"`
	Subtotal         string       `json:"subtotal"`
	Total            string       `json:"total"`
	Details          []LineDetail `json:"details"`
}

// LineDetail is one transaction line: an order item, the table charge
// or a nomination fee.
type LineDetail struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	SalesPrice  string `json:"salesPrice"`
	Quantity    string `json:"quantity"`
	TaxDivision string `json:"taxDivision"`
}

// ItemFact is one billed order line as seen by the checkout.
type ItemFact struct {
	ProductID   string
	ProductName string
	UnitPrice   int64
	Quantity    int
}

// NominationFact is one billed nomination as seen by the checkout.
type NominationFact struct {
	CastID   uint64
	CastName string
	Fee      int64
}

// TransactionFacts is everything the builder needs from a finished
// checkout.
type TransactionFacts struct {
	TableID      uint64
	TableName    string
	Subtotal     int64
	Total        int64
	ChargeAmount int64
	Items        []ItemFact
	Nominations  []NominationFact
}

// NewTerminalTranID derives the locally generated terminal transaction
// id: the last seven digits of the epoch-seconds clock plus three
// random digits, ten characters total (the provider caps the field at
// ten).
func NewTerminalTranID(now time.Time) string {
	return strconv.FormatInt((now.Unix()%10000000)*1000+rand.Int63n(1000), 10)
}

// FoldProductID maps an internal id onto the provider's bounded
// numeric range.  Ids that already parse as a number inside the range
// pass through unchanged; anything else is folded deterministically
// with a polynomial checksum so the same internal id always yields the
// same provider id.
func FoldProductID(id string) string {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > 0 && n < productIDBase+productIDSpan {
		return strconv.FormatInt(n, 10)
	}
	var h uint64
	for i := 0; i < len(id); i++ {
		h = h*31 + uint64(id[i])
	}
	return strconv.FormatInt(productIDBase+int64(h%productIDSpan), 10)
}

func decimal(v int64) string { return strconv.FormatInt(v, 10) }

// BuildTransaction assembles the provider payload: one line per order
// item, one for the table charge when positive and one per nomination
// fee when positive.  Charge and nomination lines have no internal
// numeric product id, so their provider ids are folded from stable
// synthetic keys.
func BuildTransaction(facts TransactionFacts, now time.Time) *Transaction {
	t := &Transaction{
		TerminalTranID:   NewTerminalTranID(now),
		TerminalDateTime: now.Format("2006-01-02T15:04:05-07:00"),
		TaxDivision:      taxDivisionInclusive,
		Subtotal:         decimal(facts.Subtotal),
		Total:            decimal(facts.Total),
	}
	for _, it := range facts.Items {
		t.Details = append(t.Details, LineDetail{
			ProductID:   FoldProductID(it.ProductID),
			ProductName: it.ProductName,
			SalesPrice:  decimal(it.UnitPrice),
			Quantity:    strconv.Itoa(it.Quantity),
			TaxDivision: taxDivisionInclusive,
		})
	}
	if facts.ChargeAmount > 0 {
		t.Details = append(t.Details, LineDetail{
			ProductID:   FoldProductID("table-charge:" + strconv.FormatUint(facts.TableID, 10)),
			ProductName: "テーブルチャージ " + facts.TableName,
			SalesPrice:  decimal(facts.ChargeAmount),
			Quantity:    "1",
			TaxDivision: taxDivisionInclusive,
		})
	}
	for _, n := range facts.Nominations {
		if n.Fee <= 0 {
			continue
		}
		t.Details = append(t.Details, LineDetail{
			ProductID:   FoldProductID("nomination:" + strconv.FormatUint(n.CastID, 10)),
			ProductName: "指名料 " + n.CastName,
			SalesPrice:  decimal(n.Fee),
			Quantity:    "1",
			TaxDivision: taxDivisionInclusive,
		})
	}
	return t
}
