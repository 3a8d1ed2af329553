package model

import "time"

// CheckoutHistory is the denormalized archival copy of a checkout used
// for reporting.  It survives deletion of the live session and order
// rows and duplicates table, seat type and cast names (names, not ids)
// so later renames cannot corrupt history.
//
// Fields:
//  HistoryID      – archival key (UUID string).
//  CheckoutID     – checkout the history was copied from.
//  StoreID        – store the revenue belongs to.
//  SessionID      – original session identifier.
//  TableName      – table name at checkout time.
//  SeatTypeName   – seat type name at checkout time.
//  GuestCount     – party size.
//  IsNewCustomer  – first-visit flag.
//  ChargeAmount   – table time charge portion.
//  OrderAmount    – item order portion.
//  NominationFee  – nomination fee portion.
//  TotalAmount    – tax-inclusive grand total.
//  SubtotalAmount – tax-exclusive subtotal.
//  TaxAmount      – tax portion of the total.
//  TaxRatePercent – inclusive tax rate applied.
//  StayMinutes    – minutes between the original first-seated time and
//                   checkout, ignoring the table-move display reset.
//  CheckoutAt     – when the checkout happened.
type CheckoutHistory struct {
	HistoryID      string    // checkout_histories.history_id
	CheckoutID     uint64    // checkout_histories.checkout_id
	StoreID        uint64    // checkout_histories.store_id
	SessionID      uint64    // checkout_histories.session_id
	TableName      string    // checkout_histories.table_name
	SeatTypeName   string    // checkout_histories.seat_type_name
	GuestCount     int       // checkout_histories.guest_count
	IsNewCustomer  bool      // checkout_histories.is_new_customer
	ChargeAmount   int64     // checkout_histories.charge_amount
	OrderAmount    int64     // checkout_histories.order_amount
	NominationFee  int64     // checkout_histories.nomination_fee
	TotalAmount    int64     // checkout_histories.total_amount
	SubtotalAmount int64     // checkout_histories.subtotal_amount
	TaxAmount      int64     // checkout_histories.tax_amount
	TaxRatePercent float64   // checkout_histories.tax_rate_percent
	StayMinutes    int       // checkout_histories.stay_minutes
	CheckoutAt     time.Time // checkout_histories.checkout_at
}

// CheckoutOrderItem is the archival copy of one order line.  The
// treated-to cast's display name is resolved and snapshotted at
// archival time; OrderedAt preserves the original placement timestamp.
//
// Fields:
//  ID            – primary key identifier.
//  HistoryID     – archival key of the parent history row.
//  ProductName   – product name snapshot.
//  UnitPrice     – unit price snapshot in minor units.
//  Quantity      – number of units.
//  TreatCastName – display name of the treated cast member (nullable).
//  OrderedAt     – when the order was originally placed.
type CheckoutOrderItem struct {
	ID            uint64    // checkout_order_items.id
	HistoryID     string    // checkout_order_items.history_id
	ProductName   string    // checkout_order_items.product_name
	UnitPrice     int64     // checkout_order_items.unit_price
	Quantity      int       // checkout_order_items.quantity
	TreatCastName *string   // checkout_order_items.treat_cast_name (nullable)
	OrderedAt     time.Time // checkout_order_items.ordered_at
}

// CheckoutNomination is the archival copy of one nomination.  The cast
// display name is resolved at archival time, not at nomination time,
// so reports reflect the name in use when the visit ended.
//
// Fields:
//  ID        – primary key identifier.
//  HistoryID – archival key of the parent history row.
//  CastName  – cast display name at archival time.
//  Fee       – nomination fee snapshot in minor units.
type CheckoutNomination struct {
	ID        uint64 // checkout_nominations.id
	HistoryID string // checkout_nominations.history_id
	CastName  string // checkout_nominations.cast_name
	Fee       int64  // checkout_nominations.fee
}
