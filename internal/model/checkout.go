package model

import "time"

// Checkout statuses.  A checkout is created PENDING inside the
// checkout transaction and marked COMPLETED after the POS sync
// attempt, whether or not that attempt succeeded.
const (
	CheckoutStatusPending   = "PENDING"
	CheckoutStatusCompleted = "COMPLETED"
)

// Checkout is the permanent revenue record of a finalized session.
// Exactly one row is created per session; the row is immutable after
// creation except for the status/receipt update following the POS
// sync attempt.
//
// Fields:
//  ID            – primary key identifier.
//  SessionID     – session that was checked out (the live row is
//                  deleted; this is kept for traceability).
//  StoreID       – store the revenue belongs to.
//  TotalAmount   – tax-inclusive grand total in minor units.
//  ChargeAmount  – table time charge portion.
//  OrderAmount   – item order portion.
//  NominationFee – nomination fee portion.
//  Status        – PENDING or COMPLETED.
//  PosReceiptID  – receipt reference returned by the POS provider
//                  (nullable; absent when sync failed or is disabled).
//  CreatedAt     – when the checkout was persisted.
type Checkout struct {
	ID            uint64    // checkouts.id
	SessionID     uint64    // checkouts.session_id
	StoreID       uint64    // checkouts.store_id
	TotalAmount   int64     // checkouts.total_amount
	ChargeAmount  int64     // checkouts.charge_amount
	OrderAmount   int64     // checkouts.order_amount
	NominationFee int64     // checkouts.nomination_fee
	Status        string    // checkouts.status
	PosReceiptID  *string   // checkouts.pos_receipt_id (nullable)
	CreatedAt     time.Time // checkouts.created_at
}
