// Package queue defines message payloads exchanged over the message broker.
package queue

// CheckoutCompletedEvent is published when a session checkout has been
// durably persisted.  It carries enough of the computed breakdown for
// downstream consumers to journal, notify, or feed analytics without
// querying the primary database.
type CheckoutCompletedEvent struct {
    CheckoutID    uint64 `json:"checkout_id"`
    HistoryID     string `json:"history_id"`
    StoreID       uint64 `json:"store_id"`
    SessionID     uint64 `json:"session_id"`
    TableName     string `json:"table_name"`
    SeatTypeName  string `json:"seat_type_name"`
    GuestCount    int    `json:"guest_count"`
    ChargeAmount  int64  `json:"charge_amount"`
    OrderAmount   int64  `json:"order_amount"`
    NominationFee int64  `json:"nomination_fee"`
    TotalAmount   int64  `json:"total_amount"`
    StayMinutes   int    `json:"stay_minutes"`
    PosReceiptID  string `json:"pos_receipt_id,omitempty"`
    CheckoutAt    string `json:"checkout_at"`
}
