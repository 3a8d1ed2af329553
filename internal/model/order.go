package model

import "time"

// Order statuses.  An order moves NEW → ACK → PREP → SERVED → CLOSED;
// CANCEL is terminal and may be entered from any non-terminal state.
// The billing engine reads orders and only performs the transition to
// CLOSED at checkout.
const (
	OrderStatusNew    = "NEW"
	OrderStatusAck    = "ACK"
	OrderStatusPrep   = "PREP"
	OrderStatusServed = "SERVED"
	OrderStatusClosed = "CLOSED"
	OrderStatusCancel = "CANCEL"
)

// orderStatusRank maps each non-terminal status to its position in the
// forward chain.  Terminal statuses are absent.
var orderStatusRank = map[string]int{
	OrderStatusNew:    0,
	OrderStatusAck:    1,
	OrderStatusPrep:   2,
	OrderStatusServed: 3,
}

// CanTransitionOrderStatus reports whether an order may move from one
// status to another.  Forward moves along the chain are allowed one
// step at a time, CLOSED is reachable only from SERVED, and CANCEL is
// reachable from any non-terminal status.
func CanTransitionOrderStatus(from, to string) bool {
	if from == OrderStatusClosed || from == OrderStatusCancel {
		return false
	}
	if to == OrderStatusCancel {
		return true
	}
	if to == OrderStatusClosed {
		return from == OrderStatusServed
	}
	fr, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	tr, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return tr == fr+1
}

// Order groups the items a party requested in a single round.  Orders
// are created by the ordering surface and read by the billing engine;
// only the transition to CLOSED at checkout is performed here.
//
// Fields:
//  ID        – primary key identifier.
//  SessionID – session the order belongs to.
//  Status    – current status (see constants above).
//  CreatedAt – when the order was placed.
//  Items     – line items, populated by list queries.
type Order struct {
	ID        uint64      // orders.id
	SessionID uint64      // orders.session_id
	Status    string      // orders.status
	CreatedAt time.Time   // orders.created_at
	Items     []OrderItem // orders -> order_items
}

// OrderItem is a single product line on an order.  The unit price is a
// snapshot taken when the order was placed.  TargetCastID, when set,
// attributes the item as a treat gifted to a staff member.
//
// Fields:
//  ID           – primary key identifier.
//  OrderID      – order the item belongs to.
//  ProductID    – product identifier from the menu subsystem.
//  ProductName  – product name snapshot.
//  UnitPrice    – price per unit in minor units at order time.
//  Quantity     – number of units ordered.
//  TargetCastID – cast member the item is gifted to (nullable).
type OrderItem struct {
	ID           uint64  // order_items.id
	OrderID      uint64  // order_items.order_id
	ProductID    string  // order_items.product_id
	ProductName  string  // order_items.product_name
	UnitPrice    int64   // order_items.unit_price
	Quantity     int     // order_items.quantity
	TargetCastID *uint64 // order_items.target_cast_id (nullable)
}
