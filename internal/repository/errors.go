// Package repository defines error types that are reused across
// multiple repositories.  These sentinel values allow higher layers
// such as handlers to distinguish between failure scenarios without
// inspecting driver errors.  For example, ErrTableOccupied signals
// that a seating or table-move request targets a table that already
// has an open session, which handlers translate into HTTP 409.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrSessionNotFound is returned when no open session exists for the
// requested id.  A session deleted by a successful checkout produces
// this same error on any later operation.  Handlers should translate
// this into an HTTP 404 response.
var ErrSessionNotFound = errors.New("session not found")

// ErrTableNotFound is returned when a table lookup fails.
var ErrTableNotFound = errors.New("table not found")

// ErrSeatTypeNotFound is returned when a seat type lookup fails.
var ErrSeatTypeNotFound = errors.New("seat type not found")

// ErrCastNotFound is returned when a cast member lookup fails.
var ErrCastNotFound = errors.New("cast not found")

// ErrStoreNotFound is returned when a store lookup fails.
var ErrStoreNotFound = errors.New("store not found")

// ErrOrderNotFound is returned when an order lookup fails.
var ErrOrderNotFound = errors.New("order not found")

// ErrCheckoutNotFound is returned when a checkout lookup fails.
var ErrCheckoutNotFound = errors.New("checkout not found")

// ErrTableOccupied is returned when a seating or table-move request
// targets a table that already has an open session.  Handlers should
// translate this into an HTTP 409 response.
var ErrTableOccupied = errors.New("table already has an open session")

// isTableConflict reports whether a driver error means another session
// won the race for a table: a violation of the unique index on
// sessions.table_id (1062), or a deadlock between two seatings holding
// the same gap lock (1213).  Both mean the same thing to the caller,
// the table is taken.
func isTableConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1062 || me.Number == 1213
}
