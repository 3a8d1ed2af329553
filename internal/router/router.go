package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/table-session-billing/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that carry no handler state on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterSessions registers the seating and billing-clock endpoints.
// Seating creates the session; the clock endpoints drive the charge
// state machine (start, pause, resume) and the table move.
func RegisterSessions(e *echo.Echo, s *handler.SessionHandler) {
	// Seat a party at a table.  Fails with 409 when the table already
	// has an open session.
	e.POST("/v1/tables/:id/sessions", s.Create)
	// Full session detail: clock state, open orders, nominations.
	e.GET("/v1/sessions/:id", s.Get)

	// Billing clock transitions.  Each runs under the session's row
	// lease so concurrent transitions serialize.
	g := e.Group("/v1/sessions/:id/charge")
	g.POST("/start", s.StartCharge)
	g.POST("/pause", s.PauseCharge)
	g.POST("/resume", s.ResumeCharge)

	// Move the party to another table, folding the open interval into
	// a priced move-charge ledger entry.
	e.POST("/v1/sessions/:id/move", s.MoveTable)
}

// RegisterOrders registers order intake and the kitchen status flow.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler) {
	// Record one round of items against an open session.
	e.POST("/v1/sessions/:id/orders", o.Create)
	// Advance an order along NEW -> ACK -> PREP -> SERVED, or cancel it.
	e.PATCH("/v1/orders/:id/status", o.UpdateStatus)
}

// RegisterNominations registers nomination capture.
func RegisterNominations(e *echo.Echo, n *handler.NominationHandler) {
	e.POST("/v1/sessions/:id/nominations", n.Create)
}

// RegisterCheckout registers the charge quote and the checkout itself.
func RegisterCheckout(e *echo.Echo, co *handler.CheckoutHandler) {
	// Current table charge owed, served from a short-lived cache when
	// available.
	e.GET("/v1/sessions/:id/charge", co.GetCharge)
	// Finalize the visit: one atomic revenue transaction followed by
	// best-effort POS sync, archival and event publication.
	e.POST("/v1/sessions/:id/checkout", co.Checkout)
	// Permanent revenue record of a finished visit.
	e.GET("/v1/checkouts/:id", co.Get)
	// Archived checkouts for reporting, newest first.
	e.GET("/v1/stores/:id/checkouts", co.ListHistory)
}
