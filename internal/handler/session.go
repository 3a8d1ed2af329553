package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/table-session-billing/internal/billing"
	"github.com/iliyamo/table-session-billing/internal/model"
	"github.com/iliyamo/table-session-billing/internal/repository"
)

// SessionHandler groups the repositories needed to seat parties and to
// drive a session's billing clock (start, pause, resume, table move).
// Pause, resume, table move and checkout all race on the same session
// row; every transition here loads the session FOR UPDATE inside a
// transaction so the multi-step write sequences cannot interleave.
type SessionHandler struct {
	SessionRepo    *repository.SessionRepo
	TableRepo      *repository.TableRepo
	SeatTypeRepo   *repository.SeatTypeRepo
	SeatChargeRepo *repository.SeatChargeRepo
	OrderRepo      *repository.OrderRepo
	NominationRepo *repository.NominationRepo
	Cache          *redis.Client
}

// NewSessionHandler constructs a SessionHandler.  Cache may be nil
// when Redis is unavailable.
func NewSessionHandler(sessionRepo *repository.SessionRepo, tableRepo *repository.TableRepo, seatTypeRepo *repository.SeatTypeRepo, seatChargeRepo *repository.SeatChargeRepo, orderRepo *repository.OrderRepo, nominationRepo *repository.NominationRepo, cache *redis.Client) *SessionHandler {
	if sessionRepo == nil || tableRepo == nil || seatTypeRepo == nil || seatChargeRepo == nil {
		panic("nil repository passed to NewSessionHandler")
	}
	return &SessionHandler{
		SessionRepo:    sessionRepo,
		TableRepo:      tableRepo,
		SeatTypeRepo:   seatTypeRepo,
		SeatChargeRepo: seatChargeRepo,
		OrderRepo:      orderRepo,
		NominationRepo: nominationRepo,
		Cache:          cache,
	}
}

// Create handles POST /v1/tables/:id/sessions.  It seats a party at
// the table, rejecting the request with 409 when the table already has
// an open session.  The billing clock does not start here; the floor
// staff start it explicitly once the party settles.
func (h *SessionHandler) Create(c echo.Context) error {
	tableID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		GuestCount    int  `json:"guest_count"`
		IsNewCustomer bool `json:"is_new_customer"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.GuestCount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_count must be positive"})
	}
	ctx := c.Request().Context()
	table, err := h.TableRepo.GetByID(ctx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.SessionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// The occupancy check runs inside the same transaction as the
	// insert so two parties cannot be seated at one table.
	if err := h.SessionRepo.EnsureTableFreeTx(ctx, tx, table.ID); err != nil {
		if errors.Is(err, repository.ErrTableOccupied) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table already has an open session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check table occupancy"})
	}
	sess := &model.Session{
		StoreID:       table.StoreID,
		TableID:       table.ID,
		StartAt:       time.Now().UTC(),
		GuestCount:    body.GuestCount,
		IsNewCustomer: body.IsNewCustomer,
	}
	if err := h.SessionRepo.CreateTx(ctx, tx, sess); err != nil {
		// The unique index on sessions.table_id catches the race two
		// gap-locked seatings can still lose to each other.
		if errors.Is(err, repository.ErrTableOccupied) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table already has an open session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create session"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"session_id":  sess.ID,
		"table_id":    sess.TableID,
		"start_at":    sess.StartAt.Format(time.RFC3339),
		"clock_state": billing.ClockNotStarted.String(),
	})
}

// Get handles GET /v1/sessions/:id.  It returns the session, its
// derived clock state, open orders and nominations.
func (h *SessionHandler) Get(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	sess, err := h.SessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	table, err := h.TableRepo.GetByID(ctx, sess.TableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	orders, err := h.OrderRepo.ListOpenBySession(ctx, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	noms, err := h.NominationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	orderOut := make([]echo.Map, 0, len(orders))
	for _, o := range orders {
		items := make([]echo.Map, 0, len(o.Items))
		for _, it := range o.Items {
			m := echo.Map{
				"product_id":   it.ProductID,
				"product_name": it.ProductName,
				"unit_price":   it.UnitPrice,
				"quantity":     it.Quantity,
			}
			if it.TargetCastID != nil {
				m["target_cast_id"] = *it.TargetCastID
			}
			items = append(items, m)
		}
		orderOut = append(orderOut, echo.Map{
			"order_id":   o.ID,
			"status":     o.Status,
			"created_at": o.CreatedAt.Format(time.RFC3339),
			"items":      items,
		})
	}
	nomOut := make([]echo.Map, 0, len(noms))
	for _, n := range noms {
		nomOut = append(nomOut, echo.Map{
			"nomination_id": n.ID,
			"cast_id":       n.CastID,
			"fee":           n.NominationFee,
			"created_at":    n.CreatedAt.Format(time.RFC3339),
		})
	}
	out := echo.Map{
		"session_id":      sess.ID,
		"store_id":        sess.StoreID,
		"table_id":        sess.TableID,
		"table_name":      table.Name,
		"start_at":        sess.StartAt.Format(time.RFC3339),
		"guest_count":     sess.GuestCount,
		"is_new_customer": sess.IsNewCustomer,
		"clock_state":     billing.StateOf(sess.ChargeStartedAt, sess.ChargePausedAt).String(),
		"orders":          orderOut,
		"nominations":     nomOut,
	}
	if sess.ChargeStartedAt != nil {
		out["charge_started_at"] = sess.ChargeStartedAt.Format(time.RFC3339)
	}
	if sess.ChargePausedAt != nil {
		out["charge_paused_at"] = sess.ChargePausedAt.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, out)
}

// StartCharge handles POST /v1/sessions/:id/charge/start.  It performs
// the NOT_STARTED -> RUNNING transition: the session's clock starts
// and the first ledger event opens the accruing interval at the
// table's current seat type price.
func (h *SessionHandler) StartCharge(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	tx, err := h.SessionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	sess, err := h.SessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if billing.StateOf(sess.ChargeStartedAt, sess.ChargePausedAt) != billing.ClockNotStarted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "charge already started"})
	}
	table, err := h.TableRepo.GetByID(ctx, sess.TableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seatType, err := h.SeatTypeRepo.GetByID(ctx, table.SeatTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	if err := h.SessionRepo.StartClockTx(ctx, tx, sess.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start charge clock"})
	}
	ev := &model.SeatChargeEvent{
		SessionID:     sess.ID,
		SeatTypeID:    seatType.ID,
		PriceSnapshot: seatType.PricePerUnit,
		ChangedAt:     now,
	}
	if err := h.SeatChargeRepo.AppendTx(ctx, tx, ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open charge interval"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	invalidateQuote(ctx, h.Cache, sess.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":        sess.ID,
		"clock_state":       billing.ClockRunning.String(),
		"charge_started_at": now.Format(time.RFC3339),
	})
}

// PauseCharge handles POST /v1/sessions/:id/charge/pause.  The open
// interval stops accruing at the pause instant; no ledger event is
// written.
func (h *SessionHandler) PauseCharge(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	tx, err := h.SessionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	sess, err := h.SessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if billing.StateOf(sess.ChargeStartedAt, sess.ChargePausedAt) != billing.ClockRunning {
		return c.JSON(http.StatusConflict, echo.Map{"error": "charge clock is not running"})
	}
	now := time.Now().UTC()
	if err := h.SessionRepo.PauseClockTx(ctx, tx, sess.ID, now); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to pause charge clock"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	invalidateQuote(ctx, h.Cache, sess.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":       sess.ID,
		"clock_state":      billing.ClockPaused.String(),
		"charge_paused_at": now.Format(time.RFC3339),
	})
}

// ResumeCharge handles POST /v1/sessions/:id/charge/resume.  The
// paused span is folded into the session's paused-seconds accumulator
// so billing covers running time only; the open interval keeps its
// original ledger timestamp for rounding purposes.
func (h *SessionHandler) ResumeCharge(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	tx, err := h.SessionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	sess, err := h.SessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if billing.StateOf(sess.ChargeStartedAt, sess.ChargePausedAt) != billing.ClockPaused {
		return c.JSON(http.StatusConflict, echo.Map{"error": "charge clock is not paused"})
	}
	now := time.Now().UTC()
	pausedSeconds := int64(now.Sub(*sess.ChargePausedAt) / time.Second)
	if pausedSeconds < 0 {
		pausedSeconds = 0
	}
	if err := h.SessionRepo.ResumeClockTx(ctx, tx, sess.ID, pausedSeconds); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resume charge clock"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	invalidateQuote(ctx, h.Cache, sess.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":     sess.ID,
		"clock_state":    billing.ClockRunning.String(),
		"paused_seconds": sess.ChargePausedSeconds + pausedSeconds,
	})
}

// MoveTable handles POST /v1/sessions/:id/move.  It finalizes the
// source table's open interval into a closed move-charge ledger entry,
// opens a fresh interval at the destination rate and re-targets the
// session, all in one transaction.  The move is valid only while the
// clock is RUNNING and only onto a free table; the occupancy check is
// re-validated inside the transaction because another move may land on
// the same table concurrently.
func (h *SessionHandler) MoveTable(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		TableID uint64 `json:"table_id"`
	}
	if err := c.Bind(&body); err != nil || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
	}
	ctx := c.Request().Context()
	dest, err := h.TableRepo.GetByID(ctx, body.TableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "destination table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	destSeatType, err := h.SeatTypeRepo.GetByID(ctx, dest.SeatTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.SessionRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	sess, err := h.SessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if billing.StateOf(sess.ChargeStartedAt, sess.ChargePausedAt) != billing.ClockRunning {
		return c.JSON(http.StatusConflict, echo.Map{"error": "table move requires a running charge clock"})
	}
	if dest.ID == sess.TableID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session already occupies this table"})
	}
	if err := h.SessionRepo.EnsureTableFreeTx(ctx, tx, dest.ID); err != nil {
		if errors.Is(err, repository.ErrTableOccupied) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table already has an open session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check table occupancy"})
	}

	events, err := h.SeatChargeRepo.ListBySessionTx(ctx, tx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load charge ledger"})
	}
	unitMinutes, err := h.SeatTypeRepo.UnitMinutesByID(ctx, seatTypeIDs(events))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat types"})
	}
	now := time.Now().UTC()
	quote, err := billing.Quote(ledgerOf(events), unitMinutes, nil, sess.ChargePausedSeconds, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to price open interval"})
	}

	// Close the still-open source interval as an already-priced
	// move-charge entry, 1ms before the new interval so the ledger
	// ordering stays strict.
	if quote.OpenAmount > 0 {
		srcTable, err := h.TableRepo.GetByID(ctx, sess.TableID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		moveEv := &model.SeatChargeEvent{
			SessionID:         sess.ID,
			SeatTypeID:        srcTable.SeatTypeID,
			PriceSnapshot:     quote.OpenAmount,
			ChangedAt:         now.Add(-time.Millisecond),
			IsTableMoveCharge: true,
		}
		if err := h.SeatChargeRepo.AppendTx(ctx, tx, moveEv); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record move charge"})
		}
	}
	openEv := &model.SeatChargeEvent{
		SessionID:     sess.ID,
		SeatTypeID:    destSeatType.ID,
		PriceSnapshot: destSeatType.PricePerUnit,
		ChangedAt:     now,
	}
	if err := h.SeatChargeRepo.AppendTx(ctx, tx, openEv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open charge interval"})
	}
	if err := h.SessionRepo.MoveTableTx(ctx, tx, sess.ID, dest.ID, now); err != nil {
		if errors.Is(err, repository.ErrTableOccupied) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table already has an open session"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to move session"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	invalidateQuote(ctx, h.Cache, sess.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"session_id":        sess.ID,
		"table_id":          dest.ID,
		"table_name":        dest.Name,
		"move_charge":       quote.OpenAmount,
		"charge_started_at": now.Format(time.RFC3339),
		"clock_state":       billing.ClockRunning.String(),
	})
}

// ledgerOf converts stored events into the accumulator's input form.
func ledgerOf(events []model.SeatChargeEvent) []billing.LedgerEvent {
	out := make([]billing.LedgerEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, billing.LedgerEvent{
			SeatTypeID:        ev.SeatTypeID,
			PriceSnapshot:     ev.PriceSnapshot,
			ChangedAt:         ev.ChangedAt,
			IsTableMoveCharge: ev.IsTableMoveCharge,
		})
	}
	return out
}

// seatTypeIDs collects the distinct seat types a ledger references.
func seatTypeIDs(events []model.SeatChargeEvent) []uint64 {
	seen := make(map[uint64]struct{}, len(events))
	out := make([]uint64, 0, len(events))
	for _, ev := range events {
		if _, ok := seen[ev.SeatTypeID]; ok {
			continue
		}
		seen[ev.SeatTypeID] = struct{}{}
		out = append(out, ev.SeatTypeID)
	}
	return out
}
