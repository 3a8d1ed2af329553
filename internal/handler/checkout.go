package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/table-session-billing/internal/billing"
	"github.com/iliyamo/table-session-billing/internal/model"
	"github.com/iliyamo/table-session-billing/internal/pos"
	queue "github.com/iliyamo/table-session-billing/internal/queue"
	"github.com/iliyamo/table-session-billing/internal/repository"
	publisher "github.com/iliyamo/table-session-billing/internal/service"
)

// CheckoutHandler serves the charge quote and the checkout itself.
//
// A checkout has two tiers of work.  Revenue-critical steps (loading
// the session, pricing the ledger, persisting the checkout row,
// closing the billed orders and deleting the session) run in a single
// transaction under the session's FOR UPDATE lease: they all commit or
// none do, and a concurrent checkout either waits on the lease or
// finds the session gone.  Best-effort steps (POS sync, archival, the
// queue event) run only after that commit via checkoutFinisher; their
// failures are logged, reported as warnings and never alter the
// success response.
type CheckoutHandler struct {
	SessionRepo    *repository.SessionRepo
	TableRepo      *repository.TableRepo
	SeatTypeRepo   *repository.SeatTypeRepo
	SeatChargeRepo *repository.SeatChargeRepo
	OrderRepo      *repository.OrderRepo
	NominationRepo *repository.NominationRepo
	CastRepo       *repository.CastRepo
	StoreRepo      *repository.StoreRepo
	CheckoutRepo   *repository.CheckoutRepo
	HistoryRepo    *repository.HistoryRepo
	Pos            *pos.Client
	Cache          *redis.Client
}

// NewCheckoutHandler constructs a CheckoutHandler.  Pos and Cache may
// be nil; POS sync is additionally gated per store.
func NewCheckoutHandler(sessionRepo *repository.SessionRepo, tableRepo *repository.TableRepo, seatTypeRepo *repository.SeatTypeRepo, seatChargeRepo *repository.SeatChargeRepo, orderRepo *repository.OrderRepo, nominationRepo *repository.NominationRepo, castRepo *repository.CastRepo, storeRepo *repository.StoreRepo, checkoutRepo *repository.CheckoutRepo, historyRepo *repository.HistoryRepo, posClient *pos.Client, cache *redis.Client) *CheckoutHandler {
	if sessionRepo == nil || seatChargeRepo == nil || orderRepo == nil || nominationRepo == nil || checkoutRepo == nil || historyRepo == nil {
		panic("nil repository passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{
		SessionRepo:    sessionRepo,
		TableRepo:      tableRepo,
		SeatTypeRepo:   seatTypeRepo,
		SeatChargeRepo: seatChargeRepo,
		OrderRepo:      orderRepo,
		NominationRepo: nominationRepo,
		CastRepo:       castRepo,
		StoreRepo:      storeRepo,
		CheckoutRepo:   checkoutRepo,
		HistoryRepo:    historyRepo,
		Pos:            posClient,
		Cache:          cache,
	}
}

// GetCharge handles GET /v1/sessions/:id/charge.  It returns the
// charge currently owed, serving a short-lived cached copy when one
// exists; the accumulator itself is pure so repeated calls with no
// intervening mutation agree.
func (h *CheckoutHandler) GetCharge(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	if h.Cache != nil {
		if cached, err := h.Cache.Get(ctx, quoteCacheKey(sessionID)).Bytes(); err == nil {
			return c.JSONBlob(http.StatusOK, cached)
		}
	}
	sess, err := h.SessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	events, err := h.SeatChargeRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load charge ledger"})
	}
	unitMinutes, err := h.SeatTypeRepo.UnitMinutesByID(ctx, seatTypeIDs(events))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat types"})
	}
	now := time.Now().UTC()
	quote, err := billing.Quote(ledgerOf(events), unitMinutes, sess.ChargePausedAt, sess.ChargePausedSeconds, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute charge"})
	}
	out := echo.Map{
		"session_id":    sess.ID,
		"clock_state":   billing.StateOf(sess.ChargeStartedAt, sess.ChargePausedAt).String(),
		"charge_amount": quote.TotalAmount,
		"closed_amount": quote.ClosedAmount,
		"open_amount":   quote.OpenAmount,
		"open_units":    quote.OpenUnits,
		"as_of":         now.Format(time.RFC3339),
	}
	if h.Cache != nil {
		if body, err := json.Marshal(out); err == nil {
			_ = h.Cache.Set(ctx, quoteCacheKey(sessionID), body, chargeQuoteTTL).Err()
		}
	}
	return c.JSON(http.StatusOK, out)
}

// billedNomination is one nomination included in the checkout, either
// a captured row or the single synthetic entry produced by the legacy
// selected-cast fallback.
type billedNomination struct {
	CastID uint64
	Fee    int64
}

// posRegistrar is the slice of pos.Client the post-commit tier uses.
type posRegistrar interface {
	RegisterTransaction(ctx context.Context, storeID string, tran *pos.Transaction) (string, error)
}

// checkoutCompleter performs the terminal status update on a checkout.
type checkoutCompleter interface {
	MarkCompleted(ctx context.Context, id uint64, receiptID *string) error
}

// checkoutArchiver writes the denormalized reporting copies.
type checkoutArchiver interface {
	CreateHistory(ctx context.Context, h *model.CheckoutHistory) error
	AddOrderItems(ctx context.Context, items []model.CheckoutOrderItem) error
	AddNominations(ctx context.Context, noms []model.CheckoutNomination) error
}

// checkoutFinisher is the post-commit tier of a checkout.  By the time
// it runs the guest has been charged and that fact is durable, so
// every step is best-effort: a failure is logged and reported as a
// warning, and later steps still run.  pos is nil when the store has
// POS sync disabled or no client is configured.
type checkoutFinisher struct {
	pos       posRegistrar
	posStore  string
	completer checkoutCompleter
	archiver  checkoutArchiver
	publish   func(context.Context, queue.CheckoutCompletedEvent) error
}

// run executes the tier in order: POS attempt, terminal status update,
// archival, event publication.  It returns the POS receipt id (nil
// when sync failed or was skipped) and the accumulated warnings.
func (f *checkoutFinisher) run(ctx context.Context, checkoutID uint64, tran *pos.Transaction, history *model.CheckoutHistory, items []model.CheckoutOrderItem, noms []model.CheckoutNomination, event queue.CheckoutCompletedEvent) (*string, []string) {
	warnings := make([]string, 0, 2)

	var receiptID *string
	if f.pos != nil && tran != nil {
		if ref, err := f.pos.RegisterTransaction(ctx, f.posStore, tran); err != nil {
			log.Printf("checkout %d: pos sync failed: %v", checkoutID, err)
			warnings = append(warnings, "pos sync failed")
		} else {
			receiptID = &ref
		}
	}
	// COMPLETED is the terminal state whether or not the provider
	// answered; a missing receipt id records the failed attempt.
	if err := f.completer.MarkCompleted(ctx, checkoutID, receiptID); err != nil {
		log.Printf("checkout %d: marking completed failed: %v", checkoutID, err)
		warnings = append(warnings, "checkout status update failed")
	}
	if err := f.archive(ctx, history, items, noms); err != nil {
		log.Printf("checkout %d: archival failed: %v", checkoutID, err)
		warnings = append(warnings, "archival failed")
	}
	if receiptID != nil {
		event.PosReceiptID = *receiptID
	}
	if err := f.publish(ctx, event); err != nil {
		warnings = append(warnings, "event publish failed")
	}
	return receiptID, warnings
}

func (f *checkoutFinisher) archive(ctx context.Context, history *model.CheckoutHistory, items []model.CheckoutOrderItem, noms []model.CheckoutNomination) error {
	if err := f.archiver.CreateHistory(ctx, history); err != nil {
		return err
	}
	if err := f.archiver.AddOrderItems(ctx, items); err != nil {
		return err
	}
	return f.archiver.AddNominations(ctx, noms)
}

// Checkout handles POST /v1/sessions/:id/checkout.  On success the
// session no longer exists, so a repeated call observes 404.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
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

	// The lease serializes this checkout against pause/resume/move and
	// against a concurrent checkout for the same session.
	sess, err := h.SessionRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	store, err := h.StoreRepo.GetByID(ctx, sess.StoreID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load store configuration"})
	}
	table, err := h.TableRepo.GetByID(ctx, sess.TableID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seatType, err := h.SeatTypeRepo.GetByID(ctx, table.SeatTypeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Order totals: everything not yet CLOSED or CANCEL is billed.
	orders, err := h.OrderRepo.ListOpenBySessionTx(ctx, tx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load orders"})
	}
	var orderAmount int64
	orderIDs := make([]uint64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		for _, it := range o.Items {
			orderAmount += it.UnitPrice * int64(it.Quantity)
		}
	}

	// Table charge from the ledger.  This is the revenue-critical
	// computation: any failure aborts with no writes.
	events, err := h.SeatChargeRepo.ListBySessionTx(ctx, tx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load charge ledger"})
	}
	unitMinutes, err := h.SeatTypeRepo.UnitMinutesByID(ctx, seatTypeIDs(events))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat types"})
	}
	now := time.Now().UTC()
	quote, err := billing.Quote(ledgerOf(events), unitMinutes, sess.ChargePausedAt, sess.ChargePausedSeconds, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute table charge"})
	}
	chargeAmount := quote.TotalAmount

	// Nomination fees: captured rows, or the legacy single selected
	// cast when no rows exist.
	noms, err := h.NominationRepo.ListBySessionTx(ctx, tx, sess.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load nominations"})
	}
	billedNoms := make([]billedNomination, 0, len(noms))
	for _, n := range noms {
		billedNoms = append(billedNoms, billedNomination{CastID: n.CastID, Fee: n.NominationFee})
	}
	if len(billedNoms) == 0 && sess.SelectedCastID != nil {
		cast, err := h.CastRepo.GetByID(ctx, *sess.SelectedCastID)
		if err != nil && !errors.Is(err, repository.ErrCastNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve selected cast"})
		}
		if cast != nil && cast.NominationFee > 0 {
			billedNoms = append(billedNoms, billedNomination{CastID: cast.ID, Fee: cast.NominationFee})
		}
	}
	var nominationFee int64
	for _, n := range billedNoms {
		nominationFee += n.Fee
	}

	totalAmount := orderAmount + chargeAmount + nominationFee
	subtotal, tax := billing.SplitInclusiveTax(totalAmount, store.TaxRatePercent)

	// stayMinutes runs from the ledger's original first-seated time,
	// not the table-move-reset display clock.
	firstSeated := sess.StartAt
	if len(events) > 0 {
		firstSeated = events[0].ChangedAt
	}
	stayMinutes := int(now.Sub(firstSeated) / time.Minute)
	if stayMinutes < 0 {
		stayMinutes = 0
	}

	checkout := &model.Checkout{
		SessionID:     sess.ID,
		StoreID:       sess.StoreID,
		TotalAmount:   totalAmount,
		ChargeAmount:  chargeAmount,
		OrderAmount:   orderAmount,
		NominationFee: nominationFee,
		Status:        model.CheckoutStatusPending,
		CreatedAt:     now,
	}
	if err := h.CheckoutRepo.CreateTx(ctx, tx, checkout); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to persist checkout"})
	}
	if err := h.OrderRepo.CloseTx(ctx, tx, orderIDs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to close orders"})
	}
	// The ledger and nominations go with the session; the checkout row
	// and the archival copies are the durable record from here on.
	if err := h.SeatChargeRepo.DeleteBySessionTx(ctx, tx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear charge ledger"})
	}
	if err := h.NominationRepo.DeleteBySessionTx(ctx, tx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clear nominations"})
	}
	if err := h.SessionRepo.DeleteTx(ctx, tx, sess.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to close session"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit checkout"})
	}
	committed = true
	invalidateQuote(ctx, h.Cache, sess.ID)

	// Name resolution for the receipt, the POS payload and the archival
	// copies.  Best-effort like everything below: a lookup failure
	// degrades to an empty name.
	nomOut := make([]echo.Map, 0, len(billedNoms))
	posNoms := make([]pos.NominationFact, 0, len(billedNoms))
	historyID := uuid.NewString()
	archNoms := make([]model.CheckoutNomination, 0, len(billedNoms))
	for _, n := range billedNoms {
		name, err := h.CastRepo.DisplayName(ctx, n.CastID)
		if err != nil {
			log.Printf("checkout: resolving cast %d name failed: %v", n.CastID, err)
		}
		nomOut = append(nomOut, echo.Map{"cast_id": n.CastID, "cast_name": name, "fee": n.Fee})
		posNoms = append(posNoms, pos.NominationFact{CastID: n.CastID, CastName: name, Fee: n.Fee})
		archNoms = append(archNoms, model.CheckoutNomination{HistoryID: historyID, CastName: name, Fee: n.Fee})
	}
	archItems := make([]model.CheckoutOrderItem, 0)
	for _, o := range orders {
		for _, it := range o.Items {
			arch := model.CheckoutOrderItem{
				HistoryID:   historyID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
				OrderedAt:   o.CreatedAt,
			}
			if it.TargetCastID != nil {
				name, err := h.CastRepo.DisplayName(ctx, *it.TargetCastID)
				if err != nil {
					log.Printf("checkout: resolving treat cast %d failed: %v", *it.TargetCastID, err)
				} else if name != "" {
					arch.TreatCastName = &name
				}
			}
			archItems = append(archItems, arch)
		}
	}
	history := &model.CheckoutHistory{
		HistoryID:      historyID,
		CheckoutID:     checkout.ID,
		StoreID:        sess.StoreID,
		SessionID:      sess.ID,
		TableName:      table.Name,
		SeatTypeName:   seatType.Name,
		GuestCount:     sess.GuestCount,
		IsNewCustomer:  sess.IsNewCustomer,
		ChargeAmount:   chargeAmount,
		OrderAmount:    orderAmount,
		NominationFee:  nominationFee,
		TotalAmount:    totalAmount,
		SubtotalAmount: subtotal,
		TaxAmount:      tax,
		TaxRatePercent: store.TaxRatePercent,
		StayMinutes:    stayMinutes,
		CheckoutAt:     now,
	}

	fin := &checkoutFinisher{
		completer: h.CheckoutRepo,
		archiver:  h.HistoryRepo,
		publish:   publisher.PublishCheckoutCompleted,
	}
	var tran *pos.Transaction
	if store.PosEnabled && h.Pos != nil {
		fin.pos = h.Pos
		fin.posStore = store.PosStoreID
		items := make([]pos.ItemFact, 0)
		for _, o := range orders {
			for _, it := range o.Items {
				items = append(items, pos.ItemFact{
					ProductID:   it.ProductID,
					ProductName: it.ProductName,
					UnitPrice:   it.UnitPrice,
					Quantity:    it.Quantity,
				})
			}
		}
		tran = pos.BuildTransaction(pos.TransactionFacts{
			TableID:      table.ID,
			TableName:    table.Name,
			Subtotal:     subtotal,
			Total:        totalAmount,
			ChargeAmount: chargeAmount,
			Items:        items,
			Nominations:  posNoms,
		}, time.Now())
	}
	event := queue.CheckoutCompletedEvent{
		CheckoutID:    checkout.ID,
		HistoryID:     historyID,
		StoreID:       sess.StoreID,
		SessionID:     sess.ID,
		TableName:     table.Name,
		SeatTypeName:  seatType.Name,
		GuestCount:    sess.GuestCount,
		ChargeAmount:  chargeAmount,
		OrderAmount:   orderAmount,
		NominationFee: nominationFee,
		TotalAmount:   totalAmount,
		StayMinutes:   stayMinutes,
		CheckoutAt:    now.Format(time.RFC3339),
	}
	receiptID, warnings := fin.run(ctx, checkout.ID, tran, history, archItems, archNoms, event)

	out := echo.Map{
		"checkout_id":      checkout.ID,
		"total_amount":     totalAmount,
		"subtotal_amount":  subtotal,
		"tax_amount":       tax,
		"tax_rate_percent": store.TaxRatePercent,
		"charge_amount":    chargeAmount,
		"order_amount":     orderAmount,
		"nomination_fee":   nominationFee,
		"nominations":      nomOut,
		"guest_count":      sess.GuestCount,
	}
	if receiptID != nil {
		out["pos_receipt_id"] = *receiptID
	}
	if len(warnings) > 0 {
		out["warnings"] = warnings
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/checkouts/:id.  It returns the permanent
// revenue record, including the POS receipt reference when the sync
// succeeded.
func (h *CheckoutHandler) Get(c echo.Context) error {
	checkoutID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid checkout id"})
	}
	ctx := c.Request().Context()
	co, err := h.CheckoutRepo.GetByID(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrCheckoutNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "checkout not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := echo.Map{
		"checkout_id":    co.ID,
		"session_id":     co.SessionID,
		"store_id":       co.StoreID,
		"total_amount":   co.TotalAmount,
		"charge_amount":  co.ChargeAmount,
		"order_amount":   co.OrderAmount,
		"nomination_fee": co.NominationFee,
		"status":         co.Status,
		"created_at":     co.CreatedAt.Format(time.RFC3339),
	}
	if co.PosReceiptID != nil {
		out["pos_receipt_id"] = *co.PosReceiptID
	}
	return c.JSON(http.StatusOK, out)
}

// ListHistory handles GET /v1/stores/:id/checkouts.  It pages through
// the archival copies, newest first.
func (h *CheckoutHandler) ListHistory(c echo.Context) error {
	storeID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid store id"})
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx := c.Request().Context()
	histories, err := h.HistoryRepo.ListHistoryByStore(ctx, storeID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load checkout history"})
	}
	out := make([]echo.Map, 0, len(histories))
	for _, hist := range histories {
		out = append(out, echo.Map{
			"history_id":       hist.HistoryID,
			"checkout_id":      hist.CheckoutID,
			"session_id":       hist.SessionID,
			"table_name":       hist.TableName,
			"seat_type_name":   hist.SeatTypeName,
			"guest_count":      hist.GuestCount,
			"is_new_customer":  hist.IsNewCustomer,
			"charge_amount":    hist.ChargeAmount,
			"order_amount":     hist.OrderAmount,
			"nomination_fee":   hist.NominationFee,
			"total_amount":     hist.TotalAmount,
			"subtotal_amount":  hist.SubtotalAmount,
			"tax_amount":       hist.TaxAmount,
			"tax_rate_percent": hist.TaxRatePercent,
			"stay_minutes":     hist.StayMinutes,
			"checkout_at":      hist.CheckoutAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"store_id": storeID, "checkouts": out})
}
