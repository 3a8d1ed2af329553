package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-session-billing/internal/model"
	"github.com/iliyamo/table-session-billing/internal/repository"
)

// OrderHandler serves order intake and status updates.  Prices are
// snapshotted at intake; the billing engine later reads whatever is
// still open at checkout and closes it.
type OrderHandler struct {
	SessionRepo *repository.SessionRepo
	OrderRepo   *repository.OrderRepo
	CastRepo    *repository.CastRepo
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(sessionRepo *repository.SessionRepo, orderRepo *repository.OrderRepo, castRepo *repository.CastRepo) *OrderHandler {
	if sessionRepo == nil || orderRepo == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{SessionRepo: sessionRepo, OrderRepo: orderRepo, CastRepo: castRepo}
}

type orderItemRequest struct {
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	UnitPrice    int64   `json:"unit_price"`
	Quantity     int     `json:"quantity"`
	TargetCastID *uint64 `json:"target_cast_id"`
}

// Create handles POST /v1/sessions/:id/orders.  It records one round
// of items against the session in status NEW.
func (h *OrderHandler) Create(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		Items []orderItemRequest `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items must not be empty"})
	}
	for _, it := range body.Items {
		if it.ProductID == "" || it.ProductName == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id and product_name are required"})
		}
		if it.Quantity <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
		}
		if it.UnitPrice < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_price must not be negative"})
		}
	}
	ctx := c.Request().Context()
	sess, err := h.SessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	// A treat target must name a real cast member; the name itself is
	// resolved later at archival time.
	for _, it := range body.Items {
		if it.TargetCastID == nil {
			continue
		}
		if _, err := h.CastRepo.GetByID(ctx, *it.TargetCastID); err != nil {
			if errors.Is(err, repository.ErrCastNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "target cast not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}

	order := &model.Order{
		SessionID: sess.ID,
		Status:    model.OrderStatusNew,
		CreatedAt: time.Now().UTC(),
		Items:     make([]model.OrderItem, 0, len(body.Items)),
	}
	var total int64
	for _, it := range body.Items {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			UnitPrice:    it.UnitPrice,
			Quantity:     it.Quantity,
			TargetCastID: it.TargetCastID,
		})
		total += it.UnitPrice * int64(it.Quantity)
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
	if err := h.OrderRepo.CreateTx(ctx, tx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":     order.ID,
		"session_id":   order.SessionID,
		"status":       order.Status,
		"order_amount": total,
		"created_at":   order.CreatedAt.Format(time.RFC3339),
	})
}

// UpdateStatus handles PATCH /v1/orders/:id/status.  The kitchen moves
// an order one step forward along the chain or cancels it; CLOSED is
// reserved for the checkout path but accepted here from SERVED so
// staff can settle a stray round manually.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	orderID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	switch body.Status {
	case model.OrderStatusNew, model.OrderStatusAck, model.OrderStatusPrep,
		model.OrderStatusServed, model.OrderStatusClosed, model.OrderStatusCancel:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order status"})
	}
	ctx := c.Request().Context()
	order, err := h.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !model.CanTransitionOrderStatus(order.Status, body.Status) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid status transition",
			"from":  order.Status,
			"to":    body.Status,
		})
	}
	if err := h.OrderRepo.UpdateStatus(ctx, order.ID, body.Status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order status"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id": order.ID,
		"status":   body.Status,
	})
}
