package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-session-billing/internal/model"
	"github.com/iliyamo/table-session-billing/internal/repository"
)

// NominationHandler captures nominations against an open session.  The
// fee is snapshotted from the cast member's current rate so a later
// rate change cannot alter what this party owes.
type NominationHandler struct {
	SessionRepo    *repository.SessionRepo
	NominationRepo *repository.NominationRepo
	CastRepo       *repository.CastRepo
}

// NewNominationHandler constructs a NominationHandler.
func NewNominationHandler(sessionRepo *repository.SessionRepo, nominationRepo *repository.NominationRepo, castRepo *repository.CastRepo) *NominationHandler {
	if sessionRepo == nil || nominationRepo == nil || castRepo == nil {
		panic("nil repository passed to NewNominationHandler")
	}
	return &NominationHandler{SessionRepo: sessionRepo, NominationRepo: nominationRepo, CastRepo: castRepo}
}

// Create handles POST /v1/sessions/:id/nominations.
func (h *NominationHandler) Create(c echo.Context) error {
	sessionID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		CastID uint64 `json:"cast_id"`
	}
	if err := c.Bind(&body); err != nil || body.CastID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cast_id is required"})
	}
	ctx := c.Request().Context()
	sess, err := h.SessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cast, err := h.CastRepo.GetByID(ctx, body.CastID)
	if err != nil {
		if errors.Is(err, repository.ErrCastNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cast not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	nom := &model.Nomination{
		SessionID:     sess.ID,
		CastID:        cast.ID,
		NominationFee: cast.NominationFee,
		CreatedAt:     time.Now().UTC(),
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
	if err := h.NominationRepo.CreateTx(ctx, tx, nom); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create nomination"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"nomination_id": nom.ID,
		"session_id":    nom.SessionID,
		"cast_id":       nom.CastID,
		"fee":           nom.NominationFee,
		"created_at":    nom.CreatedAt.Format(time.RFC3339),
	})
}
