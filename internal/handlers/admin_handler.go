package handlers

import (
	"errors"
	"net/http"

	"entrypass/internal/services"
	"entrypass/internal/status"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandler struct {
	app               *pocketbase.PocketBase
	validator         *services.ValidatorService
	operatorTokenHash string
}

func NewAdminHandler(app *pocketbase.PocketBase, validator *services.ValidatorService, operatorTokenHash string) *AdminHandler {
	return &AdminHandler{
		app:               app,
		validator:         validator,
		operatorTokenHash: operatorTokenHash,
	}
}

// Revoke - administrative revocation, e.g. fraud or a refund. A ticket
// that is already checked in keeps its check-in record and the call is
// rejected with a conflict.
func (h *AdminHandler) Revoke(e *core.RequestEvent) error {
	if err := h.authorize(e); err != nil {
		return err
	}

	var req struct {
		TicketID string `json:"ticket_id"`
	}

	if err := e.BindBody(&req); err != nil || req.TicketID == "" {
		return apis.NewBadRequestError("Ticket ID is required", err)
	}

	err := h.validator.Revoke(e.Request.Context(), req.TicketID)
	switch {
	case err == nil:
		return e.JSON(http.StatusOK, map[string]string{
			"ticket_id": req.TicketID,
			"state":     "revoked",
		})
	case errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError("Ticket not found", nil)
	case errors.Is(err, status.ErrAlreadyCheckedIn):
		return e.JSON(http.StatusConflict, map[string]string{
			"error": "already_checked_in",
		})
	default:
		return apis.NewApiError(http.StatusServiceUnavailable, "Ticket store unavailable", err)
	}
}

type stateCount struct {
	State string `db:"state"`
	Total int    `db:"total"`
}

// Dashboard - counts by lifecycle state for the ops view
func (h *AdminHandler) Dashboard(e *core.RequestEvent) error {
	if err := h.authorize(e); err != nil {
		return err
	}

	counts := []stateCount{}
	err := h.app.DB().
		Select("state", "COUNT(*) AS total").
		From("tickets").
		GroupBy("state").
		All(&counts)
	if err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Failed to query tickets", err)
	}

	byState := map[string]int{
		"issued":     0,
		"checked_in": 0,
		"revoked":    0,
	}
	total := 0
	for _, c := range counts {
		byState[c.State] = c.Total
		total += c.Total
	}

	return e.JSON(http.StatusOK, map[string]any{
		"by_state": byState,
		"total":    total,
	})
}

func (h *AdminHandler) authorize(e *core.RequestEvent) error {
	if h.operatorTokenHash == "" {
		return apis.NewApiError(http.StatusForbidden, "Operator access not configured", nil)
	}

	token := e.Request.Header.Get("X-Operator-Token")
	if token == "" {
		return apis.NewUnauthorizedError("Operator token required", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.operatorTokenHash), []byte(token)); err != nil {
		return apis.NewUnauthorizedError("Invalid operator token", nil)
	}

	return nil
}
