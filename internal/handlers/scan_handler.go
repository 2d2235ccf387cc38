package handlers

import (
	"net/http"
	"strings"

	"entrypass/internal/services"
	"entrypass/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type ScanHandler struct {
	gate *services.GateService
}

func NewScanHandler(gate *services.GateService) *ScanHandler {
	return &ScanHandler{gate: gate}
}

// Submit - intake from the scanner collaborator: the raw decoded QR string
// plus the scanning gate's identifier. The result body is the same for
// every outcome; only store unavailability changes the status code, so a
// gate that times out knows to re-query instead of assuming a verdict.
func (h *ScanHandler) Submit(e *core.RequestEvent) error {
	var req struct {
		Payload string `json:"payload"`
		GateID  string `json:"gate_id"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	req.GateID = strings.TrimSpace(req.GateID)
	if req.GateID == "" {
		return apis.NewBadRequestError("Gate ID is required", nil)
	}

	result := h.gate.Submit(e.Request.Context(), req.Payload, req.GateID)

	if result.Outcome == models.OutcomeReject && result.Reason == models.ReasonUnavailable {
		return e.JSON(http.StatusServiceUnavailable, result)
	}

	return e.JSON(http.StatusOK, result)
}
