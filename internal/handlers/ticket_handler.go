package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"entrypass/internal/services"
	"entrypass/internal/status"
	"entrypass/internal/store"
	"entrypass/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// Cameroon mobile numbers, with or without the country prefix.
var phonePattern = regexp.MustCompile(`^(\+237|237)?[26]\d{8}$`)

type TicketHandler struct {
	issuer *services.IssuerService
	store  store.TicketStore
}

func NewTicketHandler(issuer *services.IssuerService, ticketStore store.TicketStore) *TicketHandler {
	return &TicketHandler{
		issuer: issuer,
		store:  ticketStore,
	}
}

// Issue - intake from the booking collaborator, called once payment is
// confirmed. Returns the ticket id and the exact string to encode as QR.
func (h *TicketHandler) Issue(e *core.RequestEvent) error {
	var req struct {
		HolderName  string `json:"holder_name"`
		HolderPhone string `json:"holder_phone"`
		PassClass   string `json:"pass_class"`
		Price       string `json:"price"`
		Operator    string `json:"operator"`
	}

	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	req.HolderName = strings.TrimSpace(req.HolderName)
	if len(req.HolderName) < 3 {
		return apis.NewBadRequestError("Holder name must be at least 3 characters", nil)
	}

	phone, ok := normalizePhone(req.HolderPhone)
	if !ok {
		return apis.NewBadRequestError("Invalid phone number", nil)
	}

	passClass, err := models.ParsePassClass(req.PassClass)
	if err != nil {
		return apis.NewBadRequestError("Invalid pass class", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return apis.NewBadRequestError("Invalid price", err)
	}

	switch req.Operator {
	case "", "orange", "mtn":
	default:
		return apis.NewBadRequestError("Unknown payment operator", nil)
	}

	ticket, qrPayload, err := h.issuer.Issue(e.Request.Context(), services.IssueRequest{
		HolderName:  req.HolderName,
		HolderPhone: phone,
		PassClass:   passClass,
		Price:       price,
		Operator:    req.Operator,
	})
	if err != nil {
		if errors.Is(err, status.ErrIssuanceExhausted) {
			return apis.NewApiError(http.StatusServiceUnavailable, "Issuance temporarily unavailable", err)
		}
		return apis.NewApiError(http.StatusInternalServerError, "Failed to issue ticket", err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"ticket_id":  ticket.ID,
		"qr_payload": qrPayload,
	})
}

// Get - ticket lookup for ops tooling
func (h *TicketHandler) Get(e *core.RequestEvent) error {
	ticketID := e.Request.PathValue("ticketId")
	if ticketID == "" {
		return apis.NewBadRequestError("Ticket ID is required", nil)
	}

	ticket, err := h.store.Get(e.Request.Context(), ticketID)
	if errors.Is(err, status.ErrTicketNotFound) {
		return apis.NewNotFoundError("Ticket not found", nil)
	}
	if err != nil {
		return apis.NewApiError(http.StatusServiceUnavailable, "Ticket store unavailable", err)
	}

	return e.JSON(http.StatusOK, ticket)
}

// normalizePhone validates a Cameroon mobile number and normalizes it to
// the 237XXXXXXXXX form used for storage.
func normalizePhone(raw string) (string, bool) {
	phone := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !phonePattern.MatchString(phone) {
		return "", false
	}

	phone = strings.TrimPrefix(phone, "+")
	if !strings.HasPrefix(phone, "237") {
		phone = "237" + phone
	}
	return phone, true
}
