package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entrypass/internal/status"
	"entrypass/internal/store"
	"entrypass/models"
	"entrypass/monitoring"
	"entrypass/utils"

	"github.com/shopspring/decimal"
)

// IssueRequest is the validated intake from the booking collaborator.
// Issuance is assumed to happen only after the payment collaborator has
// confirmed payment; the operator field records which one was used.
type IssueRequest struct {
	HolderName  string
	HolderPhone string
	PassClass   models.PassClass
	Price       decimal.Decimal
	Operator    string
}

type IssuerService struct {
	store       store.TicketStore
	signer      *Signer
	maxAttempts int
	now         func() time.Time
}

func NewIssuerService(ticketStore store.TicketStore, signer *Signer, maxAttempts int) *IssuerService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &IssuerService{
		store:       ticketStore,
		signer:      signer,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue mints a ticket, persists it in issued state and returns it together
// with the exact string to encode into the QR symbol. A ticket is never
// returned to the caller before its insert has succeeded.
//
// Id collisions are retried transparently up to the configured attempt
// budget. Hitting the budget means the entropy source is broken; that case
// is logged as an operational alert before ErrIssuanceExhausted surfaces.
func (s *IssuerService) Issue(ctx context.Context, req IssueRequest) (*models.Ticket, string, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		id, err := utils.GenerateTicketCode()
		if err != nil {
			return nil, "", fmt.Errorf("generate ticket code: %w", err)
		}

		ticket := &models.Ticket{
			ID:          id,
			HolderName:  req.HolderName,
			HolderPhone: req.HolderPhone,
			PassClass:   req.PassClass,
			Price:       req.Price,
			Operator:    req.Operator,
			State:       models.TicketStateIssued,
			IssuedAt:    s.now().UTC().Truncate(time.Second),
		}

		err = s.store.Insert(ctx, ticket)
		if errors.Is(err, status.ErrDuplicateID) {
			slog.Warn("ticket id collision, regenerating", "id", id, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("persist ticket: %w", err)
		}

		payload, err := s.qrPayload(ticket)
		if err != nil {
			return nil, "", err
		}

		monitoring.TrackIssued(string(req.PassClass))
		slog.Info("ticket issued", "id", ticket.ID, "pass_class", ticket.PassClass)

		return ticket, payload, nil
	}

	slog.Error("issuance exhausted id generation attempts, entropy source suspect",
		"attempts", s.maxAttempts)
	return nil, "", status.ErrIssuanceExhausted
}

// QRPayload rebuilds the scannable string for an existing ticket, e.g. for
// re-sending a lost pass.
func (s *IssuerService) QRPayload(ticket *models.Ticket) (string, error) {
	return s.qrPayload(ticket)
}

func (s *IssuerService) qrPayload(ticket *models.Ticket) (string, error) {
	payload := models.ScanPayload{
		TicketID:   ticket.ID,
		HolderName: ticket.HolderName,
		PassClass:  string(ticket.PassClass),
		IssuedAt:   ticket.IssuedAt.Unix(),
		Signature:  s.signer.Sign(ticket),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode qr payload: %w", err)
	}

	return string(data), nil
}
