package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"entrypass/internal/status"
	"entrypass/internal/store"
	"entrypass/models"
	"entrypass/monitoring"
)

// ValidatorService decides admission. The decision for a ticket is a
// single compare-and-swap against the store, so two gates scanning the
// same code at the same instant resolve to exactly one admit.
type ValidatorService struct {
	store    store.TicketStore
	signer   *Signer
	notifier *GateNotifier
	now      func() time.Time
}

func NewValidatorService(ticketStore store.TicketStore, signer *Signer, notifier *GateNotifier) *ValidatorService {
	return &ValidatorService{
		store:    ticketStore,
		signer:   signer,
		notifier: notifier,
		now:      time.Now,
	}
}

// Validate runs the full admission protocol for one decoded scan.
//
// Re-submitting the same payload after an admit always comes back as a
// duplicate, never a second admit and never a reject: an already-used
// ticket is an expected operator-visible outcome, not an attack.
func (v *ValidatorService) Validate(ctx context.Context, rawPayload, gateID string) models.ScanResult {
	start := v.now()
	result := v.validate(ctx, rawPayload, gateID)

	monitoring.TrackValidation(string(result.Outcome), string(result.Reason), gateID)
	monitoring.ObserveValidateDuration(string(result.Outcome), v.now().Sub(start))

	return result
}

func (v *ValidatorService) validate(ctx context.Context, rawPayload, gateID string) models.ScanResult {
	payload, ok := parseScanPayload(rawPayload)
	if !ok {
		slog.Info("malformed scan payload", "gate_id", gateID)
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonMalformed}
	}

	ticket, err := v.store.Get(ctx, payload.TicketID)
	if errors.Is(err, status.ErrTicketNotFound) {
		slog.Info("scan for unknown ticket", "ticket_id", payload.TicketID, "gate_id", gateID)
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonUnknown, TicketID: payload.TicketID}
	}
	if err != nil {
		// Fail closed: without the store there is no atomic decision,
		// and admitting without one reopens the double-admission race.
		slog.Error("ticket store unavailable during validation", "error", err, "gate_id", gateID)
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonUnavailable, TicketID: payload.TicketID}
	}

	if !v.authentic(ticket, payload) {
		slog.Warn("forged or altered scan payload flagged for review",
			"ticket_id", payload.TicketID, "gate_id", gateID)
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonForged, TicketID: payload.TicketID}
	}

	switch ticket.State {
	case models.TicketStateRevoked:
		slog.Warn("revoked ticket presented at gate", "ticket_id", ticket.ID, "gate_id", gateID)
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonRevoked, TicketID: ticket.ID}
	case models.TicketStateCheckedIn:
		return duplicateResult(ticket)
	}

	attrs := store.TransitionAttrs{CheckedInAt: v.now().UTC(), CheckedInBy: gateID}
	err = v.store.CompareAndTransition(ctx, ticket.ID, models.TicketStateIssued, models.TicketStateCheckedIn, attrs)
	switch {
	case err == nil:
		ticket.State = models.TicketStateCheckedIn
		ticket.CheckedInAt = &attrs.CheckedInAt
		ticket.CheckedInBy = attrs.CheckedInBy

		// Notification happens after the transition has committed, never
		// inside it.
		if v.notifier != nil {
			go v.notifier.PublishCheckIn(ticket, gateID)
		}

		slog.Info("ticket admitted", "ticket_id", ticket.ID, "gate_id", gateID)
		return models.ScanResult{
			Outcome:     models.OutcomeAdmit,
			TicketID:    ticket.ID,
			HolderName:  ticket.HolderName,
			PassClass:   ticket.PassClass,
			CheckedInAt: ticket.CheckedInAt,
			CheckedInBy: ticket.CheckedInBy,
		}
	case errors.Is(err, status.ErrStateConflict):
		// Another gate won the race; report the committed check-in.
		if committed, getErr := v.store.Get(ctx, ticket.ID); getErr == nil {
			if committed.State == models.TicketStateRevoked {
				return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonRevoked, TicketID: ticket.ID}
			}
			return duplicateResult(committed)
		}
		return duplicateResult(ticket)
	case errors.Is(err, status.ErrTicketNotFound):
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonUnknown, TicketID: ticket.ID}
	default:
		slog.Error("ticket store unavailable during transition", "error", err, "ticket_id", ticket.ID)
		return models.ScanResult{Outcome: models.OutcomeReject, Reason: models.ReasonUnavailable, TicketID: ticket.ID}
	}
}

// Revoke moves an issued ticket to revoked, e.g. after fraud or a refund.
// A ticket that has already been checked in keeps its recorded check-in
// data and the call fails with ErrAlreadyCheckedIn. Revoking an already
// revoked ticket is a no-op.
func (v *ValidatorService) Revoke(ctx context.Context, ticketID string) error {
	ticket, err := v.store.Get(ctx, ticketID)
	if err != nil {
		return err
	}

	switch ticket.State {
	case models.TicketStateCheckedIn:
		return status.ErrAlreadyCheckedIn
	case models.TicketStateRevoked:
		return nil
	}

	err = v.store.CompareAndTransition(ctx, ticketID, models.TicketStateIssued, models.TicketStateRevoked, store.TransitionAttrs{})
	if errors.Is(err, status.ErrStateConflict) {
		// Lost a race with a gate or another revoke; re-read for the verdict.
		committed, getErr := v.store.Get(ctx, ticketID)
		if getErr != nil {
			return getErr
		}
		if committed.State == models.TicketStateCheckedIn {
			return status.ErrAlreadyCheckedIn
		}
		return nil
	}
	if err != nil {
		return err
	}

	monitoring.TrackRevoked()
	slog.Info("ticket revoked", "ticket_id", ticketID)
	return nil
}

// authentic recomputes the signature from the stored immutable fields and
// cross-checks the metadata echoed in the payload. Either a bad signature
// or drifted metadata means the payload was not produced by this issuer as
// presented.
func (v *ValidatorService) authentic(ticket *models.Ticket, payload models.ScanPayload) bool {
	if !v.signer.Verify(ticket, payload.Signature) {
		return false
	}
	if payload.HolderName != ticket.HolderName {
		return false
	}
	if payload.PassClass != string(ticket.PassClass) {
		return false
	}
	if payload.IssuedAt != ticket.IssuedAt.Unix() {
		return false
	}
	return true
}

func parseScanPayload(raw string) (models.ScanPayload, bool) {
	var payload models.ScanPayload

	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "{") {
		// Covers legacy "DT-" paper codes, which carry no signature.
		return payload, false
	}

	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, false
	}
	if payload.TicketID == "" || payload.Signature == "" {
		return payload, false
	}

	return payload, true
}

func duplicateResult(ticket *models.Ticket) models.ScanResult {
	return models.ScanResult{
		Outcome:     models.OutcomeDuplicate,
		TicketID:    ticket.ID,
		HolderName:  ticket.HolderName,
		PassClass:   ticket.PassClass,
		CheckedInAt: ticket.CheckedInAt,
		CheckedInBy: ticket.CheckedInBy,
	}
}
