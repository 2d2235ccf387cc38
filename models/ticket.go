package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TicketState string

const (
	TicketStateIssued    TicketState = "issued"
	TicketStateCheckedIn TicketState = "checked_in"
	TicketStateRevoked   TicketState = "revoked"
)

// PassClass values keep the event's branded names.
type PassClass string

const (
	PassOneMan     PassClass = "ONE MAN"
	PassOneLady    PassClass = "ONE LADY"
	PassFiveQueens PassClass = "FIVE QUEENS"
)

func ParsePassClass(s string) (PassClass, error) {
	switch PassClass(s) {
	case PassOneMan, PassOneLady, PassFiveQueens:
		return PassClass(s), nil
	}
	return "", fmt.Errorf("unknown pass class %q", s)
}

type Ticket struct {
	ID          string          `db:"id" json:"id"`
	HolderName  string          `db:"holder_name" json:"holder_name"`
	HolderPhone string          `db:"holder_phone" json:"holder_phone"`
	PassClass   PassClass       `db:"pass_class" json:"pass_class"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Operator    string          `db:"operator" json:"operator,omitempty"` // orange, mtn
	State       TicketState     `db:"state" json:"state"`
	IssuedAt    time.Time       `db:"issued_at" json:"issued_at"`
	CheckedInAt *time.Time      `db:"checked_in_at" json:"checked_in_at,omitempty"`
	CheckedInBy string          `db:"checked_in_by" json:"checked_in_by,omitempty"`
}

// ScanPayload is the decoded QR content. It is transient and untrusted
// until the validator verifies the signature.
type ScanPayload struct {
	TicketID   string `json:"ticket_id"`
	HolderName string `json:"holder_name"`
	PassClass  string `json:"pass_class"`
	IssuedAt   int64  `json:"issued_at"` // unix seconds
	Signature  string `json:"signature"`
}

type ScanOutcome string

const (
	OutcomeAdmit     ScanOutcome = "admit"
	OutcomeDuplicate ScanOutcome = "duplicate"
	OutcomeReject    ScanOutcome = "reject"
)

type RejectReason string

const (
	ReasonMalformed   RejectReason = "malformed"
	ReasonUnknown     RejectReason = "unknown"
	ReasonForged      RejectReason = "forged"
	ReasonRevoked     RejectReason = "revoked"
	ReasonUnavailable RejectReason = "unavailable"
)

// ScanResult is what a gate device gets back for a submitted scan.
// Duplicate results carry the original check-in details so the operator
// can see when and where the ticket was first admitted.
type ScanResult struct {
	Outcome     ScanOutcome  `json:"result"`
	Reason      RejectReason `json:"reason,omitempty"`
	TicketID    string       `json:"ticket_id,omitempty"`
	HolderName  string       `json:"holder_name,omitempty"`
	PassClass   PassClass    `json:"pass_class,omitempty"`
	CheckedInAt *time.Time   `json:"checked_in_at,omitempty"`
	CheckedInBy string       `json:"checked_in_by,omitempty"`
}
