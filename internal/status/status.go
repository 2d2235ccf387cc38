package status

import "errors"

var (
	ErrTicketNotFound    = errors.New("ticket: not found")
	ErrDuplicateID       = errors.New("ticket: duplicate id")
	ErrStateConflict     = errors.New("ticket: state conflict")
	ErrAlreadyCheckedIn  = errors.New("ticket: already checked in")
	ErrIssuanceExhausted = errors.New("issue: id generation attempts exhausted")
	ErrStoreUnavailable  = errors.New("store: unavailable")
)
