package store

import (
	"context"
	"time"

	"entrypass/models"
)

// TransitionAttrs carries the attributes set on the issued -> checked_in
// transition. They are written atomically with the state change and are
// immutable afterwards.
type TransitionAttrs struct {
	CheckedInAt time.Time
	CheckedInBy string
}

// TicketStore is the single source of truth for ticket lifecycle state.
//
// CompareAndTransition is the only mutating entry point for check-in and
// revocation. Implementations must guarantee that for a given id no two
// concurrent calls can both observe the expected state and both succeed:
// the update is a conditional compare-and-swap on the state column.
type TicketStore interface {
	Get(ctx context.Context, id string) (*models.Ticket, error)
	Insert(ctx context.Context, ticket *models.Ticket) error
	CompareAndTransition(ctx context.Context, id string, expected, next models.TicketState, attrs TransitionAttrs) error
}
