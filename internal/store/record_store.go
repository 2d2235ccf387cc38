package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"entrypass/internal/status"
	"entrypass/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// RecordStore persists tickets in the PocketBase "tickets" collection.
//
// CompareAndTransition relies on a single conditional UPDATE whose WHERE
// clause includes the expected state; SQLite serializes writers, so at most
// one concurrent caller sees a non-zero rows-affected count. Swapping this
// for MemoryStore (or any backend with the same conditional-write
// guarantee) is invisible to the validator.
type RecordStore struct {
	app core.App
}

func NewRecordStore(app core.App) *RecordStore {
	return &RecordStore{app: app}
}

type ticketRow struct {
	ID          string `db:"id"`
	HolderName  string `db:"holder_name"`
	HolderPhone string `db:"holder_phone"`
	PassClass   string `db:"pass_class"`
	Price       string `db:"price"`
	Operator    string `db:"operator"`
	State       string `db:"state"`
	IssuedAt    string `db:"issued_at"`
	CheckedInAt string `db:"checked_in_at"`
	CheckedInBy string `db:"checked_in_by"`
}

func (s *RecordStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	row := ticketRow{}
	err := s.app.DB().
		Select(
			"id",
			"holder_name",
			"holder_phone",
			"pass_class",
			"price",
			"operator",
			"state",
			"issued_at",
			"checked_in_at",
			"checked_in_by",
		).
		From("tickets").
		Where(dbx.HashExp{"id": id}).
		WithContext(ctx).
		One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get ticket: %v", status.ErrStoreUnavailable, err)
	}

	return row.toTicket()
}

func (s *RecordStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	params := dbx.Params{
		"id":            ticket.ID,
		"holder_name":   ticket.HolderName,
		"holder_phone":  ticket.HolderPhone,
		"pass_class":    string(ticket.PassClass),
		"price":         ticket.Price.String(),
		"operator":      ticket.Operator,
		"state":         string(ticket.State),
		"issued_at":     ticket.IssuedAt.UTC().Format(time.RFC3339Nano),
		"checked_in_at": "",
		"checked_in_by": "",
	}

	_, err := s.app.DB().Insert("tickets", params).WithContext(ctx).Execute()
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return status.ErrDuplicateID
		}
		return fmt.Errorf("%w: insert ticket: %v", status.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *RecordStore) CompareAndTransition(ctx context.Context, id string, expected, next models.TicketState, attrs TransitionAttrs) error {
	params := dbx.Params{"state": string(next)}
	if next == models.TicketStateCheckedIn {
		params["checked_in_at"] = attrs.CheckedInAt.UTC().Format(time.RFC3339Nano)
		params["checked_in_by"] = attrs.CheckedInBy
	}

	res, err := s.app.DB().
		Update("tickets", params, dbx.HashExp{"id": id, "state": string(expected)}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return fmt.Errorf("%w: transition ticket: %v", status.ErrStoreUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: transition ticket: %v", status.ErrStoreUnavailable, err)
	}
	if affected > 0 {
		return nil
	}

	// Zero rows: either the ticket does not exist or another caller already
	// moved it out of the expected state. Re-read to tell the two apart.
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return status.ErrStateConflict
}

func (r *ticketRow) toTicket() (*models.Ticket, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, fmt.Errorf("parse stored price %q: %w", r.Price, err)
	}

	issuedAt, err := time.Parse(time.RFC3339Nano, r.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("parse stored issued_at %q: %w", r.IssuedAt, err)
	}

	t := &models.Ticket{
		ID:          r.ID,
		HolderName:  r.HolderName,
		HolderPhone: r.HolderPhone,
		PassClass:   models.PassClass(r.PassClass),
		Price:       price,
		Operator:    r.Operator,
		State:       models.TicketState(r.State),
		CheckedInBy: r.CheckedInBy,
		IssuedAt:    issuedAt,
	}

	if r.CheckedInAt != "" {
		at, err := time.Parse(time.RFC3339Nano, r.CheckedInAt)
		if err != nil {
			return nil, fmt.Errorf("parse stored checked_in_at %q: %w", r.CheckedInAt, err)
		}
		t.CheckedInAt = &at
	}

	return t, nil
}
