package store

import (
	"context"
	"sync"

	"entrypass/internal/status"
	"entrypass/models"
)

// MemoryStore keeps tickets in an in-process map. All mutations for a key
// happen under the store mutex, which makes CompareAndTransition a true
// compare-and-swap: the check and the write are one critical section.
//
// It is the reference implementation of the TicketStore contract and the
// substrate for the concurrency tests; single-node deployments can run on
// it directly.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]*models.Ticket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]*models.Ticket)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, status.ErrTicketNotFound
	}

	// Callers get a copy so later transitions cannot race their reads.
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tickets[ticket.ID]; exists {
		return status.ErrDuplicateID
	}

	cp := *ticket
	s.tickets[ticket.ID] = &cp
	return nil
}

func (s *MemoryStore) CompareAndTransition(ctx context.Context, id string, expected, next models.TicketState, attrs TransitionAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[id]
	if !ok {
		return status.ErrTicketNotFound
	}

	if t.State != expected {
		return status.ErrStateConflict
	}

	t.State = next
	if next == models.TicketStateCheckedIn {
		at := attrs.CheckedInAt
		t.CheckedInAt = &at
		t.CheckedInBy = attrs.CheckedInBy
	}

	return nil
}
