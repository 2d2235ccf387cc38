package services

import (
	"context"
	"encoding/json"
	"testing"

	"entrypass/internal/status"
	"entrypass/internal/store"
	"entrypass/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collidingStore forces a number of duplicate-id rejections before
// delegating to the real store.
type collidingStore struct {
	*store.MemoryStore
	collisions int
}

func (s *collidingStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	if s.collisions > 0 {
		s.collisions--
		return status.ErrDuplicateID
	}
	return s.MemoryStore.Insert(ctx, ticket)
}

func TestIssuer_PersistsBeforeReturning(t *testing.T) {
	issuer, _, memStore := setupTestServices(t)
	ticket, _ := issueTestTicket(t, issuer)

	stored, err := memStore.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStateIssued, stored.State)
	assert.Equal(t, "Jean Dupont", stored.HolderName)
	assert.Equal(t, "237650123456", stored.HolderPhone)
	assert.Equal(t, models.PassOneMan, stored.PassClass)
	assert.True(t, stored.Price.Equal(decimal.NewFromInt(10000)))
	assert.Nil(t, stored.CheckedInAt)
}

func TestIssuer_QRPayloadShape(t *testing.T) {
	issuer, _, _ := setupTestServices(t)
	ticket, qrPayload := issueTestTicket(t, issuer)

	var payload models.ScanPayload
	require.NoError(t, json.Unmarshal([]byte(qrPayload), &payload))

	assert.Equal(t, ticket.ID, payload.TicketID)
	assert.Equal(t, "Jean Dupont", payload.HolderName)
	assert.Equal(t, "ONE MAN", payload.PassClass)
	assert.Equal(t, ticket.IssuedAt.Unix(), payload.IssuedAt)
	assert.NotEmpty(t, payload.Signature)
}

func TestIssuer_RetriesIdCollisions(t *testing.T) {
	colliding := &collidingStore{MemoryStore: store.NewMemoryStore(), collisions: 2}
	signer := NewSigner("test-signing-key")
	issuer := NewIssuerService(colliding, signer, 3)

	ticket, qrPayload, err := issuer.Issue(context.Background(), IssueRequest{
		HolderName:  "Awa Ndiaye",
		HolderPhone: "237670000000",
		PassClass:   models.PassOneLady,
		Price:       decimal.NewFromInt(10000),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, qrPayload)

	stored, err := colliding.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStateIssued, stored.State)
}

func TestIssuer_ExhaustsAttempts(t *testing.T) {
	colliding := &collidingStore{MemoryStore: store.NewMemoryStore(), collisions: 10}
	signer := NewSigner("test-signing-key")
	issuer := NewIssuerService(colliding, signer, 3)

	_, _, err := issuer.Issue(context.Background(), IssueRequest{
		HolderName:  "Awa Ndiaye",
		HolderPhone: "237670000000",
		PassClass:   models.PassFiveQueens,
		Price:       decimal.NewFromInt(45000),
	})

	assert.ErrorIs(t, err, status.ErrIssuanceExhausted)
}

func TestIssuer_DistinctIdsAcrossIssues(t *testing.T) {
	issuer, _, _ := setupTestServices(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ticket, _, err := issuer.Issue(context.Background(), IssueRequest{
			HolderName:  "Jean Dupont",
			HolderPhone: "237650123456",
			PassClass:   models.PassOneMan,
			Price:       decimal.NewFromInt(10000),
		})
		require.NoError(t, err)
		require.False(t, seen[ticket.ID], "duplicate id %s", ticket.ID)
		seen[ticket.ID] = true
	}
}
