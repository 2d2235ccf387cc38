package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"entrypass/models"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestGateService(t *testing.T, window time.Duration) (*GateService, redismock.ClientMock, *IssuerService, *ValidatorService) {
	t.Helper()

	db, mock := redismock.NewClientMock()
	issuer, validator, _ := setupTestServices(t)
	gate := NewGateService(db, validator, window)

	return gate, mock, issuer, validator
}

func TestGateService_FirstScanValidatesAndCaches(t *testing.T) {
	window := 2 * time.Second
	gate, mock, issuer, validator := setupTestGateService(t, window)

	fixedNow := time.Date(2025, 9, 1, 19, 30, 0, 0, time.UTC)
	validator.now = func() time.Time { return fixedNow }

	ticket, qrPayload := issueTestTicket(t, issuer)
	key := debounceKey("Gate-1", qrPayload)

	checkedInAt := fixedNow.UTC()
	expected := models.ScanResult{
		Outcome:     models.OutcomeAdmit,
		TicketID:    ticket.ID,
		HolderName:  "Jean Dupont",
		PassClass:   models.PassOneMan,
		CheckedInAt: &checkedInAt,
		CheckedInBy: "Gate-1",
	}
	expectedData, err := json.Marshal(expected)
	require.NoError(t, err)

	mock.ExpectSetNX(key, debouncePending, window).SetVal(true)
	mock.ExpectSet(key, expectedData, window).SetVal("OK")

	result := gate.Submit(context.Background(), qrPayload, "Gate-1")

	assert.Equal(t, models.OutcomeAdmit, result.Outcome)
	assert.Equal(t, ticket.ID, result.TicketID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateService_RepeatScanWithinWindowUsesCache(t *testing.T) {
	window := 2 * time.Second
	gate, mock, issuer, _ := setupTestGateService(t, window)

	ticket, qrPayload := issueTestTicket(t, issuer)
	key := debounceKey("Gate-1", qrPayload)

	checkedInAt := time.Date(2025, 9, 1, 19, 30, 0, 0, time.UTC)
	cached := models.ScanResult{
		Outcome:     models.OutcomeAdmit,
		TicketID:    ticket.ID,
		HolderName:  "Jean Dupont",
		PassClass:   models.PassOneMan,
		CheckedInAt: &checkedInAt,
		CheckedInBy: "Gate-1",
	}
	cachedData, err := json.Marshal(cached)
	require.NoError(t, err)

	mock.ExpectSetNX(key, debouncePending, window).SetVal(false)
	mock.ExpectGet(key).SetVal(string(cachedData))

	// The ticket is still in issued state: an admit can only have come
	// from the cache, not from the validator.
	result := gate.Submit(context.Background(), qrPayload, "Gate-1")

	assert.Equal(t, models.OutcomeAdmit, result.Outcome)
	assert.Equal(t, "Gate-1", result.CheckedInBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateService_PendingCacheFallsThroughToValidator(t *testing.T) {
	window := 2 * time.Second
	gate, mock, issuer, _ := setupTestGateService(t, window)

	_, qrPayload := issueTestTicket(t, issuer)
	key := debounceKey("Gate-1", qrPayload)

	mock.ExpectSetNX(key, debouncePending, window).SetVal(false)
	mock.ExpectGet(key).SetVal(debouncePending)

	result := gate.Submit(context.Background(), qrPayload, "Gate-1")

	// Validator ran for real and admitted the issued ticket
	assert.Equal(t, models.OutcomeAdmit, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateService_RedisDownBypassesWindow(t *testing.T) {
	window := 2 * time.Second
	gate, mock, issuer, _ := setupTestGateService(t, window)

	_, qrPayload := issueTestTicket(t, issuer)
	key := debounceKey("Gate-1", qrPayload)

	mock.ExpectSetNX(key, debouncePending, window).SetErr(errors.New("connection refused"))

	result := gate.Submit(context.Background(), qrPayload, "Gate-1")

	assert.Equal(t, models.OutcomeAdmit, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateService_ZeroWindowSkipsRedis(t *testing.T) {
	gate, mock, issuer, _ := setupTestGateService(t, 0)

	_, qrPayload := issueTestTicket(t, issuer)

	result := gate.Submit(context.Background(), qrPayload, "Gate-1")

	assert.Equal(t, models.OutcomeAdmit, result.Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGateService_DistinctGatesDoNotShareWindows(t *testing.T) {
	issuer, _, _ := setupTestServices(t)
	_, qrPayload := issueTestTicket(t, issuer)

	assert.NotEqual(t, debounceKey("Gate-1", qrPayload), debounceKey("Gate-2", qrPayload))
	assert.NotEqual(t, debounceKey("Gate-1", qrPayload), debounceKey("Gate-1", qrPayload+"x"))
}
