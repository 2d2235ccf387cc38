package utils

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

	code, err := GenerateTicketCode()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, TicketCodePrefix+"-"))
	assert.Regexp(t, pattern, code)

	parts := strings.SplitN(code, "-", 3)
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 16) // 12 random bytes, base64url
}

func TestGenerateTicketCode_Unique(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 10000; i++ {
		code, err := GenerateTicketCode()
		require.NoError(t, err)
		require.False(t, seen[code], "collision at iteration %d: %s", i, code)
		seen[code] = true
	}
}

func TestGenerateOperatorToken(t *testing.T) {
	a, err := GenerateOperatorToken()
	require.NoError(t, err)
	b, err := GenerateOperatorToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 32)
}

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")

	for i := 0; i < 50; i++ {
		err := cb.Execute(func() error { return nil })
		require.NoError(t, err)
	}
}

func TestCircuitBreaker_TripsAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	boom := errors.New("boom")

	// Drive enough failing requests to cross the ratio threshold
	tripped := false
	for i := 0; i < 50; i++ {
		err := cb.Execute(func() error { return boom })
		if errors.Is(err, ErrBreakerOpen) {
			tripped = true
			break
		}
		require.ErrorIs(t, err, boom)
	}

	assert.True(t, tripped, "breaker never opened")

	// While open, the wrapped call is not invoked
	invoked := false
	err := cb.Execute(func() error { invoked = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, invoked)
}

func TestCircuitBreaker_StaleOutcomeIsDiscarded(t *testing.T) {
	cb := NewCircuitBreaker("test")

	generation, err := cb.beforeRequest()
	require.NoError(t, err)

	// The window rolls over while the call is in flight
	cb.mutex.Lock()
	cb.resetCounts(time.Now())
	cb.mutex.Unlock()

	cb.afterRequest(generation, false)

	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	assert.Equal(t, uint32(0), cb.counts.TotalFailures)
	assert.Equal(t, uint32(0), cb.counts.ConsecutiveFailures)
	assert.Equal(t, BreakerClosed, cb.state)
}
