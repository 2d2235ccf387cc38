package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned without invoking the wrapped call while the
// breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to flaky external collaborators (the
// realtime notifier, above all) so a dead endpoint cannot pile up
// goroutines behind the gate path.
type CircuitBreaker struct {
	name         string
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	failureRatio float64

	mutex      sync.Mutex
	state      BreakerState
	generation uint64
	counts     BreakerCounts
	expiry     time.Time
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

type BreakerCounts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func NewCircuitBreaker(name string) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxRequests:  10,
		interval:     30 * time.Second,
		timeout:      30 * time.Second,
		failureRatio: 0.5,
		state:        BreakerClosed,
	}
}

// Execute runs fn unless the breaker is open, recording the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = fn()
	cb.afterRequest(generation, err == nil)
	return err
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state, generation := cb.currentState(time.Now())

	if state == BreakerOpen {
		return generation, ErrBreakerOpen
	}
	if state == BreakerHalfOpen && cb.counts.Requests >= cb.maxRequests {
		return generation, ErrBreakerOpen
	}

	cb.counts.Requests++
	return generation, nil
}

// afterRequest drops the outcome when the window rolled over while the
// call was in flight, so a stale result cannot pollute the new counts.
func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	state, generation := cb.currentState(time.Now())
	if generation != before {
		return
	}

	if success {
		cb.onSuccess(state)
	} else {
		cb.onFailure()
	}
}

func (cb *CircuitBreaker) onSuccess(state BreakerState) {
	cb.counts.TotalSuccesses++
	cb.counts.ConsecutiveSuccesses++
	cb.counts.ConsecutiveFailures = 0

	if state == BreakerHalfOpen {
		cb.state = BreakerClosed
		cb.resetCounts(time.Now())
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.counts.TotalFailures++
	cb.counts.ConsecutiveFailures++
	cb.counts.ConsecutiveSuccesses = 0

	if cb.readyToTrip() {
		cb.state = BreakerOpen
		cb.expiry = time.Now().Add(cb.timeout)
	}
}

func (cb *CircuitBreaker) readyToTrip() bool {
	return cb.counts.Requests >= cb.maxRequests &&
		float64(cb.counts.TotalFailures)/float64(cb.counts.Requests) >= cb.failureRatio
}

func (cb *CircuitBreaker) currentState(now time.Time) (BreakerState, uint64) {
	switch cb.state {
	case BreakerClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.resetCounts(now)
		}
	case BreakerOpen:
		if cb.expiry.Before(now) {
			cb.state = BreakerHalfOpen
			cb.resetCounts(now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) resetCounts(now time.Time) {
	cb.generation++
	cb.counts = BreakerCounts{}

	switch cb.state {
	case BreakerClosed:
		cb.expiry = now.Add(cb.interval)
	default:
		cb.expiry = time.Time{}
	}
}
