// Package geo provides the OpenStreetMap Nominatim geocoding client and the
// resilience plumbing around it: a circuit breaker, retry with exponential
// backoff, and a shared 1 req/s rate limiter mandated by the Nominatim usage
// policy.
//
// The circuit breaker is an explicit injected object, never a package-level
// singleton: construct one in main, hand it to the client, and expose its
// snapshot through the health endpoint.
package geo

import (
	"sync"
	"time"
)

// Circuit breaker states.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half_open"
)

// Breaker is a minimal circuit breaker: it opens after FailureThreshold
// consecutive failures, rejects calls while open, and probes recovery with
// a bounded number of half-open calls after RecoveryTimeout.
//
// All methods are safe for concurrent use.
type Breaker struct {
	// FailureThreshold is the consecutive-failure count that opens the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before probing.
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls bounds probe calls in the half-open state.
	HalfOpenMaxCalls int

	mu            sync.Mutex
	state         string
	failureCount  int
	lastFailure   time.Time
	halfOpenCalls int
}

// NewBreaker returns a closed Breaker with the default posture:
// 5 failures to open, 60s recovery window, 3 half-open probes.
func NewBreaker() *Breaker {
	return &Breaker{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		HalfOpenMaxCalls: 3,
		state:            StateClosed,
	}
}

// CanExecute reports whether a call should be allowed through, transitioning
// open → half-open once the recovery window has elapsed.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if !b.lastFailure.IsZero() && time.Since(b.lastFailure) > b.RecoveryTimeout {
			b.state = StateHalfOpen
			b.halfOpenCalls = 0
			return true
		}
		return false
	case StateHalfOpen:
		return b.halfOpenCalls < b.HalfOpenMaxCalls
	}
	return false
}

// RecordSuccess notes a successful call. Enough half-open successes close
// the circuit and reset the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.halfOpenCalls++
		if b.halfOpenCalls >= b.HalfOpenMaxCalls {
			b.state = StateClosed
			b.failureCount = 0
		}
		return
	}
	b.failureCount = 0
}

// RecordFailure notes a failed call, opening the circuit once the threshold
// is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = time.Now()
	if b.failureCount >= b.FailureThreshold {
		b.state = StateOpen
	}
}

// Snapshot is a read-only view of breaker state for health reporting.
type Snapshot struct {
	State        string
	FailureCount int
	LastFailure  *time.Time
}

// Snapshot returns the current breaker state without mutating it.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{State: b.state, FailureCount: b.failureCount}
	if !b.lastFailure.IsZero() {
		t := b.lastFailure
		s.LastFailure = &t
	}
	return s
}
