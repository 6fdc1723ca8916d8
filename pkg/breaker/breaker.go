package breaker

import (
	"sync"
	"time"
)

// State of the circuit breaker.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
)

// CircuitBreaker gates calls to the remote cache backend. After
// FailureThreshold consecutive failures it opens and callers are told to
// use the fallback store without attempting the backend. After
// RecoveryTimeout one trial call is let through; its outcome decides
// whether the breaker closes again.
//
// One instance is created per Redis client and shared by every request
// handler, so all counters are guarded by the mutex.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration

	state        State
	failureCount int
	openedAt     time.Time
	trialActive  bool

	now func() time.Time
}

// New creates a closed breaker. Non-positive arguments fall back to the
// defaults.
func New(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a backend call may be attempted. In OPEN state it
// returns false until the recovery timeout elapses; the first caller after
// that gets the single HALF_OPEN trial slot. While a trial is in flight
// every other caller is sent to the fallback.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.recoveryTimeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.trialActive = true
		return true
	case StateHalfOpen:
		if cb.trialActive {
			return false
		}
		cb.trialActive = true
		return true
	}
	return false
}

// RecordSuccess reports a successful backend call. Closes the breaker and
// resets the consecutive-failure counter.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.trialActive = false
	cb.state = StateClosed
}

// RecordFailure reports a failed backend call. A failed HALF_OPEN trial
// reopens immediately; in CLOSED state the breaker opens once the
// consecutive-failure threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.openedAt = cb.now()
		cb.trialActive = false
		return
	}

	if cb.failureCount >= cb.failureThreshold {
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the consecutive-failure counter.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}
