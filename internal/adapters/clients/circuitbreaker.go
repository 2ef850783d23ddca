package clients

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen blocks requests until the open timeout elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes allowed and the
	// number of successful probes needed to close the circuit.
	HalfOpenLimit int
}

// CircuitBreaker stops calling the remote after repeated failures so a sync
// tick against a dead endpoint fails fast instead of burning retries.
//
//	closed    --MaxFailures failures-->  open
//	open      --Timeout elapsed------->  half-open
//	half-open --HalfOpenLimit ok------>  closed
//	half-open --any failure----------->  open
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    State
	failures int
	probes   int // in-flight requests while half-open
	passed   int // successful probes while half-open
	openedAt time.Time
	notify   func(from, to State)
	now      func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to be called asynchronously on every transition.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.notify = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. Every allowed request must be
// followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return false
		}

		cb.setState(StateHalfOpen)
	}

	if cb.state == StateHalfOpen {
		if cb.probes >= cb.cfg.HalfOpenLimit {
			return false
		}

		cb.probes++
	}

	return true
}

// RecordSuccess records a request that reached the remote.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.passed++

		if cb.passed >= cb.cfg.HalfOpenLimit {
			cb.setState(StateClosed)
		}
	case StateOpen:
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	case StateOpen:
	}
}

// State returns the current state without triggering a transition.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(to State) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	cb.failures, cb.probes, cb.passed = 0, 0, 0

	if to == StateOpen {
		cb.openedAt = cb.now()
	}

	if cb.notify != nil {
		go cb.notify(from, to)
	}
}
