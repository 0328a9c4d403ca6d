// Package resilience provides the retry policy for render requests: an
// explicit backoff state machine plus Do/DoVal helpers driving it.
package resilience

import (
	"context"
	"math"
	"time"
)

// State is the retry machine's current position.
type State int

const (
	// StateAttempting means a call is (about to be) in flight.
	StateAttempting State = iota
	// StateBackoff means the last call failed transiently and the machine
	// is waiting out the delay before the next attempt.
	StateBackoff
	// StateSucceeded is terminal: a call returned without error.
	StateSucceeded
	// StateExhausted is terminal: attempts ran out or the error was not
	// retryable.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RetryConfig controls retry behavior with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first
	// try). A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 2s.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. Default: 2.0.
	Multiplier float64

	// OnRetry is called before each backoff sleep with the attempt number
	// just failed and its error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns a sensible retry configuration for render calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	return cfg
}

// Machine is the retry state machine. The caller makes one attempt per
// StateAttempting, reports the outcome via Observe, sleeps BackoffDelay
// when told to back off, and calls Next to re-arm. This keeps the backoff
// policy testable without any live collaborator.
type Machine struct {
	cfg     RetryConfig
	state   State
	attempt int // zero-based index of the attempt in flight
	lastErr error
}

// NewMachine creates a retry machine in StateAttempting.
func NewMachine(cfg RetryConfig) *Machine {
	return &Machine{cfg: applyDefaults(cfg)}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Attempt returns the 1-based number of the current attempt.
func (m *Machine) Attempt() int { return m.attempt + 1 }

// Err returns the last observed error.
func (m *Machine) Err() error { return m.lastErr }

// Observe transitions the machine on an attempt outcome:
// nil → Succeeded; fatal or non-transient → Exhausted immediately;
// transient → Backoff while attempts remain, Exhausted otherwise.
func (m *Machine) Observe(err error) State {
	if m.state != StateAttempting {
		return m.state
	}
	m.lastErr = err

	switch {
	case err == nil:
		m.state = StateSucceeded
	case !IsTransient(err):
		m.state = StateExhausted
	case m.attempt >= m.cfg.MaxAttempts-1:
		m.state = StateExhausted
	default:
		m.state = StateBackoff
	}
	return m.state
}

// BackoffDelay returns the delay before the next attempt:
// InitialBackoff × Multiplier^attempt, capped at MaxBackoff.
func (m *Machine) BackoffDelay() time.Duration {
	delay := float64(m.cfg.InitialBackoff) * math.Pow(m.cfg.Multiplier, float64(m.attempt))
	if delay > float64(m.cfg.MaxBackoff) {
		delay = float64(m.cfg.MaxBackoff)
	}
	return time.Duration(delay)
}

// Next re-arms the machine for the next attempt after a backoff.
func (m *Machine) Next() State {
	if m.state == StateBackoff {
		m.attempt++
		m.state = StateAttempting
	}
	return m.state
}

// Do executes fn with retry per cfg. Context cancellation stops retries
// immediately with the last error.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal executes fn with retry per cfg, preserving the successful value.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	m := NewMachine(cfg)

	for {
		val, err := fn(ctx)

		if err != nil && ctx.Err() != nil {
			return zero, err
		}

		switch m.Observe(err) {
		case StateSucceeded:
			return val, nil
		case StateExhausted:
			return zero, m.Err()
		case StateBackoff:
			if m.cfg.OnRetry != nil {
				m.cfg.OnRetry(m.Attempt(), err)
			}
			timer := time.NewTimer(m.BackoffDelay())
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, err
			case <-timer.C:
			}
			m.Next()
		}
	}
}
