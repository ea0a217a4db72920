package httputil

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned by [Breaker.Do] while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit open: registry temporarily unavailable")

// BreakerSettings configures a [Breaker]. Zero fields take the defaults.
type BreakerSettings struct {
	// Failures is the number of consecutive retryable failures that opens
	// the breaker. Default 5.
	Failures uint32

	// Cooldown is how long the breaker stays open before probing. Default 30s.
	Cooldown time.Duration

	// OnStateChange is called on every transition, e.g. for logging.
	OnStateChange func(name, from, to string)
}

// Breaker is a circuit breaker around calls to one registry.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker named after the registry it guards.
func NewBreaker(name string, s BreakerSettings) *Breaker {
	failures := s.Failures
	if failures == 0 {
		failures = 5
	}
	cooldown := s.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	st := gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRetryable(err)
		},
	}
	if s.OnStateChange != nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			s.OnStateChange(name, from.String(), to.String())
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Do runs fn unless the breaker is open. Errors from fn are returned as is.
func (b *Breaker) Do(fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
