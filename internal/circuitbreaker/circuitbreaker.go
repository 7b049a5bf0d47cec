// Package circuitbreaker wraps sony/gobreaker/v2 with the defaults the
// searcher applies to every outbound call: RPC, aggregator HTTP, relay
// submission, and exchange clients all fail the same way under sustained
// errors rather than hammering a struggling upstream.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config captures the tunables callers usually want to vary per upstream.
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureRatio trips the breaker once it is reached over at least
	// MinRequests consecutive requests within Interval.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultConfig returns the breaker configuration used across the codebase
// unless a call site has a specific reason to diverge: half-open after 30s,
// trip at 60% failures once at least 5 requests have been observed.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

// CircuitBreaker wraps gobreaker's generic breaker for a single return type.
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New builds a CircuitBreaker[T] from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker, short-circuiting with
// gobreaker.ErrOpenState when tripped.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// State returns the breaker's current state (closed/open/half-open).
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}
