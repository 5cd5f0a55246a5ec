package agentclient

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBreakerOpen is returned in place of the underlying API error while
// the circuit breaker is open, so callers can distinguish "the API is
// down and we stopped asking" from "the API rejected this one request".
var ErrBreakerOpen = errors.New("agentclient: circuit breaker open")

// breaker wraps a gobreaker.CircuitBreaker around agent-spawn calls. It is
// the one process-wide piece of mutable state §9 permits: every Client
// gets its own breaker instance, but within a process the breaker's
// Closed/Open/HalfOpen state is shared across every goroutine using that
// Client, by design — a storm of failures on one task should throttle
// spawns for all of them.
type breaker struct {
	cb *gobreaker.CircuitBreaker
}

func newBreaker() *breaker {
	settings := gobreaker.Settings{
		Name:        "agentclient",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *breaker) execute(fn func() (string, error)) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", ErrBreakerOpen
		}
		return "", err
	}
	return result.(string), nil
}
