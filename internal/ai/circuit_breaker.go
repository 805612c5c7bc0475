package ai

import (
	"talentsparkle/internal/config"
	"talentsparkle/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker guards calls returning T. A nil Breaker runs calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewBreaker returns nil when circuit breaking is disabled
func NewBreaker[T any](name string, cfg config.CircuitBreakerConfig, readyToTrip func(gobreaker.Counts) bool, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// ratioTrip opens the breaker once minRequests have been seen and the failure ratio reaches threshold
func ratioTrip(minRequests uint32, threshold float64) func(gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= minRequests && failureRatio >= threshold
	}
}

// NewChatBreaker guards GenerateContent calls for the chat operation
func NewChatBreaker[T any](cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	return NewBreaker[T]("AI-chat", cfg, ratioTrip(cfg.MinRequests, cfg.FailureThreshold), logger)
}

// NewModelBreaker guards model lookups used by health checks. Model info is
// less critical, so it trips later than the chat breaker.
func NewModelBreaker[T any](cfg config.CircuitBreakerConfig, logger *errors.Logger) *Breaker[T] {
	return NewBreaker[T]("AI-Model-chat", cfg, ratioTrip(5, 0.8), logger)
}

func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats reports breaker state for the stats endpoint
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. A disabled breaker is healthy.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
