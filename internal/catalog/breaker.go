package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/metrics"
)

const serviceName = "catalog"

// breaker wraps gobreaker with state and failure metrics
type breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

func newBreaker(name string, log *logger.Logger) *breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(serviceName, cbName).Set(stateValue(to))
			log.Warn("circuit_state_changed", "Circuit breaker state changed", "", map[string]interface{}{
				"circuit": cbName,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	metrics.CircuitBreakerState.WithLabelValues(serviceName, name).Set(0)
	return &breaker{cb: cb, name: name}
}

func (b *breaker) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(serviceName, b.name).Inc()
		return nil, b.formatError(err)
	}
	return result, nil
}

func (b *breaker) formatError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("circuit breaker %s is open: %w", b.name, err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("circuit breaker %s: too many requests in half-open state: %w", b.name, err)
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
