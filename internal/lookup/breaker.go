package lookup

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/MrSnakeDoc/aniarc/internal/logger"
	"github.com/MrSnakeDoc/aniarc/internal/metrics"
)

const breakerName = "title-lookup"

// BreakerOptions configures the circuit breaker around a Searcher.
type BreakerOptions struct {
	FailureThreshold uint32        // consecutive failures before opening (ex: 5)
	OpenTimeout      time.Duration // time spent open before a half-open trial request (ex: 30s)
}

// BreakerSearcher wraps a Searcher with a circuit breaker.
// Cancelled calls do not count as failures.
type BreakerSearcher struct {
	next Searcher
	cb   *gobreaker.CircuitBreaker[[]Title]
}

// NewBreakerSearcher wraps next.
func NewBreakerSearcher(next Searcher, opts BreakerOptions, log logger.Logger) *BreakerSearcher {
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]Title](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, ErrNoResultsFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				logger.String("name", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerSearcher{next: next, cb: cb}
}

// SearchTitles runs the wrapped search unless the circuit is open.
func (b *BreakerSearcher) SearchTitles(ctx context.Context, query string, limit int) ([]Title, error) {
	titles, err := b.cb.Execute(func() ([]Title, error) {
		return b.next.SearchTitles(ctx, query, limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.LookupRequests.WithLabelValues(metrics.OutcomeRejected).Inc()
		return nil, &NetworkError{Err: err}
	}
	return titles, err
}

// State returns the current breaker state.
func (b *BreakerSearcher) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
