// Package resilience provides the shared circuit-breaker and retry helpers
// every external-facing adapter (graphstore, audit, literature, ner,
// synth, scorer) wraps its calls in. Modeled on a named-breaker pattern
// (named breaker, failure threshold, recovery timeout, health state) but
// built on sony/gobreaker + cenkalti/backoff/v5 rather than a hand-rolled
// state machine.
package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"github.com/biomind/repurposing/pkg/shared/logging"
	"github.com/sirupsen/logrus"
)

// Config mirrors the CircuitBreakerConfig fields that this
// project's adapters actually need.
type Config struct {
	Name             string
	FailureThreshold uint32
	ResetTimeout     time.Duration
	MaxRetries       uint64
}

// Breaker wraps a gobreaker.CircuitBreaker with an exponential backoff retry
// loop, so callers get "retry transient failures, then trip" in one call.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	retries uint
	logger  *logrus.Logger
}

func New(cfg Config, logger *logrus.Logger) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout == 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				fields := logging.NewFields().Component("resilience").Operation("state_change")
				logger.WithFields(logrus.Fields(fields)).
					WithField("breaker", name).
					WithField("from", from.String()).
					WithField("to", to.String()).
					Warn("circuit breaker state changed")
			}
		},
	}
	return &Breaker{
		cb:      gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
		retries: uint(cfg.MaxRetries),
		logger:  logger,
	}
}

// Do runs fn through the breaker, retrying transient failures with
// exponential backoff up to b.retries times before giving up. fn should
// return a context-cancellation-respecting error; Do does not retry on
// ctx.Err() != nil.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	op := func() (interface{}, error) {
		v, err := b.cb.Execute(func() (interface{}, error) {
			return fn(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return v, nil
	}
	maxTries := b.retries + 1
	return backoff.Retry[interface{}](ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxTries),
	)
}

// State reports the breaker's current gobreaker state name, used by
// health/readiness projections.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
