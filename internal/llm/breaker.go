// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-explorer/internal/apperr"
)

// BreakerSettings configures the circuit breaker around a Completer.
type BreakerSettings struct {
	Name string
	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Zero means 5.
	MaxFailures uint32
	// Cooldown is how long the breaker stays open before letting a probe
	// request through. Zero means 30s.
	Cooldown time.Duration
}

// BreakerCompleter fails fast with a service error while the wrapped
// completion service is known to be down.
type BreakerCompleter struct {
	next   Completer
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreaker wraps next in a consecutive-failure circuit breaker.
func NewBreaker(next Completer, s BreakerSettings, logger *zap.Logger) *BreakerCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	if s.Name == "" {
		s.Name = "completion"
	}
	logger = logger.Named("breaker")

	b := &BreakerCompleter{next: next, logger: logger}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a service failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return b
}

// Complete forwards to the wrapped Completer unless the breaker is open.
func (b *BreakerCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", apperr.Service("completion", fmt.Errorf("%s unavailable: %w", b.cb.Name(), err))
		}
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state ("closed", "half-open" or "open").
func (b *BreakerCompleter) State() string {
	return b.cb.State().String()
}
