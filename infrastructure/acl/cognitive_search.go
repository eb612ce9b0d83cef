// Package acl shields the application from external collaborators. The
// cognitive search capability may be remote and flaky, so calls go through a
// circuit breaker and failures degrade to an explicit external error.
package acl

import (
	"context"
	"errors"
	"time"

	"mnemo-backend/application/ports"
	pkgerrors "mnemo-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig tunes the circuit breaker around cognitive search
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns conservative breaker settings
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "cognitive-search",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CognitiveSearchACL wraps a CognitiveSearcher with a circuit breaker
type CognitiveSearchACL struct {
	inner   ports.CognitiveSearcher
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewCognitiveSearchACL builds the guarded searcher
func NewCognitiveSearchACL(inner ports.CognitiveSearcher, cfg BreakerConfig, logger *zap.Logger) *CognitiveSearchACL {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &CognitiveSearchACL{
		inner:   inner,
		breaker: cb,
		logger:  logger,
	}
}

// Search implements ports.CognitiveSearcher through the breaker
func (a *CognitiveSearchACL) Search(ctx context.Context, query string, limit int) ([]ports.SearchHit, error) {
	result, err := a.breaker.Execute(func() (any, error) {
		return a.inner.Search(ctx, query, limit)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			a.logger.Warn("cognitive search rejected by circuit breaker",
				zap.String("query", query),
				zap.Error(err),
			)
			return nil, pkgerrors.NewUnavailableError("cognitive search")
		}
		return nil, pkgerrors.NewExternalError("cognitive search", err)
	}

	hits, ok := result.([]ports.SearchHit)
	if !ok {
		return nil, pkgerrors.NewInternalError("unexpected search result type")
	}
	return hits, nil
}
