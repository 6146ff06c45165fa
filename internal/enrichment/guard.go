package enrichment

import (
	"context"
)

// Breaker is the circuit breaker used to shed load from failing providers.
type Breaker interface {
	AllowRequest(ctx context.Context, key string) (string, bool)
	RecordSuccess(ctx context.Context, key string)
	RecordFailure(ctx context.Context, key string)
}

type guardedProvider struct {
	Provider
	breaker Breaker
}

// WithCircuitBreaker trips on retryable provider failures. While the circuit
// is open, Fetch fails fast with a provider outage.
func WithCircuitBreaker(p Provider, b Breaker) Provider {
	return &guardedProvider{Provider: p, breaker: b}
}

// BreakerKey is the breaker key used for a provider id.
func BreakerKey(providerID string) string {
	return "enrichment:" + providerID
}

func (g *guardedProvider) Fetch(ctx context.Context, req Request) (Record, error) {
	key := BreakerKey(g.ID())
	if _, ok := g.breaker.AllowRequest(ctx, key); !ok {
		return nil, NewProviderError(ErrorProviderOutage, g.ID(), "circuit open", nil)
	}

	rec, err := g.Provider.Fetch(ctx, req)
	if err != nil && IsRetryable(err) {
		g.breaker.RecordFailure(ctx, key)
		return nil, err
	}
	g.breaker.RecordSuccess(ctx, key)
	return rec, err
}
