package payment

import (
	"context"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway wraps a Gateway in a circuit breaker so a misbehaving
// upstream cannot pile up in-flight prompts during checkout.
type BreakerGateway struct {
	inner Gateway
	cb    *gobreaker.CircuitBreaker[PromptResult]
}

func NewBreakerGateway(inner Gateway) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:    "mpesa-gateway",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	}
	return &BreakerGateway{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[PromptResult](settings),
	}
}

func (g *BreakerGateway) Initiate(ctx context.Context, phone string, amount float64, orderRef string) (PromptResult, error) {
	result, err := g.cb.Execute(func() (PromptResult, error) {
		return g.inner.Initiate(ctx, phone, amount, orderRef)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return PromptResult{}, ErrGatewayUnavailable
	}
	return result, err
}
