package payment

import (
	"context"
	"errors"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// PromptResult is the gateway's answer to an STK push request. Success means
// the prompt reached the customer's phone, not that they have paid yet.
type PromptResult struct {
	Success       bool
	TransactionID string
	Message       string
}

// Gateway sends mobile-money prompts. Implementations must be safe for
// concurrent use.
type Gateway interface {
	Initiate(ctx context.Context, phone string, amount float64, orderRef string) (PromptResult, error)
}
