package payment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMpesaSimulator_InvalidPhone(t *testing.T) {
	g := NewMpesaSimulator(AlwaysAccept{})

	res, err := g.Initiate(context.Background(), "12345", 1_000, "RHS-1")

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "phone")
	assert.Empty(t, res.TransactionID)
}

func TestMpesaSimulator_NonPositiveAmount(t *testing.T) {
	g := NewMpesaSimulator(AlwaysAccept{})

	res, err := g.Initiate(context.Background(), "0712345678", 0, "RHS-1")

	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestMpesaSimulator_Success(t *testing.T) {
	g := NewMpesaSimulator(AlwaysAccept{})

	res, err := g.Initiate(context.Background(), "+254712345678", 12_100, "RHS-1")

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.TransactionID, "MPS"))
	assert.Len(t, res.TransactionID, 10)
}

func TestCalcStatus(t *testing.T) {
	ok, msg := calcStatus(0)
	assert.True(t, ok)
	assert.Empty(t, msg)

	ok, msg = calcStatus(94)
	assert.True(t, ok)

	ok, msg = calcStatus(95)
	assert.False(t, ok)
	assert.NotEmpty(t, msg)

	ok, _ = calcStatus(100)
	assert.False(t, ok)
}

type failingGateway struct{}

func (failingGateway) Initiate(context.Context, string, float64, string) (PromptResult, error) {
	return PromptResult{}, errors.New("upstream down")
}

func TestBreakerGateway_OpensAfterConsecutiveFailures(t *testing.T) {
	g := NewBreakerGateway(failingGateway{})

	var lastErr error
	for i := 0; i < 6; i++ {
		_, lastErr = g.Initiate(context.Background(), "0712345678", 100, "RHS-1")
	}

	assert.ErrorIs(t, lastErr, ErrGatewayUnavailable)
}

func TestBreakerGateway_PassesThroughSuccess(t *testing.T) {
	g := NewBreakerGateway(NewMpesaSimulator(AlwaysAccept{}))

	res, err := g.Initiate(context.Background(), "0712345678", 100, "RHS-1")

	require.NoError(t, err)
	assert.True(t, res.Success)
}
