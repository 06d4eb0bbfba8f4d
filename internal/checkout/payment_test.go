package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/payment"
)

// flowAtPayment advances a fresh flow to the payment step.
func flowAtPayment(t *testing.T, svc *Service, customer domain.CustomerInfo) State {
	t.Helper()
	st, err := svc.Start(context.Background(), "user-1")
	require.NoError(t, err)
	st, err = svc.SubmitDetails(context.Background(), st.ID, customer)
	require.NoError(t, err)
	require.Equal(t, domain.StepPayment, st.Step)
	return st
}

func smallCartStore() *MockCartStore {
	return &MockCartStore{Cart: cartWith(
		domain.CartLine{ProductID: "p1", ProductName: "Composite kit", UnitPrice: 2_500, Quantity: 4},
	)}
}

func TestInitiatePayment_CreatesSession(t *testing.T) {
	gw := acceptingGateway()
	svc := newTestService(smallCartStore(), &MockOrderStore{}, gw)
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())

	got, err := svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)

	require.NotNil(t, got.Session)
	assert.True(t, got.Session.PromptSent)
	assert.False(t, got.Session.Confirmed)
	assert.False(t, got.Session.Revoked)
	assert.Equal(t, PaymentWindowSeconds, got.Session.SecondsRemaining)
	assert.Equal(t, "MPSTEST001", got.Session.TransactionID)

	assert.Equal(t, 1, gw.InitiateCalls)
	assert.Equal(t, "0712345678", gw.LastPhone)
	assert.Equal(t, 12_100.0, gw.LastAmount) // 10,000 + 500 delivery + 1,600 tax
}

func TestInitiatePayment_InvalidPhoneMakesNoSession(t *testing.T) {
	gw := acceptingGateway()
	svc := newTestService(smallCartStore(), &MockOrderStore{}, gw)
	defer svc.Close()

	customer := validCustomer()
	customer.Phone = "123456" // passes the non-blank gate, fails the format one
	st := flowAtPayment(t, svc, customer)

	_, err := svc.InitiatePayment(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, 0, gw.InitiateCalls)

	got, err := svc.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Session)
}

func TestInitiatePayment_HighRiskIsBlocked(t *testing.T) {
	// Valid phone but invalid email (+30), subtotal above 500k (+25) and
	// four high-value lines (+20): score 75, high risk.
	cart := &MockCartStore{Cart: cartWith(
		domain.CartLine{ProductID: "chair", UnitPrice: 150_000, Quantity: 1},
		domain.CartLine{ProductID: "autoclave", UnitPrice: 180_000, Quantity: 1},
		domain.CartLine{ProductID: "xray", UnitPrice: 120_000, Quantity: 1},
		domain.CartLine{ProductID: "scanner", UnitPrice: 110_000, Quantity: 1},
	)}
	gw := acceptingGateway()
	svc := newTestService(cart, &MockOrderStore{}, gw)
	defer svc.Close()

	customer := validCustomer()
	customer.Email = "not-an-email"
	st := flowAtPayment(t, svc, customer)
	require.NotNil(t, st.Assessment)
	require.Equal(t, domain.RiskHigh, st.Assessment.Risk)

	_, err := svc.InitiatePayment(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrHighRiskBlocked)
	assert.Equal(t, 0, gw.InitiateCalls)

	got, _ := svc.Get(context.Background(), st.ID)
	assert.Nil(t, got.Session)
}

func TestInitiatePayment_MediumRiskIsAllowed(t *testing.T) {
	gw := acceptingGateway()
	svc := newTestService(smallCartStore(), &MockOrderStore{}, gw)
	defer svc.Close()

	customer := validCustomer()
	customer.Email = "not-an-email" // +30 only
	st := flowAtPayment(t, svc, customer)
	require.Equal(t, domain.RiskMedium, st.Assessment.Risk)

	got, err := svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)
	assert.True(t, got.Session.PromptSent)
}

func TestInitiatePayment_RejectedPrompt(t *testing.T) {
	gw := &MockGateway{Result: payment.PromptResult{Success: false, Message: "handset unreachable"}}
	svc := newTestService(smallCartStore(), &MockOrderStore{}, gw)
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())

	_, err := svc.InitiatePayment(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrPromptRejected)

	got, _ := svc.Get(context.Background(), st.ID)
	assert.Nil(t, got.Session)
}

func TestInitiatePayment_SecondPromptWhileLive(t *testing.T) {
	gw := acceptingGateway()
	svc := newTestService(smallCartStore(), &MockOrderStore{}, gw)
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())

	_, err := svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)

	_, err = svc.InitiatePayment(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrPaymentInFlight)
	assert.Equal(t, 1, gw.InitiateCalls)
}

func TestCountdown_TimeoutRevokesSession(t *testing.T) {
	orders := &MockOrderStore{}
	svc := newTestService(smallCartStore(), orders, acceptingGateway())
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())
	got, err := svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)
	gen := currentGeneration(svc, st.ID)

	for i := 0; i < PaymentWindowSeconds-1; i++ {
		assert.True(t, svc.handleTick(st.ID, gen))
	}
	// Final tick hits zero and revokes.
	assert.False(t, svc.handleTick(st.ID, gen))

	got, err = svc.Get(context.Background(), st.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Session)
	assert.True(t, got.Session.Revoked)
	assert.False(t, got.Session.PromptSent)
	assert.Equal(t, 0, got.Session.SecondsRemaining)
	assert.Equal(t, domain.StepPayment, got.Step)

	// A confirmation arriving after the timeout must not create an order.
	svc.handleConfirm(context.Background(), st.ID, gen)
	assert.Equal(t, 0, orders.CreateCalls)

	got, _ = svc.Get(context.Background(), st.ID)
	assert.False(t, got.Session.Confirmed)
}

func TestCountdown_StopsTickingOnceConfirmed(t *testing.T) {
	// Failing order store keeps the confirmed session around so the tick
	// behaviour after confirmation is observable.
	orders := &MockOrderStore{CreateErr: errors.New("db down")}
	svc := newTestService(smallCartStore(), orders, acceptingGateway())
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())
	_, err := svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)
	gen := currentGeneration(svc, st.ID)

	svc.handleConfirm(context.Background(), st.ID, gen)

	// The next tick must report the session as finished and not decrement.
	assert.False(t, svc.handleTick(st.ID, gen))
	got, _ := svc.Get(context.Background(), st.ID)
	require.NotNil(t, got.Session)
	assert.True(t, got.Session.Confirmed)
	assert.Equal(t, PaymentWindowSeconds, got.Session.SecondsRemaining)
}

func TestRetryPayment_RequiresRevokedSession(t *testing.T) {
	svc := newTestService(smallCartStore(), &MockOrderStore{}, acceptingGateway())
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())

	// No session at all.
	_, err := svc.RetryPayment(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrPaymentNotRevoked)

	// Live session.
	_, err = svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)
	_, err = svc.RetryPayment(context.Background(), st.ID)
	assert.ErrorIs(t, err, ErrPaymentNotRevoked)
}

func TestRetryPayment_StaleConfirmationIsNoOp(t *testing.T) {
	orders := &MockOrderStore{}
	gw := acceptingGateway()
	svc := newTestService(smallCartStore(), orders, gw)
	defer svc.Close()

	st := flowAtPayment(t, svc, validCustomer())
	_, err := svc.InitiatePayment(context.Background(), st.ID)
	require.NoError(t, err)
	oldGen := currentGeneration(svc, st.ID)

	// Time the first attempt out, then retry.
	timeOut(svc, st.ID, oldGen)
	got, err := svc.RetryPayment(context.Background(), st.ID)
	require.NoError(t, err)
	newGen := currentGeneration(svc, st.ID)
	require.NotEqual(t, oldGen, newGen)
	assert.True(t, got.Session.PromptSent)
	assert.Equal(t, PaymentWindowSeconds, got.Session.SecondsRemaining)

	// The old attempt's confirmation timer fires late: it must not touch
	// the new session and must not create an order.
	svc.handleConfirm(context.Background(), st.ID, oldGen)
	assert.Equal(t, 0, orders.CreateCalls)

	got, _ = svc.Get(context.Background(), st.ID)
	assert.False(t, got.Session.Confirmed)
	assert.True(t, got.Session.PromptSent)

	// The old attempt's countdown must not decrement the new session.
	assert.False(t, svc.handleTick(st.ID, oldGen))
	got, _ = svc.Get(context.Background(), st.ID)
	assert.Equal(t, PaymentWindowSeconds, got.Session.SecondsRemaining)

	// The current attempt still confirms normally.
	svc.handleConfirm(context.Background(), st.ID, newGen)
	assert.Equal(t, 1, orders.CreateCalls)
}

func currentGeneration(svc *Service, id string) uint64 {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.flows[id].Session.Generation
}

func timeOut(svc *Service, id string, gen uint64) {
	for svc.handleTick(id, gen) {
	}
}
