package checkout

import (
	"context"
	"time"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/clock"
	"github.com/Colligram/rurident-health-supply-sub001/internal/payment"
)

// MockCartStore implements CartStore for testing.
type MockCartStore struct {
	Cart       *domain.Cart
	GetErr     error
	ClearErr   error
	ClearCalls int
}

func (m *MockCartStore) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	return m.Cart, m.GetErr
}

func (m *MockCartStore) ClearCart(_ context.Context, _ string) error {
	m.ClearCalls++
	return m.ClearErr
}

// MockOrderStore implements OrderStore for testing.
type MockOrderStore struct {
	CreateErr   error
	Created     []*domain.Order
	CreateCalls int
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, order)
	return nil
}

// MockGateway implements payment.Gateway for testing.
type MockGateway struct {
	Result        payment.PromptResult
	Err           error
	InitiateCalls int
	LastPhone     string
	LastAmount    float64
}

func (m *MockGateway) Initiate(_ context.Context, phone string, amount float64, _ string) (payment.PromptResult, error) {
	m.InitiateCalls++
	m.LastPhone = phone
	m.LastAmount = amount
	return m.Result, m.Err
}

func acceptingGateway() *MockGateway {
	return &MockGateway{
		Result: payment.PromptResult{Success: true, TransactionID: "MPSTEST001"},
	}
}

func validCustomer() domain.CustomerInfo {
	return domain.CustomerInfo{
		FirstName: "Grace",
		LastName:  "Njeri",
		Email:     "grace@clinic.co.ke",
		Phone:     "0712345678",
		Address:   "Kenyatta Avenue 4",
		City:      "Nakuru",
		County:    "Nakuru",
	}
}

func cartWith(lines ...domain.CartLine) *domain.Cart {
	return &domain.Cart{UserID: "user-1", Items: lines}
}

// newTestService wires a Service whose timers never fire on their own, so
// tests drive ticks and confirmations deterministically.
func newTestService(cart *MockCartStore, orders *MockOrderStore, gw *MockGateway) *Service {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(cart, orders, gw, clock.NewFixed(now))
	svc.tickInterval = time.Hour
	svc.confirmDelay = func() time.Duration { return time.Hour }
	return svc
}
