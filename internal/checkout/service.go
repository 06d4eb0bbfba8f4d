// Package checkout drives a customer from detail entry through a simulated
// M-Pesa STK push to a persisted order. Payment confirmation strictly
// precedes order creation; a timed-out or replaced payment session can never
// complete an order.
package checkout

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/clock"
	"github.com/Colligram/rurident-health-supply-sub001/internal/payment"
)

const (
	// PaymentWindowSeconds is the countdown the customer has to approve the
	// STK push on their phone.
	PaymentWindowSeconds = 180

	defaultFlowTTL         = 30 * time.Minute
	defaultCleanupInterval = 1 * time.Minute
)

// CartStore supplies and clears the customer's cart.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderStore persists finalized orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
}

type Service struct {
	mu    sync.RWMutex
	flows map[string]*Flow

	cart    CartStore
	orders  OrderStore
	gateway payment.Gateway
	clock   clock.Clock

	// generation increases on every payment attempt across the service, so
	// a stale timer from a replaced session can never be mistaken for the
	// current one.
	generation uint64

	tickInterval    time.Duration
	confirmDelay    func() time.Duration
	flowTTL         time.Duration
	cleanupInterval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewService(cart CartStore, orders OrderStore, gateway payment.Gateway, clk clock.Clock) *Service {
	s := &Service{
		flows:           make(map[string]*Flow),
		cart:            cart,
		orders:          orders,
		gateway:         gateway,
		clock:           clk,
		tickInterval:    time.Second,
		confirmDelay:    randomConfirmDelay,
		flowTTL:         defaultFlowTTL,
		cleanupInterval: defaultCleanupInterval,
		stop:            make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// randomConfirmDelay picks when the simulated customer approves the prompt:
// strictly inside the payment window.
func randomConfirmDelay() time.Duration {
	return time.Duration(5+rand.Intn(PaymentWindowSeconds-10)) * time.Second
}

// Start opens a new checkout flow at the details step.
func (s *Service) Start(_ context.Context, userID string) (State, error) {
	now := s.clock.Now()
	flow := &Flow{
		ID:        uuid.NewString(),
		UserID:    userID,
		Step:      domain.StepDetails,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.ID] = flow
	return flow.snapshot(), nil
}

// Get returns the current state of a flow.
func (s *Service) Get(_ context.Context, id string) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.flows[id]
	if !ok {
		return State{}, ErrFlowNotFound
	}
	return flow.snapshot(), nil
}

// Close stops the cleanup loop and all countdown goroutines.
func (s *Service) Close() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.expireFlows()
		case <-s.stop:
			return
		}
	}
}

// expireFlows drops flows that have been idle longer than the TTL. Live
// payment sessions are torn down with their flow.
func (s *Service) expireFlows() {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, flow := range s.flows {
		if now.Sub(flow.UpdatedAt) > s.flowTTL {
			flow.discardSession()
			delete(s.flows, id)
			log.Printf("expired idle checkout flow %s", id)
		}
	}
}
