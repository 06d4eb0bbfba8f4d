package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/validate"
)

// InitiatePayment sends the STK push and opens a payment session with a
// 180 second countdown. It is rejected outright for invalid phone numbers
// and for high-risk checkouts.
func (s *Service) InitiatePayment(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	flow, ok := s.flows[id]
	if !ok {
		s.mu.Unlock()
		return State{}, ErrFlowNotFound
	}
	if flow.Step != domain.StepPayment {
		s.mu.Unlock()
		return State{}, ErrIllegalTransition
	}
	if !validate.IsValidPhone(flow.Customer.Phone) {
		s.mu.Unlock()
		return State{}, ErrInvalidPhone
	}
	if flow.Assessment == nil || flow.Assessment.Blocking() {
		s.mu.Unlock()
		return State{}, ErrHighRiskBlocked
	}
	if flow.Session != nil && flow.Session.Live() {
		s.mu.Unlock()
		return State{}, ErrPaymentInFlight
	}

	phone := flow.Customer.Phone
	amount := flow.Totals.Total
	s.mu.Unlock()

	// The prompt goes out without holding the lock; the session is only
	// created once the gateway accepted it.
	result, err := s.gateway.Initiate(ctx, phone, amount, id)
	if err != nil {
		return State{}, fmt.Errorf("initiate payment: %w", err)
	}
	if !result.Success {
		return State{}, fmt.Errorf("%w: %s", ErrPromptRejected, result.Message)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok = s.flows[id]
	if !ok {
		return State{}, ErrFlowNotFound
	}
	if flow.Step != domain.StepPayment {
		return State{}, ErrIllegalTransition
	}
	if flow.Session != nil && flow.Session.Live() {
		return State{}, ErrPaymentInFlight
	}

	flow.discardSession()

	s.generation++
	gen := s.generation
	flow.Session = &domain.PaymentSession{
		Generation:       gen,
		PromptSent:       true,
		SecondsRemaining: PaymentWindowSeconds,
		TransactionID:    result.TransactionID,
	}
	flow.SubmitFailed = false
	flow.UpdatedAt = s.clock.Now()

	s.wg.Add(1)
	go s.runCountdown(id, gen)
	flow.confirmTimer = time.AfterFunc(s.confirmDelay(), func() {
		s.handleConfirm(context.Background(), id, gen)
	})

	return flow.snapshot(), nil
}

// RetryPayment discards a timed-out session and sends a fresh prompt.
func (s *Service) RetryPayment(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	flow, ok := s.flows[id]
	if !ok {
		s.mu.Unlock()
		return State{}, ErrFlowNotFound
	}
	if flow.Session == nil || !flow.Session.Revoked {
		s.mu.Unlock()
		return State{}, ErrPaymentNotRevoked
	}
	flow.discardSession()
	s.mu.Unlock()

	return s.InitiatePayment(ctx, id)
}

func (s *Service) runCountdown(id string, gen uint64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.handleTick(id, gen) {
				return
			}
		case <-s.stop:
			return
		}
	}
}

// handleTick decrements the countdown for the session identified by gen.
// It returns false once the session is no longer current or no longer live,
// which stops the countdown goroutine.
func (s *Service) handleTick(id string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[id]
	if !ok {
		return false
	}
	session := flow.Session
	if session == nil || session.Generation != gen || session.Confirmed || session.Revoked {
		return false
	}

	session.SecondsRemaining--
	if session.SecondsRemaining > 0 {
		return true
	}

	session.SecondsRemaining = 0
	session.Revoked = true
	session.PromptSent = false
	if flow.confirmTimer != nil {
		flow.confirmTimer.Stop()
		flow.confirmTimer = nil
	}
	flow.UpdatedAt = s.clock.Now()
	log.Printf("payment prompt for checkout %s timed out", id)
	return false
}

// handleConfirm is the simulated customer approving the prompt. It is a
// no-op unless the session identified by gen is still the current live one,
// so a stale timer from a replaced attempt cannot corrupt a retry.
func (s *Service) handleConfirm(ctx context.Context, id string, gen uint64) {
	s.mu.Lock()

	flow, ok := s.flows[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	session := flow.Session
	if session == nil || session.Generation != gen || session.Confirmed || session.Revoked {
		s.mu.Unlock()
		return
	}

	session.Confirmed = true
	if flow.confirmTimer != nil {
		flow.confirmTimer.Stop()
		flow.confirmTimer = nil
	}
	flow.UpdatedAt = s.clock.Now()
	s.mu.Unlock()

	if err := s.submitOrder(ctx, id, gen); err != nil {
		log.Printf("order submission for checkout %s failed: %v", id, err)
	}
}
