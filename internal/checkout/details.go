package checkout

import (
	"context"
	"fmt"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/fraud"
	"github.com/Colligram/rurident-health-supply-sub001/internal/pricing"
)

// SubmitDetails records the customer's details and advances the flow to the
// payment step. The cart is snapshotted and the fraud assessment computed at
// this point; going back and re-advancing recomputes both.
func (s *Service) SubmitDetails(ctx context.Context, id string, customer domain.CustomerInfo) (State, error) {
	if !customer.RequiredFieldsPresent() {
		return State{}, ErrMissingDetails
	}

	s.mu.RLock()
	flow, ok := s.flows[id]
	s.mu.RUnlock()
	if !ok {
		return State{}, ErrFlowNotFound
	}

	// Cart fetch happens outside the lock; the result is applied under it.
	cart, err := s.cart.GetCart(ctx, flow.UserID)
	if err != nil {
		return State{}, fmt.Errorf("fetch cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return State{}, ErrEmptyCart
	}

	assessment := fraud.Assess(customer, cart.Items)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.flows[id]; !ok {
		return State{}, ErrFlowNotFound
	}
	if !domain.CanTransitionTo(flow.Step, domain.StepPayment) {
		return State{}, ErrIllegalTransition
	}

	flow.Customer = customer
	flow.Items = append([]domain.CartLine(nil), cart.Items...)
	flow.Totals = pricing.Compute(flow.Items)
	flow.Assessment = &assessment
	flow.Step = domain.StepPayment
	flow.UpdatedAt = s.clock.Now()

	return flow.snapshot(), nil
}

// Back returns the flow from the payment step to the details step. Entered
// data is kept. A live payment session is torn down rather than left ticking
// in the background, so a prompt approved after navigating back can never
// produce an order the customer no longer expects.
func (s *Service) Back(_ context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[id]
	if !ok {
		return State{}, ErrFlowNotFound
	}
	if !domain.CanTransitionTo(flow.Step, domain.StepDetails) {
		return State{}, ErrIllegalTransition
	}

	flow.discardSession()
	flow.Step = domain.StepDetails
	flow.SubmitFailed = false
	flow.UpdatedAt = s.clock.Now()

	return flow.snapshot(), nil
}
