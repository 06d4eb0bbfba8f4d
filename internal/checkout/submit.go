package checkout

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
)

// RetrySubmit retries the order write after a gateway failure. The payment
// is already confirmed at this point, so the precondition guard is the same
// one submitOrder enforces.
func (s *Service) RetrySubmit(ctx context.Context, id string) (State, error) {
	s.mu.RLock()
	flow, ok := s.flows[id]
	var gen uint64
	if ok && flow.Session != nil {
		gen = flow.Session.Generation
	}
	s.mu.RUnlock()

	if !ok {
		return State{}, ErrFlowNotFound
	}

	if err := s.submitOrder(ctx, id, gen); err != nil {
		return State{}, err
	}
	return s.Get(ctx, id)
}

// submitOrder builds and persists the order for a confirmed payment session.
// It never calls the order store unless the session identified by gen is the
// current one, confirmed, not revoked, and the checkout is not high risk.
func (s *Service) submitOrder(ctx context.Context, id string, gen uint64) error {
	s.mu.Lock()

	flow, ok := s.flows[id]
	if !ok {
		s.mu.Unlock()
		return ErrFlowNotFound
	}
	if flow.Order != nil {
		s.mu.Unlock()
		return nil // already submitted
	}
	session := flow.Session
	if session == nil || session.Generation != gen || !session.Confirmed || session.Revoked {
		s.mu.Unlock()
		return ErrPaymentNotConfirmed
	}
	if flow.Assessment == nil || flow.Assessment.Blocking() {
		s.mu.Unlock()
		return ErrHighRiskBlocked
	}

	order := s.buildOrder(flow)
	userID := flow.UserID
	s.mu.Unlock()

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		// The customer has been charged but the order write failed. Keep
		// the confirmed session and the cart so the attempt can be retried,
		// and leave a reconciliation trail in the logs.
		log.Printf("RECONCILE: payment %s confirmed for checkout %s but order %s not persisted: %v",
			order.TransactionID, id, order.OrderNumber, err)

		s.mu.Lock()
		if f, ok := s.flows[id]; ok && f.Session != nil && f.Session.Generation == gen {
			f.SubmitFailed = true
			f.UpdatedAt = s.clock.Now()
		}
		s.mu.Unlock()
		return ErrOrderSubmit
	}

	if err := s.cart.ClearCart(ctx, userID); err != nil {
		// The order exists; a stale cart is an annoyance, not a failure.
		log.Printf("failed to clear cart for user %s after order %s: %v", userID, order.OrderNumber, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok = s.flows[id]
	if !ok {
		return nil
	}
	if flow.Session == nil || flow.Session.Generation != gen {
		// The order is persisted but the flow moved on meanwhile; the
		// customer will find it in their order history.
		log.Printf("order %s persisted for checkout %s after the flow was replaced", order.OrderNumber, id)
		return nil
	}

	flow.Order = order
	flow.Step = domain.StepConfirmation
	flow.SubmitFailed = false
	flow.discardSession()
	flow.UpdatedAt = s.clock.Now()
	log.Printf("order %s created for checkout %s", order.OrderNumber, id)
	return nil
}

func (s *Service) buildOrder(flow *Flow) *domain.Order {
	items := make([]domain.OrderItem, len(flow.Items))
	for i, line := range flow.Items {
		items[i] = domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		}
	}

	return &domain.Order{
		OrderNumber:   newOrderNumber(),
		UserID:        flow.UserID,
		Customer:      flow.Customer,
		Items:         items,
		Subtotal:      flow.Totals.Subtotal,
		DeliveryFee:   flow.Totals.DeliveryFee,
		Tax:           flow.Totals.Tax,
		Total:         flow.Totals.Total,
		PaymentMethod: "mpesa",
		PaymentStatus: domain.PaymentStatusConfirmed,
		Status:        domain.OrderStatusPending,
		RiskLevel:     flow.Assessment.Risk,
		TransactionID: flow.Session.TransactionID,
		CreatedAt:     s.clock.Now(),
	}
}

// newOrderNumber produces customer-facing numbers like "RHS-1A2B3C4D".
func newOrderNumber() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RHS-" + raw[:8]
}
