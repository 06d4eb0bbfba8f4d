package checkout

import (
	"time"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/pricing"
)

// Flow is one customer's checkout attempt. All fields are guarded by the
// owning Service's mutex; timer callbacks re-check generation before
// touching anything.
type Flow struct {
	ID       string
	UserID   string
	Step     domain.CheckoutStep
	Customer domain.CustomerInfo

	// Items is the cart snapshot taken when the customer advanced past the
	// details step; totals and the final order are built from it.
	Items  []domain.CartLine
	Totals pricing.Totals

	Assessment *domain.FraudAssessment
	Session    *domain.PaymentSession
	Order      *domain.Order

	// SubmitFailed marks a confirmed payment whose order write failed.
	// The payment side succeeded, so the flow stays in Payment with a
	// guarded retry instead of un-confirming.
	SubmitFailed bool

	CreatedAt time.Time
	UpdatedAt time.Time

	confirmTimer *time.Timer
}

// State is an immutable snapshot of a Flow handed to transport.
type State struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	Step         domain.CheckoutStep     `json:"step"`
	Customer     domain.CustomerInfo     `json:"customer"`
	Items        []domain.CartLine       `json:"items"`
	Totals       pricing.Totals          `json:"totals"`
	Assessment   *domain.FraudAssessment `json:"assessment,omitempty"`
	Session      *domain.PaymentSession  `json:"session,omitempty"`
	Order        *domain.Order           `json:"order,omitempty"`
	SubmitFailed bool                    `json:"submit_failed,omitempty"`
}

func (f *Flow) snapshot() State {
	st := State{
		ID:           f.ID,
		UserID:       f.UserID,
		Step:         f.Step,
		Customer:     f.Customer,
		Items:        append([]domain.CartLine(nil), f.Items...),
		Totals:       f.Totals,
		SubmitFailed: f.SubmitFailed,
	}
	if f.Assessment != nil {
		a := *f.Assessment
		st.Assessment = &a
	}
	if f.Session != nil {
		s := *f.Session
		st.Session = &s
	}
	if f.Order != nil {
		o := *f.Order
		st.Order = &o
	}
	return st
}

// discardSession tears down the live payment session and its timers. The
// countdown goroutine notices the nil session on its next tick and exits.
func (f *Flow) discardSession() {
	if f.confirmTimer != nil {
		f.confirmTimer.Stop()
		f.confirmTimer = nil
	}
	f.Session = nil
}
