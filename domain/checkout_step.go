package domain

type CheckoutStep string

const (
	StepDetails      CheckoutStep = "DETAILS"
	StepPayment      CheckoutStep = "PAYMENT"
	StepConfirmation CheckoutStep = "CONFIRMATION"
)

func (s CheckoutStep) IsTerminal() bool {
	return s == StepConfirmation
}

// String representation (for logging)
func (s CheckoutStep) String() string {
	return string(s)
}

// CanTransitionTo enumerates the legal step edges. Confirmation is only
// reachable from Payment and never left; going back from Payment to Details
// is always allowed.
func CanTransitionTo(from, to CheckoutStep) bool {
	switch from {
	case StepDetails:
		return to == StepPayment
	case StepPayment:
		return to == StepDetails || to == StepConfirmation
	default:
		return false
	}
}
