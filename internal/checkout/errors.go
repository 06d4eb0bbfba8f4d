package checkout

import "errors"

var (
	ErrFlowNotFound       = errors.New("checkout flow not found")
	ErrIllegalTransition  = errors.New("illegal checkout step transition")
	ErrMissingDetails     = errors.New("required customer details are missing")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrHighRiskBlocked    = errors.New("checkout blocked by fraud review, contact support")
	ErrPaymentInFlight    = errors.New("a payment prompt is already pending")
	ErrPaymentNotRevoked  = errors.New("payment session is not timed out")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrPromptRejected     = errors.New("payment prompt was rejected")
	ErrOrderSubmit        = errors.New("order could not be saved, try again")
)
