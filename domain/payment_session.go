package domain

// PaymentSession is the ephemeral state of one STK push attempt. Exactly one
// session is live per checkout flow; a new attempt replaces it wholesale.
//
// Generation increases monotonically across attempts within a flow so that a
// timer scheduled for an old session can detect it is stale. Boolean flags
// alone are not enough: a fast retry can flip Revoked back before an old
// callback runs.
type PaymentSession struct {
	Generation       uint64 `json:"-"`
	PromptSent       bool   `json:"prompt_sent"`
	Confirmed        bool   `json:"confirmed"`
	Revoked          bool   `json:"revoked"`
	SecondsRemaining int    `json:"seconds_remaining"`
	TransactionID    string `json:"transaction_id,omitempty"`
}

// Live reports whether the session can still be confirmed.
func (s PaymentSession) Live() bool {
	return s.PromptSent && !s.Confirmed && !s.Revoked
}
