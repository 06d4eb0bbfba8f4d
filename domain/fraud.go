package domain

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) String() string {
	return string(r)
}

// FraudAssessment is computed once per checkout attempt when the customer
// advances past the details step, and is immutable afterwards.
type FraudAssessment struct {
	Score   int       `json:"score"`
	Risk    RiskLevel `json:"risk"`
	Reasons []string  `json:"reasons,omitempty"`
}

// Blocking reports whether the assessment forbids payment initiation.
func (a FraudAssessment) Blocking() bool {
	return a.Risk == RiskHigh
}
