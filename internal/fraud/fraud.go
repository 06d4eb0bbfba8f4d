// Package fraud scores a checkout attempt before payment is allowed.
package fraud

import (
	"fmt"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
	"github.com/Colligram/rurident-health-supply-sub001/internal/validate"
)

const (
	scoreInvalidEmail  = 30
	scoreInvalidPhone  = 40
	scoreLargeSubtotal = 25
	scoreManyHighValue = 20

	highRiskThreshold   = 60
	mediumRiskThreshold = 30

	largeSubtotalLimit = 500_000
	highValueUnitPrice = 100_000
	highValueLineLimit = 3
)

// Assess computes the fraud risk for one checkout attempt. The rules run in a
// fixed order and each triggered rule appends its reason, so the reasons list
// is deterministic for a given input.
func Assess(customer domain.CustomerInfo, lines []domain.CartLine) domain.FraudAssessment {
	score := 0
	var reasons []string

	if !validate.IsValidEmail(customer.Email) {
		score += scoreInvalidEmail
		reasons = append(reasons, "email address does not look valid")
	}

	if !validate.IsValidPhone(customer.Phone) {
		score += scoreInvalidPhone
		reasons = append(reasons, "phone number is not a Kenyan mobile number")
	}

	var subtotal float64
	highValueLines := 0
	for _, line := range lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
		if line.UnitPrice > highValueUnitPrice {
			highValueLines++
		}
	}

	if subtotal > largeSubtotalLimit {
		score += scoreLargeSubtotal
		reasons = append(reasons, fmt.Sprintf("order subtotal exceeds %s", validate.FormatKES(largeSubtotalLimit)))
	}

	if highValueLines > highValueLineLimit {
		score += scoreManyHighValue
		reasons = append(reasons, fmt.Sprintf("more than %d high-value items in cart", highValueLineLimit))
	}

	return domain.FraudAssessment{
		Score:   score,
		Risk:    riskFor(score),
		Reasons: reasons,
	}
}

func riskFor(score int) domain.RiskLevel {
	switch {
	case score >= highRiskThreshold:
		return domain.RiskHigh
	case score >= mediumRiskThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
