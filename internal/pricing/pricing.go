// Package pricing computes checkout totals. All arithmetic goes through
// decimal so the 16% VAT line never picks up binary-float drift before it is
// handed back as KES amounts.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/Colligram/rurident-health-supply-sub001/domain"
)

const (
	// FreeDeliveryThreshold is the subtotal above which delivery is free.
	FreeDeliveryThreshold = 50_000

	// StandardDeliveryFee applies below the threshold.
	StandardDeliveryFee = 500
)

// VATRate is the Kenyan standard VAT rate applied to the subtotal.
var VATRate = decimal.NewFromFloat(0.16)

type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// Compute derives the order totals from the cart lines.
func Compute(lines []domain.CartLine) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		unit := decimal.NewFromFloat(line.UnitPrice)
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	delivery := decimal.NewFromInt(StandardDeliveryFee)
	if subtotal.GreaterThan(decimal.NewFromInt(FreeDeliveryThreshold)) {
		delivery = decimal.Zero
	}

	tax := subtotal.Mul(VATRate).Round(2)
	total := subtotal.Add(delivery).Add(tax)

	return Totals{
		Subtotal:    subtotal.InexactFloat64(),
		DeliveryFee: delivery.InexactFloat64(),
		Tax:         tax.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}
}
