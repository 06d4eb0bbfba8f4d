package payment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Colligram/rurident-health-supply-sub001/internal/validate"
)

// GetPromptStatus decides the outcome of a simulated STK push. Split out as
// an interface so tests can force a particular outcome instead of rolling
// the dice.
type GetPromptStatus interface {
	GetStatus() (ok bool, message string)
}

type RandomStatus struct{}

func (RandomStatus) GetStatus() (bool, string) {
	randomInt := rand.Intn(101) // 101 because Intn is exclusive of the upper bound
	return calcStatus(randomInt)
}

func calcStatus(randomInt int) (bool, string) {
	if randomInt < 95 {
		return true, ""
	}
	return false, "request could not be delivered to handset"
}

// AlwaysAccept always delivers the prompt. Used where the flow itself owns
// the timeout behaviour and the gateway should not add a second failure mode.
type AlwaysAccept struct{}

func (AlwaysAccept) GetStatus() (bool, string) {
	return true, ""
}

// MpesaSimulator stands in for the Daraja STK push API. It validates the
// destination number, fabricates an M-Pesa receipt number and reports the
// prompt as delivered according to its status source.
type MpesaSimulator struct {
	status GetPromptStatus
}

func NewMpesaSimulator(status GetPromptStatus) *MpesaSimulator {
	return &MpesaSimulator{status: status}
}

func (g *MpesaSimulator) Initiate(_ context.Context, phone string, amount float64, orderRef string) (PromptResult, error) {
	if !validate.IsValidPhone(phone) {
		return PromptResult{
			Success: false,
			Message: "invalid phone number",
		}, nil
	}
	if amount <= 0 {
		return PromptResult{
			Success: false,
			Message: "amount must be positive",
		}, nil
	}

	ok, message := g.status.GetStatus()
	if !ok {
		return PromptResult{Success: false, Message: message}, nil
	}

	return PromptResult{
		Success:       true,
		TransactionID: newReceiptNumber(),
		Message:       fmt.Sprintf("STK push sent for order %s", orderRef),
	}, nil
}

// newReceiptNumber fabricates an M-Pesa style receipt: "MPS" plus 7 upper
// alphanumerics.
func newReceiptNumber() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	b.WriteString("MPS")
	for i := 0; i < 7; i++ {
		b.WriteByte(alphabet[rand.Intn(len(alphabet))])
	}
	return b.String()
}
