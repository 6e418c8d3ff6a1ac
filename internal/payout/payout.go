package payout

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightsurety/internal/kafka"
)

// Transferrer executes the value transfer for a withdraw request. The
// ledger entry is already zeroed by the time the event reaches us, so a
// failed or repeated transfer can never double-spend the credit.
type Transferrer struct{}

func NewTransferrer() *Transferrer {
	return &Transferrer{}
}

func (t *Transferrer) Transfer(ctx context.Context, event kafka.SuretyEvent) error {
	fmt.Printf("transfer %d cents to %s\n", event.AmountCents, event.Passenger)
	return nil
}
