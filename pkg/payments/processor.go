// Package payments implements course purchase with a simulated payment
// processor.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Processor charges an amount and returns the processor's payment ID.
type Processor interface {
	Charge(ctx context.Context, amount float64) (string, error)
}

// SimulatedProcessor stands in for a real payment gateway. It always
// approves after a short delay.
type SimulatedProcessor struct {
	delay time.Duration
}

// NewSimulatedProcessor creates a SimulatedProcessor with the given delay.
func NewSimulatedProcessor(delay time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{delay: delay}
}

// Charge waits out the simulated processing delay and returns a payment ID.
func (p *SimulatedProcessor) Charge(ctx context.Context, amount float64) (string, error) {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return fmt.Sprintf("pay_%s", uuid.NewString()), nil
}
