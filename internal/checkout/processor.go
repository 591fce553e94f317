package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultPaymentDelay   = 2 * time.Second
	DefaultPaymentTimeout = 30 * time.Second
)

type PaymentRequest struct {
	SessionID string
	Method    PaymentMethod
	Amount    decimal.Decimal
	Currency  string
	CardLast4 string
}

type Receipt struct {
	PaymentID string
	Method    PaymentMethod
	Amount    decimal.Decimal
	ChargedAt time.Time
}

type Processor interface {
	Charge(ctx context.Context, req PaymentRequest) (Receipt, error)
}

// SimulatedProcessor waits for Delay and then approves the charge. Decline,
// when set, may refuse a request after the delay.
type SimulatedProcessor struct {
	Delay   time.Duration
	Decline func(PaymentRequest) error
}

func (p SimulatedProcessor) Charge(ctx context.Context, req PaymentRequest) (Receipt, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}

	if p.Decline != nil {
		if err := p.Decline(req); err != nil {
			return Receipt{}, err
		}
	}

	return Receipt{
		PaymentID: uuid.NewString(),
		Method:    req.Method,
		Amount:    req.Amount,
		ChargedAt: time.Now().UTC(),
	}, nil
}
