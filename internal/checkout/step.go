package checkout

import (
	"fmt"
	"strings"
)

type Step string

const (
	StepReview       Step = "review"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

func (s Step) String() string {
	return string(s)
}

func (s Step) IsTerminal() bool {
	return s == StepConfirmation
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s Step) CanTransitionTo(next Step) bool {
	switch s {
	case StepReview:
		return next == StepPayment
	case StepPayment:
		return next == StepConfirmation
	default:
		return false
	}
}

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "card"
	MethodPayPal PaymentMethod = "paypal"
	MethodCrypto PaymentMethod = "crypto"
)

func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{MethodCard, MethodPayPal, MethodCrypto}
}

func ParsePaymentMethod(v string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(v)))
	switch m {
	case MethodCard, MethodPayPal, MethodCrypto:
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q: %w", v, ErrInvalidOperation)
}

// CardDetails are captured for card payments but never validated.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

func (c CardDetails) Last4() string {
	digits := make([]rune, 0, len(c.Number))
	for _, r := range c.Number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
