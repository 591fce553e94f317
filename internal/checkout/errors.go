package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrDuplicateDelivery = errors.New("key already delivered for this session")
)

// PaymentError is returned by SubmitPayment when the charge or the key
// issuance fails. The session stays in StepPayment and may be retried.
type PaymentError struct {
	Reason string
	Err    error
}

func (e *PaymentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrPaymentFailed, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", ErrPaymentFailed, e.Reason, e.Err)
}

func (e *PaymentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPaymentFailed}
	}
	return []error{ErrPaymentFailed, e.Err}
}
