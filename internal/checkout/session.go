// Package checkout implements the checkout state machine:
//
//	review --AdvanceToPayment--> payment --SubmitPayment--> confirmation
//
// A failed payment leaves the session in payment with the cart untouched.
// A successful one clears the cart and delivers exactly one key.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/keymarket/internal/cart"
	"github.com/Skotchmaster/keymarket/internal/logging"
)

type Options struct {
	SessionID      string
	Currency       string
	Processor      Processor
	Issuer         Issuer
	PaymentTimeout time.Duration
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.Processor == nil {
		o.Processor = SimulatedProcessor{Delay: DefaultPaymentDelay}
	}
	if o.Issuer == nil {
		o.Issuer = &MemoryIssuer{}
	}
	if o.PaymentTimeout <= 0 {
		o.PaymentTimeout = DefaultPaymentTimeout
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

type Session struct {
	cart *cart.Store
	opts Options

	mu         sync.Mutex
	step       Step
	method     PaymentMethod
	card       CardDetails
	processing bool
	delivered  *DeliveredKey
	lastErr    string
}

// Begin enters the review step for store. An empty cart is refused with
// ErrEmptyCart and no session is created; callers send the buyer back to
// the cart.
func Begin(store *cart.Store, opts Options) (*Session, error) {
	if store == nil || store.IsEmpty() {
		return nil, ErrEmptyCart
	}
	return &Session{
		cart:   store,
		opts:   opts.withDefaults(),
		step:   StepReview,
		method: MethodCard,
	}, nil
}

func (s *Session) ID() string {
	return s.opts.SessionID
}

// Guard re-applies the entry check for the current step. A confirmed
// session stays viewable after its cart was cleared.
func (s *Session) Guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.guardLocked()
}

func (s *Session) guardLocked() error {
	if s.step != StepConfirmation && s.cart.IsEmpty() {
		return ErrEmptyCart
	}
	return nil
}

func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step
}

func (s *Session) PaymentMethod() PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.method
}

func (s *Session) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.processing
}

// Delivered returns the key produced by a successful payment, if any.
func (s *Session) Delivered() (DeliveredKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delivered == nil {
		return DeliveredKey{}, false
	}
	return *s.delivered, true
}

// Review is the read-only summary shown on the review step.
func (s *Session) Review() cart.Snapshot {
	return s.cart.Snapshot()
}

type View struct {
	Step          Step          `json:"step"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Processing    bool          `json:"processing"`
	Cart          cart.Snapshot `json:"cart"`
	LastError     string        `json:"last_error,omitempty"`
	Key           *DeliveredKey `json:"key,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Step:          s.step,
		PaymentMethod: s.method,
		Processing:    s.processing,
		Cart:          s.cart.Snapshot(),
		LastError:     s.lastErr,
	}
	if s.delivered != nil {
		k := *s.delivered
		v.Key = &k
	}
	return v
}

func (s *Session) AdvanceToPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardLocked(); err != nil {
		return err
	}
	if !s.step.CanTransitionTo(StepPayment) {
		return fmt.Errorf("advance to payment from %s: %w", s.step, ErrInvalidOperation)
	}
	s.step = StepPayment
	return nil
}

func (s *Session) SelectPaymentMethod(m PaymentMethod) error {
	m, err := ParsePaymentMethod(string(m))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepPayment {
		return fmt.Errorf("select payment method in %s: %w", s.step, ErrInvalidOperation)
	}
	if s.processing {
		return ErrPaymentInProgress
	}
	s.method = m
	if m != MethodCard {
		s.card = CardDetails{}
	}
	return nil
}

func (s *Session) SetCardDetails(card CardDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != StepPayment || s.method != MethodCard {
		return fmt.Errorf("card details outside card payment: %w", ErrInvalidOperation)
	}
	if s.processing {
		return ErrPaymentInProgress
	}
	s.card = card
	return nil
}

// SubmitPayment charges the cart total and delivers the key. It blocks until
// the processor answers or PaymentTimeout elapses; cancelling ctx does not
// abort a payment that has started.
func (s *Session) SubmitPayment(ctx context.Context) (DeliveredKey, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.submit_payment", "session_id", s.opts.SessionID)

	s.mu.Lock()
	switch {
	case s.delivered != nil:
		orderID := s.delivered.OrderID
		s.mu.Unlock()
		l.Error("submit_payment_rejected", "reason", "key already delivered", "order_id", orderID, "error", ErrDuplicateDelivery)
		return DeliveredKey{}, ErrDuplicateDelivery
	case s.processing:
		s.mu.Unlock()
		l.Warn("submit_payment_rejected", "reason", "payment in flight")
		return DeliveredKey{}, ErrPaymentInProgress
	case s.step != StepPayment:
		step := s.step
		s.mu.Unlock()
		return DeliveredKey{}, fmt.Errorf("submit payment in %s: %w", step, ErrInvalidOperation)
	}

	snap := s.cart.Snapshot()
	if len(snap.Items) == 0 {
		s.mu.Unlock()
		return DeliveredKey{}, ErrEmptyCart
	}

	req := PaymentRequest{
		SessionID: s.opts.SessionID,
		Method:    s.method,
		Amount:    snap.Total,
		Currency:  s.opts.Currency,
	}
	if s.method == MethodCard {
		req.CardLast4 = s.card.Last4()
	}
	s.card = CardDetails{}
	s.processing = true
	s.lastErr = ""
	s.mu.Unlock()

	l.Info("payment_started", "method", req.Method, "amount", req.Amount.StringFixed(2), "items", snap.ItemCount)

	key, err := s.charge(ctx, req, snap)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.processing = false
	if err != nil {
		s.lastErr = err.Error()
		l.Warn("payment_failed", "status", 402, "error", err)
		return DeliveredKey{}, err
	}

	s.cart.Clear()
	s.delivered = &key
	s.step = StepConfirmation

	l.Info("payment_succeeded", "order_id", key.OrderID)
	return key, nil
}

func (s *Session) charge(ctx context.Context, req PaymentRequest, snap cart.Snapshot) (DeliveredKey, error) {
	payCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PaymentTimeout)
	defer cancel()

	receipt, err := s.opts.Processor.Charge(payCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return DeliveredKey{}, &PaymentError{Reason: "payment timed out", Err: err}
		}
		return DeliveredKey{}, &PaymentError{Reason: "payment declined", Err: err}
	}

	issued, err := s.opts.Issuer.Issue(payCtx, Order{
		SessionID: s.opts.SessionID,
		Method:    req.Method,
		Items:     snap.Items,
		Total:     snap.Total,
		Currency:  req.Currency,
		Receipt:   receipt,
	})
	if err != nil {
		return DeliveredKey{}, &PaymentError{Reason: "key delivery failed", Err: err}
	}
	if issued.Code == "" {
		return DeliveredKey{}, &PaymentError{Reason: "key delivery failed", Err: errors.New("empty redemption code")}
	}

	return DeliveredKey{
		Code:         issued.Code,
		OrderID:      issued.OrderID,
		ProductTitle: snap.Items[0].Title,
		DeliveredAt:  s.opts.Now(),
	}, nil
}

// WhileIdle runs fn unless a payment is in flight. Cart edits made through it
// land either before the payment snapshot or after the cart was cleared.
func (s *Session) WhileIdle(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		return ErrPaymentInProgress
	}
	fn()
	return nil
}

// ViewKey returns the delivered key again without touching it.
func (s *Session) ViewKey() (DeliveredKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delivered == nil {
		return DeliveredKey{}, fmt.Errorf("view key in %s: %w", s.step, ErrInvalidOperation)
	}
	return *s.delivered, nil
}

// MarkRedeemed flags the delivered key as redeemed. Repeated calls are no-ops.
func (s *Session) MarkRedeemed() (DeliveredKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.delivered == nil {
		return DeliveredKey{}, fmt.Errorf("mark redeemed in %s: %w", s.step, ErrInvalidOperation)
	}
	s.delivered.Redeemed = true
	return *s.delivered, nil
}
