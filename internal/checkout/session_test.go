package checkout

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/keymarket/internal/cart"
)

func filledCart(t *testing.T) *cart.Store {
	t.Helper()

	s := cart.NewStore()
	s.AddItem(cart.LineItem{OfferID: "o1", ProductID: "p1", Title: "Elden Ring", UnitPrice: decimal.RequireFromString("42.99"), Quantity: 1})
	s.AddItem(cart.LineItem{OfferID: "o4", ProductID: "p2", Title: "Cyberpunk 2077", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 1})
	return s
}

func instant() Options {
	return Options{SessionID: "sess-1", Processor: SimulatedProcessor{}}
}

// gateProcessor blocks every charge until release is closed.
type gateProcessor struct {
	entered chan struct{}
	release chan struct{}
	err     error
}

func newGate() *gateProcessor {
	return &gateProcessor{entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (g *gateProcessor) Charge(ctx context.Context, req PaymentRequest) (Receipt, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
	if g.err != nil {
		return Receipt{}, g.err
	}
	return Receipt{PaymentID: "pay", Method: req.Method, Amount: req.Amount, ChargedAt: time.Now()}, nil
}

func atPayment(t *testing.T, store *cart.Store, opts Options) *Session {
	t.Helper()

	s, err := Begin(store, opts)
	require.NoError(t, err)
	require.NoError(t, s.AdvanceToPayment())
	return s
}

func TestBegin_EmptyCartIsRefused(t *testing.T) {
	t.Parallel()

	s, err := Begin(cart.NewStore(), instant())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, s)

	s, err = Begin(nil, instant())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, s)
}

func TestSession_StartsInReviewWithCard(t *testing.T) {
	t.Parallel()

	s, err := Begin(filledCart(t), instant())
	require.NoError(t, err)

	assert.Equal(t, StepReview, s.CurrentStep())
	assert.Equal(t, MethodCard, s.PaymentMethod())
	assert.False(t, s.Processing())
	_, ok := s.Delivered()
	assert.False(t, ok)

	v := s.View()
	assert.Equal(t, "72.98", v.Cart.Total.StringFixed(2))
	assert.Equal(t, 2, v.Cart.ItemCount)
	assert.Nil(t, v.Key)
}

func TestSession_AdvanceGuardsEmptyCart(t *testing.T) {
	t.Parallel()

	store := filledCart(t)
	s, err := Begin(store, instant())
	require.NoError(t, err)

	store.Clear()
	require.ErrorIs(t, s.Guard(), ErrEmptyCart)
	require.ErrorIs(t, s.AdvanceToPayment(), ErrEmptyCart)
	assert.Equal(t, StepReview, s.CurrentStep())
}

func TestSession_AdvanceOnlyFromReview(t *testing.T) {
	t.Parallel()

	s := atPayment(t, filledCart(t), instant())
	require.ErrorIs(t, s.AdvanceToPayment(), ErrInvalidOperation)
	assert.Equal(t, StepPayment, s.CurrentStep())
}

func TestSession_SelectPaymentMethod(t *testing.T) {
	t.Parallel()

	s, err := Begin(filledCart(t), instant())
	require.NoError(t, err)
	require.ErrorIs(t, s.SelectPaymentMethod(MethodPayPal), ErrInvalidOperation)

	require.NoError(t, s.AdvanceToPayment())
	require.NoError(t, s.SelectPaymentMethod(MethodCrypto))
	assert.Equal(t, MethodCrypto, s.PaymentMethod())

	require.ErrorIs(t, s.SelectPaymentMethod("cheque"), ErrInvalidOperation)
	assert.Equal(t, MethodCrypto, s.PaymentMethod())

	require.ErrorIs(t, s.SetCardDetails(CardDetails{Number: "4111"}), ErrInvalidOperation)
	require.NoError(t, s.SelectPaymentMethod(MethodCard))
	require.NoError(t, s.SetCardDetails(CardDetails{Number: "4111 1111 1111 1234", Expiry: "12/29", CVV: "123"}))
}

func TestSession_SubmitPaymentDeliversAndClearsCart(t *testing.T) {
	t.Parallel()

	store := filledCart(t)
	s := atPayment(t, store, instant())

	key, err := s.SubmitPayment(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, key.Code)
	assert.NotEmpty(t, key.OrderID)
	assert.Equal(t, "Elden Ring", key.ProductTitle)
	assert.False(t, key.Redeemed)

	assert.Equal(t, StepConfirmation, s.CurrentStep())
	assert.False(t, s.Processing())
	assert.Empty(t, store.Items())
	assert.Equal(t, 0, store.ItemCount())

	delivered, ok := s.Delivered()
	require.True(t, ok)
	assert.Equal(t, key, delivered)

	// a confirmed session stays viewable on an empty cart
	require.NoError(t, s.Guard())
}

func TestSession_SubmitOutsidePaymentStep(t *testing.T) {
	t.Parallel()

	s, err := Begin(filledCart(t), instant())
	require.NoError(t, err)

	_, err = s.SubmitPayment(context.Background())
	require.ErrorIs(t, err, ErrInvalidOperation)
	assert.Equal(t, StepReview, s.CurrentStep())
}

func TestSession_SecondSubmitIsRejectedNotQueued(t *testing.T) {
	t.Parallel()

	gate := newGate()
	opts := instant()
	opts.Processor = gate
	store := filledCart(t)
	s := atPayment(t, store, opts)

	type result struct {
		key DeliveredKey
		err error
	}
	first := make(chan result, 1)
	go func() {
		k, err := s.SubmitPayment(context.Background())
		first <- result{k, err}
	}()

	<-gate.entered
	assert.True(t, s.Processing())
	assert.False(t, store.IsEmpty(), "cart must not clear before payment succeeds")

	_, err := s.SubmitPayment(context.Background())
	require.ErrorIs(t, err, ErrPaymentInProgress)
	require.ErrorIs(t, s.SelectPaymentMethod(MethodPayPal), ErrPaymentInProgress)

	close(gate.release)
	r := <-first
	require.NoError(t, r.err)

	_, err = s.SubmitPayment(context.Background())
	require.ErrorIs(t, err, ErrDuplicateDelivery)

	delivered, ok := s.Delivered()
	require.True(t, ok)
	assert.Equal(t, r.key.Code, delivered.Code)
	assert.Len(t, gate.entered, 0, "processor charged only once")
}

func TestSession_ConcurrentSubmitsDeliverOneKey(t *testing.T) {
	t.Parallel()

	issuer := &countingIssuer{}
	opts := instant()
	opts.Processor = SimulatedProcessor{Delay: 20 * time.Millisecond}
	opts.Issuer = issuer
	s := atPayment(t, filledCart(t), opts)

	var wg sync.WaitGroup
	var mu sync.Mutex
	codes := map[string]int{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, err := s.SubmitPayment(context.Background())
			if err != nil {
				assert.True(t, errors.Is(err, ErrPaymentInProgress) || errors.Is(err, ErrDuplicateDelivery), "unexpected error %v", err)
				return
			}
			mu.Lock()
			codes[k.Code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, codes, 1)
	assert.Equal(t, 1, issuer.calls())
}

type countingIssuer struct {
	mu sync.Mutex
	n  int
	MemoryIssuer
}

func (c *countingIssuer) Issue(ctx context.Context, o Order) (Issued, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return c.MemoryIssuer.Issue(ctx, o)
}

func (c *countingIssuer) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestSession_DeclineKeepsCartAndAllowsRetry(t *testing.T) {
	t.Parallel()

	declined := errors.New("card declined")
	tries := 0
	opts := instant()
	opts.Processor = SimulatedProcessor{Decline: func(PaymentRequest) error {
		tries++
		if tries == 1 {
			return declined
		}
		return nil
	}}
	store := filledCart(t)
	s := atPayment(t, store, opts)

	_, err := s.SubmitPayment(context.Background())
	require.ErrorIs(t, err, ErrPaymentFailed)
	require.ErrorIs(t, err, declined)

	var perr *PaymentError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "payment declined", perr.Reason)

	assert.Equal(t, StepPayment, s.CurrentStep())
	assert.False(t, s.Processing())
	assert.Equal(t, 2, store.Len())
	assert.Contains(t, s.View().LastError, "card declined")
	_, ok := s.Delivered()
	assert.False(t, ok)

	key, err := s.SubmitPayment(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, key.Code)
	assert.Empty(t, s.View().LastError)
	assert.True(t, store.IsEmpty())
}

func TestSession_PaymentTimeout(t *testing.T) {
	t.Parallel()

	opts := instant()
	opts.Processor = SimulatedProcessor{Delay: time.Minute}
	opts.PaymentTimeout = 20 * time.Millisecond
	store := filledCart(t)
	s := atPayment(t, store, opts)

	_, err := s.SubmitPayment(context.Background())
	require.ErrorIs(t, err, ErrPaymentFailed)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StepPayment, s.CurrentStep())
	assert.False(t, s.Processing())
	assert.False(t, store.IsEmpty())
}

func TestSession_IssuerFailureIsPaymentFailure(t *testing.T) {
	t.Parallel()

	opts := instant()
	opts.Issuer = failingIssuer{err: errors.New("ledger down")}
	store := filledCart(t)
	s := atPayment(t, store, opts)

	_, err := s.SubmitPayment(context.Background())
	require.ErrorIs(t, err, ErrPaymentFailed)
	assert.Equal(t, StepPayment, s.CurrentStep())
	assert.False(t, store.IsEmpty())
}

type failingIssuer struct{ err error }

func (f failingIssuer) Issue(context.Context, Order) (Issued, error) { return Issued{}, f.err }

func TestSession_CallerCancelDoesNotAbortPayment(t *testing.T) {
	t.Parallel()

	gate := newGate()
	opts := instant()
	opts.Processor = gate
	s := atPayment(t, filledCart(t), opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.SubmitPayment(ctx)
		done <- err
	}()

	<-gate.entered
	cancel()
	close(gate.release)

	require.NoError(t, <-done)
	assert.Equal(t, StepConfirmation, s.CurrentStep())
}

func TestSession_ViewKeyAndMarkRedeemed(t *testing.T) {
	t.Parallel()

	s := atPayment(t, filledCart(t), instant())

	_, err := s.ViewKey()
	require.ErrorIs(t, err, ErrInvalidOperation)
	_, err = s.MarkRedeemed()
	require.ErrorIs(t, err, ErrInvalidOperation)

	key, err := s.SubmitPayment(context.Background())
	require.NoError(t, err)

	again, err := s.ViewKey()
	require.NoError(t, err)
	assert.Equal(t, key, again)

	redeemed, err := s.MarkRedeemed()
	require.NoError(t, err)
	assert.True(t, redeemed.Redeemed)
	assert.Equal(t, key.Code, redeemed.Code)

	redeemed, err = s.MarkRedeemed()
	require.NoError(t, err)
	assert.True(t, redeemed.Redeemed)
	assert.Equal(t, StepConfirmation, s.CurrentStep())
}

func TestSession_CardNumberIsNotRetained(t *testing.T) {
	t.Parallel()

	var seen PaymentRequest
	opts := instant()
	opts.Processor = SimulatedProcessor{Decline: func(r PaymentRequest) error { seen = r; return nil }}
	s := atPayment(t, filledCart(t), opts)
	require.NoError(t, s.SetCardDetails(CardDetails{Number: "4111-1111-1111-9876", Expiry: "01/30", CVV: "999"}))

	_, err := s.SubmitPayment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9876", seen.CardLast4)
	assert.Equal(t, "72.98", seen.Amount.StringFixed(2))
	assert.Equal(t, "USD", seen.Currency)
	assert.Equal(t, CardDetails{}, s.card)
}

var codePattern = regexp.MustCompile(`^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`)

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Regexp(t, codePattern, code)
		require.NotContains(t, code, "O")
		require.NotContains(t, code, "I")
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestMemoryIssuer_SkipsIssuedCodes(t *testing.T) {
	t.Parallel()

	codes := []string{"AAAA", "AAAA", "BBBB", "AAAA", "AAAA", "AAAA"}
	i := 0
	m := &MemoryIssuer{Generate: func() (string, error) { c := codes[i]; i++; return c, nil }}

	first, err := m.Issue(context.Background(), Order{})
	require.NoError(t, err)
	assert.Equal(t, "AAAA", first.Code)

	second, err := m.Issue(context.Background(), Order{})
	require.NoError(t, err)
	assert.Equal(t, "BBBB", second.Code)
	assert.NotEqual(t, first.OrderID, second.OrderID)

	_, err = m.Issue(context.Background(), Order{})
	require.ErrorIs(t, err, ErrCodeCollision)
}

func TestStep_CanTransitionTo(t *testing.T) {
	t.Parallel()

	assert.True(t, StepReview.CanTransitionTo(StepPayment))
	assert.False(t, StepReview.CanTransitionTo(StepConfirmation))
	assert.True(t, StepPayment.CanTransitionTo(StepConfirmation))
	assert.False(t, StepPayment.CanTransitionTo(StepReview))
	assert.False(t, StepConfirmation.CanTransitionTo(StepReview))
	assert.True(t, StepConfirmation.IsTerminal())
}

func TestParsePaymentMethod(t *testing.T) {
	t.Parallel()

	m, err := ParsePaymentMethod(" PayPal ")
	require.NoError(t, err)
	assert.Equal(t, MethodPayPal, m)

	_, err = ParsePaymentMethod("gold")
	require.ErrorIs(t, err, ErrInvalidOperation)
}

func TestSession_WhileIdle(t *testing.T) {
	t.Parallel()

	gate := newGate()
	opts := instant()
	opts.Processor = gate
	store := filledCart(t)
	s := atPayment(t, store, opts)

	ran := false
	require.NoError(t, s.WhileIdle(func() { ran = true }))
	assert.True(t, ran)

	done := make(chan error, 1)
	go func() {
		_, err := s.SubmitPayment(context.Background())
		done <- err
	}()
	<-gate.entered

	require.ErrorIs(t, s.WhileIdle(func() { store.Clear() }), ErrPaymentInProgress)
	assert.Equal(t, 2, store.Len())

	close(gate.release)
	require.NoError(t, <-done)
	require.NoError(t, s.WhileIdle(func() {}))
}
