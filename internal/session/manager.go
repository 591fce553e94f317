// Package session owns the per-browser cart and checkout state. An entry is
// created on the first request without a valid session cookie and disposed
// after it has been idle for the manager's TTL.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/keymarket/internal/cart"
	"github.com/Skotchmaster/keymarket/internal/checkout"
	"github.com/Skotchmaster/keymarket/internal/logging"
)

const DefaultTTL = 30 * time.Minute

type Entry struct {
	ID   string
	Cart *cart.Store

	mu       sync.Mutex
	checkout *checkout.Session
	lastSeen time.Time
}

func (e *Entry) Checkout() *checkout.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.checkout
}

func (e *Entry) LastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastSeen
}

// StartCheckout resumes a checkout that is still in review or payment and
// otherwise begins a new one over the entry's cart. A finished checkout is
// kept when the new one cannot begin, so its key stays viewable.
func (e *Entry) StartCheckout(opts checkout.Options) (*checkout.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkout != nil && !e.checkout.CurrentStep().IsTerminal() {
		if err := e.checkout.Guard(); err == nil || e.checkout.Processing() {
			return e.checkout, nil
		}
	}

	opts.SessionID = e.ID
	s, err := checkout.Begin(e.Cart, opts)
	if err != nil {
		return nil, err
	}
	e.checkout = s
	return s, nil
}

// MutateCart applies fn to the cart unless the entry's checkout is charging
// it, in which case checkout.ErrPaymentInProgress is returned.
func (e *Entry) MutateCart(fn func(*cart.Store)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkout == nil {
		fn(e.Cart)
		return nil
	}
	return e.checkout.WhileIdle(func() { fn(e.Cart) })
}

// PaymentInFlight reports whether the entry's checkout is charging the cart.
func (e *Entry) PaymentInFlight() bool {
	s := e.Checkout()
	return s != nil && s.Processing()
}

type Manager struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		TTL:     ttl,
		Now:     time.Now,
		entries: make(map[string]*Entry),
	}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Manager) Create() *Entry {
	e := &Entry{
		ID:       uuid.NewString(),
		Cart:     cart.NewStore(),
		lastSeen: m.now(),
	}

	m.mu.Lock()
	m.entries[e.ID] = e
	m.mu.Unlock()
	return e
}

// Get returns a live entry. An entry past its TTL is treated as gone even
// before the sweeper removes it.
func (m *Manager) Get(id string) (*Entry, bool) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok || m.expired(e) {
		return nil, false
	}
	return e, true
}

func (m *Manager) Touch(e *Entry) {
	e.mu.Lock()
	e.lastSeen = m.now()
	e.mu.Unlock()
}

func (m *Manager) Dispose(id string) {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *Manager) expired(e *Entry) bool {
	if e.PaymentInFlight() {
		return false
	}
	return m.now().Sub(e.LastSeen()) > m.TTL
}

// Sweep disposes idle entries and returns how many were removed. Entries
// with a payment in flight are never swept.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	l := logging.FromContext(ctx).With("svc", "session.sweeper")
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				l.Info("sessions_expired", "count", n, "active", m.Len())
			}
		case <-ctx.Done():
			return
		}
	}
}
