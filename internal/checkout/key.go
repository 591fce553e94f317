package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/keymarket/internal/cart"
)

// DeliveredKey is the redemption code handed to the buyer after payment.
type DeliveredKey struct {
	Code         string    `json:"code"`
	OrderID      string    `json:"order_id"`
	ProductTitle string    `json:"product_title"`
	Redeemed     bool      `json:"redeemed"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

// Order is what an Issuer records when a payment succeeds.
type Order struct {
	SessionID string
	Method    PaymentMethod
	Items     []cart.LineItem
	Total     decimal.Decimal
	Currency  string
	Receipt   Receipt
}

type Issued struct {
	OrderID string
	Code    string
}

type Issuer interface {
	Issue(ctx context.Context, order Order) (Issued, error)
}

var ErrCodeCollision = errors.New("redemption code already issued")

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeGroups   = 4
	codeGroupLen = 4
)

// GenerateCode returns a random code shaped like "7KQ2-MX9D-HPTA-3WZE".
func GenerateCode() (string, error) {
	buf := make([]byte, codeGroups*codeGroupLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	var b strings.Builder
	b.Grow(codeGroups*codeGroupLen + codeGroups - 1)
	for i, v := range buf {
		if i > 0 && i%codeGroupLen == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(codeAlphabet[int(v)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// MemoryIssuer keeps issued codes in process memory. It is used when no
// ledger is wired.
type MemoryIssuer struct {
	Generate func() (string, error)

	mu     sync.Mutex
	issued map[string]struct{}
}

const maxIssueAttempts = 3

func (m *MemoryIssuer) Issue(ctx context.Context, order Order) (Issued, error) {
	gen := m.Generate
	if gen == nil {
		gen = GenerateCode
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.issued == nil {
		m.issued = make(map[string]struct{})
	}

	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Issued{}, err
		}
		code, err := gen()
		if err != nil {
			return Issued{}, err
		}
		if _, taken := m.issued[code]; taken {
			continue
		}
		m.issued[code] = struct{}{}
		return Issued{OrderID: uuid.NewString(), Code: code}, nil
	}
	return Issued{}, ErrCodeCollision
}
