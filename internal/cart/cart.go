// Package cart holds the per-session shopping cart.
//
// Aggregates (Total, ItemCount) are reductions over the current rows and are
// never stored, so they cannot drift from Items.
package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	OfferID      string          `json:"offer_id"`
	ProductID    string          `json:"product_id"`
	Title        string          `json:"title"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Platform     string          `json:"platform"`
	SellerName   string          `json:"seller_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Store is one session's cart. At most one row exists per OfferID and rows
// keep insertion order.
type Store struct {
	mu    sync.RWMutex
	items []LineItem
}

func NewStore() *Store {
	return &Store{}
}

// AddItem merges line into the row with the same OfferID, or appends it.
// A non-positive quantity counts as one.
func (s *Store) AddItem(line LineItem) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(line.OfferID); i >= 0 {
		s.items[i].Quantity += line.Quantity
		return
	}
	s.items = append(s.items, line)
}

func (s *Store) RemoveItem(offerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(offerID)
}

// UpdateQuantity sets the absolute quantity of a row. quantity <= 0 removes
// it. Unknown offers are ignored.
func (s *Store) UpdateQuantity(offerID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(offerID)
		return
	}
	if i := s.indexOf(offerID); i >= 0 {
		s.items[i].Quantity = quantity
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// Items returns a copy of the rows in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Item(offerID string) (LineItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(offerID); i >= 0 {
		return s.items[i], true
	}
	return LineItem{}, false
}

func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return total(s.items)
}

func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return itemCount(s.items)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Snapshot is a consistent view of the cart taken under one lock.
type Snapshot struct {
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:     items,
		Total:     total(items),
		ItemCount: itemCount(items),
	}
}

func (s *Store) indexOf(offerID string) int {
	return slices.IndexFunc(s.items, func(li LineItem) bool { return li.OfferID == offerID })
}

func (s *Store) removeLocked(offerID string) {
	s.items = slices.DeleteFunc(s.items, func(li LineItem) bool { return li.OfferID == offerID })
}

func total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

func itemCount(items []LineItem) int {
	n := 0
	for _, li := range items {
		n += li.Quantity
	}
	return n
}
