package cart

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(offerID, price string, qty int) LineItem {
	return LineItem{
		OfferID:   offerID,
		ProductID: "p-" + offerID,
		Title:     "title " + offerID,
		Platform:  "PC",
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestStore_AddSameOfferMerges(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o1", "42.99", 1))
	s.AddItem(line("o1", "42.99", 2))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("128.97").Equal(s.Total()), "total %s", s.Total())
	assert.Equal(t, 3, s.ItemCount())
}

func TestStore_AddKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o4", "29.99", 1))
	s.AddItem(line("o1", "42.99", 1))
	s.AddItem(line("o4", "29.99", 1))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "o4", items[0].OfferID)
	assert.Equal(t, "o1", items[1].OfferID)
}

func TestStore_AddNonPositiveQuantityCountsAsOne(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o1", "10", 0))
	s.AddItem(line("o2", "10", -3))

	assert.Equal(t, 2, s.ItemCount())
}

func TestStore_UpdateQuantityToZeroRemoves(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		qty  int
	}{
		{name: "zero", qty: 0},
		{name: "negative", qty: -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewStore()
			s.AddItem(line("o4", "29.99", 1))
			s.UpdateQuantity("o4", tt.qty)

			assert.Empty(t, s.Items())
			assert.True(t, s.Total().IsZero())
			assert.Equal(t, 0, s.ItemCount())
			_, ok := s.Item("o4")
			assert.False(t, ok)
		})
	}
}

func TestStore_UpdateQuantityIsAbsolute(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o1", "5.50", 4))
	s.UpdateQuantity("o1", 2)

	it, ok := s.Item("o1")
	require.True(t, ok)
	assert.Equal(t, 2, it.Quantity)
	assert.Equal(t, "11", s.Total().String())
}

func TestStore_MissingOfferIsNoop(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o1", "1.00", 1))

	s.RemoveItem("nope")
	s.UpdateQuantity("nope", 5)
	s.UpdateQuantity("nope", 0)

	require.Len(t, s.Items(), 1)
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o1", "1.00", 1))
	s.AddItem(line("o2", "2.00", 2))
	s.Clear()

	assert.True(t, s.IsEmpty())
	assert.NotNil(t, s.Items())
	assert.Empty(t, s.Items())
	assert.True(t, s.Total().IsZero())
}

func TestStore_ItemsIsACopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.AddItem(line("o1", "1.00", 1))

	items := s.Items()
	items[0].Quantity = 99

	it, _ := s.Item("o1")
	assert.Equal(t, 1, it.Quantity)
}

func TestStore_TotalsTrackRandomMutations(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	offers := []LineItem{
		line("o1", "42.99", 1),
		line("o4", "29.99", 1),
		line("o8", "39.99", 1),
		line("o15", "47.50", 1),
	}

	s := NewStore()
	for i := 0; i < 500; i++ {
		off := offers[rng.Intn(len(offers))]
		switch rng.Intn(3) {
		case 0:
			off.Quantity = rng.Intn(3) + 1
			s.AddItem(off)
		case 1:
			s.RemoveItem(off.OfferID)
		case 2:
			s.UpdateQuantity(off.OfferID, rng.Intn(5)-1)
		}

		snap := s.Snapshot()
		want := decimal.Zero
		count := 0
		seen := map[string]bool{}
		for _, li := range snap.Items {
			require.False(t, seen[li.OfferID], "duplicate row for %s", li.OfferID)
			seen[li.OfferID] = true
			require.GreaterOrEqual(t, li.Quantity, 1)
			want = want.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
			count += li.Quantity
		}
		require.True(t, want.Equal(snap.Total), "step %d: want %s got %s", i, want, snap.Total)
		require.True(t, want.Equal(s.Total()))
		require.Equal(t, count, snap.ItemCount)
		require.Equal(t, count, s.ItemCount())
	}
}
