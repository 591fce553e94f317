package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/keymarket/internal/cart"
	"github.com/Skotchmaster/keymarket/internal/catalog"
	"github.com/Skotchmaster/keymarket/internal/events"
	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/session"
)

var (
	ErrValidation  = errors.New("validation")
	ErrNotFound    = errors.New("not found")
	ErrNoCheckout  = errors.New("no active checkout")
	publishTimeout = 5 * time.Second
)

func publish(ctx context.Context, p events.Publisher, topic string, ev events.Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, topic, ev.SessionID, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", ev.Type, "error", err)
	}
}

type CartService struct {
	Catalog *catalog.Catalog
	Events  events.Publisher
}

func (s *CartService) GetCart(_ context.Context, e *session.Entry) cart.Snapshot {
	return e.Cart.Snapshot()
}

// LineItemFor copies the display data of an offer into a cart row.
func (s *CartService) LineItemFor(offerID string, quantity int) (cart.LineItem, error) {
	offer, ok := s.Catalog.LookupOffer(offerID)
	if !ok {
		return cart.LineItem{}, fmt.Errorf("offer %s: %w", offerID, ErrNotFound)
	}
	product, ok := s.Catalog.LookupProduct(offer.ProductID)
	if !ok {
		return cart.LineItem{}, fmt.Errorf("product %s: %w", offer.ProductID, ErrNotFound)
	}
	seller, ok := s.Catalog.LookupSeller(offer.SellerID)
	if !ok {
		return cart.LineItem{}, fmt.Errorf("seller %s: %w", offer.SellerID, ErrNotFound)
	}

	return cart.LineItem{
		OfferID:      offer.ID,
		ProductID:    product.ID,
		Title:        product.Title,
		ThumbnailURL: product.ThumbnailURL,
		Platform:     string(product.Platform),
		SellerName:   seller.Name,
		UnitPrice:    offer.Price,
		Quantity:     quantity,
	}, nil
}

func (s *CartService) AddToCart(ctx context.Context, e *session.Entry, offerID string, quantity int) (cart.Snapshot, error) {
	offerID = strings.TrimSpace(offerID)
	if offerID == "" {
		return cart.Snapshot{}, fmt.Errorf("offer_id required: %w", ErrValidation)
	}
	if quantity < 0 {
		return cart.Snapshot{}, fmt.Errorf("quantity must not be negative: %w", ErrValidation)
	}

	line, err := s.LineItemFor(offerID, quantity)
	if err != nil {
		return cart.Snapshot{}, err
	}

	var added int
	err = e.MutateCart(func(c *cart.Store) {
		c.AddItem(line)
		if it, ok := c.Item(offerID); ok {
			added = it.Quantity
		}
	})
	if err != nil {
		return cart.Snapshot{}, err
	}

	publish(ctx, s.Events, events.TopicCart, events.Event{
		Type:      events.TypeItemAdded,
		SessionID: e.ID,
		OfferID:   offerID,
		Quantity:  added,
	})
	return e.Cart.Snapshot(), nil
}

// UpdateQuantity sets an absolute quantity; zero or less removes the row.
// Unknown offers leave the cart unchanged.
func (s *CartService) UpdateQuantity(ctx context.Context, e *session.Entry, offerID string, quantity int) (cart.Snapshot, error) {
	if strings.TrimSpace(offerID) == "" {
		return cart.Snapshot{}, fmt.Errorf("offer id required: %w", ErrValidation)
	}

	var present bool
	err := e.MutateCart(func(c *cart.Store) {
		_, present = c.Item(offerID)
		c.UpdateQuantity(offerID, quantity)
	})
	if err != nil {
		return cart.Snapshot{}, err
	}

	if present {
		typ := events.TypeItemUpdated
		if quantity <= 0 {
			typ = events.TypeItemRemoved
		}
		publish(ctx, s.Events, events.TopicCart, events.Event{Type: typ, SessionID: e.ID, OfferID: offerID, Quantity: max(quantity, 0)})
	}
	return e.Cart.Snapshot(), nil
}

func (s *CartService) RemoveItem(ctx context.Context, e *session.Entry, offerID string) (cart.Snapshot, error) {
	var present bool
	err := e.MutateCart(func(c *cart.Store) {
		_, present = c.Item(offerID)
		c.RemoveItem(offerID)
	})
	if err != nil {
		return cart.Snapshot{}, err
	}

	if present {
		publish(ctx, s.Events, events.TopicCart, events.Event{Type: events.TypeItemRemoved, SessionID: e.ID, OfferID: offerID})
	}
	return e.Cart.Snapshot(), nil
}

func (s *CartService) ClearCart(ctx context.Context, e *session.Entry) error {
	if err := e.MutateCart(func(c *cart.Store) { c.Clear() }); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, events.Event{Type: events.TypeCartCleared, SessionID: e.ID})
	return nil
}
