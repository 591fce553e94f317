// Package events publishes cart and checkout domain events.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	TopicCart     = "cart_events"
	TopicCheckout = "checkout_events"
)

const (
	TypeItemAdded       = "cart_item_added"
	TypeItemUpdated     = "cart_item_updated"
	TypeItemRemoved     = "cart_item_removed"
	TypeCartCleared     = "cart_cleared"
	TypeCheckoutStarted = "checkout_started"
	TypePaymentStep     = "checkout_payment_step"
	TypePaymentFailed   = "checkout_payment_failed"
	TypeKeyDelivered    = "checkout_key_delivered"
	TypeKeyRedeemed     = "checkout_key_redeemed"
)

type Event struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"sessionID"`
	OfferID    string    `json:"offerID,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	OrderID    string    `json:"orderID,omitempty"`
	Method     string    `json:"method,omitempty"`
	Total      string    `json:"total,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event Event) error
	Close() error
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, Event) error { return nil }
func (Nop) Close() error                                        { return nil }

type Published struct {
	Topic string
	Key   string
	Event Event
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, topic, key string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, p := range r.Events() {
		if p.Topic == topic {
			out = append(out, p.Event.Type)
		}
	}
	return out
}
