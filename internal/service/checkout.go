package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/keymarket/internal/checkout"
	"github.com/Skotchmaster/keymarket/internal/events"
	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/models"
	"github.com/Skotchmaster/keymarket/internal/session"
	"github.com/Skotchmaster/keymarket/internal/util"
)

type OrderLister interface {
	ListOrdersBySession(ctx context.Context, sessionID string, limit, offset int) ([]models.Order, int64, error)
}

type CheckoutService struct {
	Orders  OrderLister
	Events  events.Publisher
	Options checkout.Options
}

func (s *CheckoutService) active(e *session.Entry) (*checkout.Session, error) {
	cs := e.Checkout()
	if cs == nil {
		return nil, ErrNoCheckout
	}
	return cs, nil
}

func (s *CheckoutService) Begin(ctx context.Context, e *session.Entry) (checkout.View, error) {
	cs, err := e.StartCheckout(s.Options)
	if err != nil {
		return checkout.View{}, err
	}

	if cs.CurrentStep() == checkout.StepReview {
		rev := cs.Review()
		publish(ctx, s.Events, events.TopicCheckout, events.Event{
			Type:      events.TypeCheckoutStarted,
			SessionID: e.ID,
			Total:     rev.Total.StringFixed(2),
			Quantity:  rev.ItemCount,
		})
	}
	return cs.View(), nil
}

// Current returns the checkout view after re-applying the entry guard.
func (s *CheckoutService) Current(_ context.Context, e *session.Entry) (checkout.View, error) {
	cs, err := s.active(e)
	if err != nil {
		return checkout.View{}, err
	}
	if err := cs.Guard(); err != nil {
		return checkout.View{}, err
	}
	return cs.View(), nil
}

func (s *CheckoutService) AdvanceToPayment(ctx context.Context, e *session.Entry) (checkout.View, error) {
	cs, err := s.active(e)
	if err != nil {
		return checkout.View{}, err
	}
	if err := cs.AdvanceToPayment(); err != nil {
		return checkout.View{}, err
	}

	publish(ctx, s.Events, events.TopicCheckout, events.Event{Type: events.TypePaymentStep, SessionID: e.ID})
	return cs.View(), nil
}

func (s *CheckoutService) SelectPaymentMethod(_ context.Context, e *session.Entry, method string, card *checkout.CardDetails) (checkout.View, error) {
	cs, err := s.active(e)
	if err != nil {
		return checkout.View{}, err
	}

	m, err := checkout.ParsePaymentMethod(method)
	if err != nil {
		return checkout.View{}, err
	}
	if err := cs.SelectPaymentMethod(m); err != nil {
		return checkout.View{}, err
	}
	if card != nil && m == checkout.MethodCard {
		if err := cs.SetCardDetails(*card); err != nil {
			return checkout.View{}, err
		}
	}
	return cs.View(), nil
}

func (s *CheckoutService) SubmitPayment(ctx context.Context, e *session.Entry) (checkout.DeliveredKey, error) {
	cs, err := s.active(e)
	if err != nil {
		return checkout.DeliveredKey{}, err
	}

	method := cs.PaymentMethod()
	key, err := cs.SubmitPayment(ctx)
	if err != nil {
		var perr *checkout.PaymentError
		if errors.As(err, &perr) {
			publish(ctx, s.Events, events.TopicCheckout, events.Event{
				Type:      events.TypePaymentFailed,
				SessionID: e.ID,
				Method:    string(method),
				Reason:    perr.Reason,
			})
		}
		return checkout.DeliveredKey{}, err
	}

	publish(ctx, s.Events, events.TopicCheckout, events.Event{
		Type:      events.TypeKeyDelivered,
		SessionID: e.ID,
		OrderID:   key.OrderID,
		Method:    string(method),
	})
	return key, nil
}

func (s *CheckoutService) ViewKey(_ context.Context, e *session.Entry) (checkout.DeliveredKey, error) {
	cs, err := s.active(e)
	if err != nil {
		return checkout.DeliveredKey{}, err
	}
	return cs.ViewKey()
}

func (s *CheckoutService) MarkRedeemed(ctx context.Context, e *session.Entry) (checkout.DeliveredKey, error) {
	cs, err := s.active(e)
	if err != nil {
		return checkout.DeliveredKey{}, err
	}

	already := false
	if k, ok := cs.Delivered(); ok {
		already = k.Redeemed
	}
	key, err := cs.MarkRedeemed()
	if err != nil {
		return checkout.DeliveredKey{}, err
	}

	if !already {
		publish(ctx, s.Events, events.TopicCheckout, events.Event{Type: events.TypeKeyRedeemed, SessionID: e.ID, OrderID: key.OrderID})
	}
	return key, nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, e *session.Entry, page, size int) ([]models.Order, util.PageMeta, error) {
	if s.Orders == nil {
		return []models.Order{}, util.Meta(page, size, 0), nil
	}

	from, limit := util.Calculate(page, size)
	orders, total, err := s.Orders.ListOrdersBySession(ctx, e.ID, limit, from)
	if err != nil {
		logging.FromContext(ctx).Error("list_orders_error", "session_id", e.ID, "error", err)
		return nil, util.PageMeta{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, util.Meta(page, size, total), nil
}
