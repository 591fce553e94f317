// Package delivery issues redemption codes and records them in the order
// ledger so each code belongs to exactly one order.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/keymarket/internal/checkout"
	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/models"
)

type OrderRecorder interface {
	CreateOrder(ctx context.Context, order *models.Order) error
}

type Issuer struct {
	Repo     OrderRecorder
	Generate func() (string, error)
	Attempts int
}

func (i *Issuer) Issue(ctx context.Context, o checkout.Order) (checkout.Issued, error) {
	l := logging.FromContext(ctx).With("svc", "delivery.issue", "session_id", o.SessionID)

	gen := i.Generate
	if gen == nil {
		gen = checkout.GenerateCode
	}
	attempts := i.Attempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		code, err := gen()
		if err != nil {
			return checkout.Issued{}, fmt.Errorf("generate code: %w", err)
		}

		order := toModel(o, code)
		err = i.Repo.CreateOrder(ctx, order)
		if err == nil {
			l.Info("key_issued", "order_id", order.ID, "attempt", attempt)
			return checkout.Issued{OrderID: order.ID.String(), Code: code}, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, checkout.ErrCodeCollision) {
			l.Warn("key_issue_retry", "reason", "code collision", "attempt", attempt)
			continue
		}
		return checkout.Issued{}, fmt.Errorf("record order: %w", err)
	}

	return checkout.Issued{}, checkout.ErrCodeCollision
}

func toModel(o checkout.Order, code string) *models.Order {
	items := make([]models.OrderItem, 0, len(o.Items))
	for _, li := range o.Items {
		items = append(items, models.OrderItem{
			OfferID:   li.OfferID,
			ProductID: li.ProductID,
			Title:     li.Title,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
		})
	}

	createdAt := o.Receipt.ChargedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &models.Order{
		ID:            uuid.New(),
		SessionID:     o.SessionID,
		PaymentID:     o.Receipt.PaymentID,
		PaymentMethod: string(o.Method),
		Total:         o.Total,
		Currency:      o.Currency,
		Status:        models.OrderStatusDelivered,
		Code:          code,
		CreatedAt:     createdAt,
		Items:         items,
	}
}
