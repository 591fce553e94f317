package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusFailed     OrderStatus = "failed"
)

type Order struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"                 json:"id"`
	SessionID     string          `gorm:"index;not null"                       json:"session_id"`
	PaymentID     string          `gorm:"not null"                             json:"payment_id"`
	PaymentMethod string          `gorm:"not null"                             json:"payment_method"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null"          json:"total"`
	Currency      string          `gorm:"size:3;not null"                      json:"currency"`
	Status        OrderStatus     `gorm:"not null"                             json:"status"`
	Code          string          `gorm:"uniqueIndex;not null"                 json:"-"`
	CreatedAt     time.Time       `gorm:"not null"                             json:"created_at"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"         json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"     json:"order_id"`
	OfferID   string          `gorm:"not null"                     json:"offer_id"`
	ProductID string          `gorm:"not null"                     json:"product_id"`
	Title     string          `gorm:"not null"                     json:"title"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"  json:"unit_price"`
	Quantity  int             `gorm:"not null;check:quantity>0"    json:"quantity"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}
