package transport

import (
	"time"

	"github.com/Skotchmaster/keymarket/internal/cart"
	"github.com/Skotchmaster/keymarket/internal/catalog"
	"github.com/Skotchmaster/keymarket/internal/checkout"
)

type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type AddItemRequest struct {
	OfferID  string `json:"offer_id"`
	Quantity int    `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity"`
}

type CardRequest struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type SelectMethodRequest struct {
	Method string       `json:"method"`
	Card   *CardRequest `json:"card,omitempty"`
}

func (r SelectMethodRequest) CardDetails() *checkout.CardDetails {
	if r.Card == nil {
		return nil
	}
	return &checkout.CardDetails{Number: r.Card.Number, Expiry: r.Card.Expiry, CVV: r.Card.CVV}
}

type CartResponse struct {
	Items     []cart.LineItem `json:"items"`
	Total     string          `json:"total"`
	ItemCount int             `json:"item_count"`
	Currency  string          `json:"currency"`
}

func NewCartResponse(s cart.Snapshot, currency string) CartResponse {
	items := s.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return CartResponse{
		Items:     items,
		Total:     s.Total.StringFixed(2),
		ItemCount: s.ItemCount,
		Currency:  currency,
	}
}

type KeyResponse struct {
	Code         string    `json:"code"`
	OrderID      string    `json:"order_id"`
	ProductTitle string    `json:"product_title"`
	Redeemed     bool      `json:"redeemed"`
	DeliveredAt  time.Time `json:"delivered_at"`
}

func NewKeyResponse(k checkout.DeliveredKey) KeyResponse {
	return KeyResponse{
		Code:         k.Code,
		OrderID:      k.OrderID,
		ProductTitle: k.ProductTitle,
		Redeemed:     k.Redeemed,
		DeliveredAt:  k.DeliveredAt,
	}
}

type CheckoutResponse struct {
	Step           string       `json:"step"`
	PaymentMethod  string       `json:"payment_method"`
	PaymentMethods []string     `json:"payment_methods"`
	Processing     bool         `json:"processing"`
	Cart           CartResponse `json:"cart"`
	LastError      string       `json:"last_error,omitempty"`
	Key            *KeyResponse `json:"key,omitempty"`
}

func NewCheckoutResponse(v checkout.View, currency string) CheckoutResponse {
	methods := make([]string, 0, 3)
	for _, m := range checkout.PaymentMethods() {
		methods = append(methods, string(m))
	}
	resp := CheckoutResponse{
		Step:           v.Step.String(),
		PaymentMethod:  string(v.PaymentMethod),
		PaymentMethods: methods,
		Processing:     v.Processing,
		Cart:           NewCartResponse(v.Cart, currency),
		LastError:      v.LastError,
	}
	if v.Key != nil {
		k := NewKeyResponse(*v.Key)
		resp.Key = &k
	}
	return resp
}

type OfferView struct {
	catalog.Offer
	Seller catalog.Seller `json:"seller"`
}

type ProductDetail struct {
	Product catalog.Product `json:"product"`
	Offers  []OfferView     `json:"offers"`
}

type CategoriesResponse struct {
	Categories []catalog.Category `json:"categories"`
	Platforms  []catalog.Platform `json:"platforms"`
}
