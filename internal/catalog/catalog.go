// Package catalog serves the read-only product, offer and seller data the
// storefront sells from.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type Platform string

const (
	PlatformPC       Platform = "PC"
	PlatformPS       Platform = "PS"
	PlatformXbox     Platform = "XBOX"
	PlatformNintendo Platform = "NINTENDO"
)

type DeliveryType string

const (
	DeliveryInstant DeliveryType = "instant"
	DeliveryManual  DeliveryType = "manual"
	DeliveryEmail   DeliveryType = "email"
)

const (
	BadgeVerified  = "verified"
	BadgeTopSeller = "top-seller"
)

type Product struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Platform     Platform        `json:"platform"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Description  string          `json:"description"`
	Categories   []string        `json:"categories"`
	OfferIDs     []string        `json:"offer_ids"`
	LowestPrice  decimal.Decimal `json:"lowest_price"`
	Currency     string          `json:"currency"`
}

type Offer struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	SellerID       string          `json:"seller_id"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	DeliveryType   DeliveryType    `json:"delivery_type"`
	RegionLock     string          `json:"region_lock,omitempty"`
	ETAMinutes     int             `json:"eta_minutes"`
	PaymentMethods []string        `json:"payment_methods"`
	Stock          int             `json:"stock"`
	Rating         float64         `json:"rating"`
	SellerBadges   []string        `json:"seller_badges"`
}

func (o Offer) HasBadge(b string) bool {
	return slices.Contains(o.SellerBadges, b)
}

type Seller struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Rating              float64 `json:"rating"`
	Verified            bool    `json:"verified"`
	SalesCount          int     `json:"sales_count"`
	ResponseTimeMinutes int     `json:"response_time_minutes"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var ErrUnknownReference = errors.New("catalog: unknown reference")

// Catalog is immutable after New and safe for concurrent readers.
type Catalog struct {
	products   []Product
	productIdx map[string]int
	offers     map[string]Offer
	byProduct  map[string][]Offer
	sellers    map[string]Seller
	categories []Category
}

// New indexes the given data. Every offer must point at a known product and
// seller.
func New(products []Product, offers []Offer, sellers []Seller, categories []Category) (*Catalog, error) {
	c := &Catalog{
		products:   slices.Clone(products),
		productIdx: make(map[string]int, len(products)),
		offers:     make(map[string]Offer, len(offers)),
		byProduct:  make(map[string][]Offer, len(products)),
		sellers:    make(map[string]Seller, len(sellers)),
		categories: slices.Clone(categories),
	}
	for i, p := range c.products {
		c.productIdx[p.ID] = i
	}
	for _, s := range sellers {
		c.sellers[s.ID] = s
	}
	for _, o := range offers {
		if _, ok := c.productIdx[o.ProductID]; !ok {
			return nil, fmt.Errorf("offer %s product %s: %w", o.ID, o.ProductID, ErrUnknownReference)
		}
		if _, ok := c.sellers[o.SellerID]; !ok {
			return nil, fmt.Errorf("offer %s seller %s: %w", o.ID, o.SellerID, ErrUnknownReference)
		}
		c.offers[o.ID] = o
		c.byProduct[o.ProductID] = append(c.byProduct[o.ProductID], o)
	}
	for id, list := range c.byProduct {
		slices.SortStableFunc(list, func(a, b Offer) int { return a.Price.Cmp(b.Price) })
		c.byProduct[id] = list
	}
	return c, nil
}

func (c *Catalog) LookupProduct(id string) (Product, bool) {
	i, ok := c.productIdx[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) LookupOffer(id string) (Offer, bool) {
	o, ok := c.offers[id]
	return o, ok
}

func (c *Catalog) LookupSeller(id string) (Seller, bool) {
	s, ok := c.sellers[id]
	return s, ok
}

// OffersForProduct returns the product's offers, cheapest first.
func (c *Catalog) OffersForProduct(productID string) []Offer {
	return slices.Clone(c.byProduct[productID])
}

func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

func Platforms() []Platform {
	return []Platform{PlatformPC, PlatformPS, PlatformXbox, PlatformNintendo}
}

func ParsePlatform(v string) (Platform, bool) {
	p := Platform(strings.ToUpper(strings.TrimSpace(v)))
	return p, slices.Contains(Platforms(), p)
}

func ParseDeliveryType(v string) (DeliveryType, bool) {
	d := DeliveryType(strings.ToLower(strings.TrimSpace(v)))
	switch d {
	case DeliveryInstant, DeliveryManual, DeliveryEmail:
		return d, true
	}
	return "", false
}
