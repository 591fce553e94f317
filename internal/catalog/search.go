package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/keymarket/internal/util"
)

type SortBy string

const (
	SortPrice  SortBy = "price"
	SortRating SortBy = "rating"
	SortName   SortBy = "name"
)

// Filter narrows Search. Zero values disable a criterion; MaxPrice of zero
// means no upper bound.
type Filter struct {
	Query         string
	Platforms     []Platform
	Category      string
	MinPrice      decimal.Decimal
	MaxPrice      decimal.Decimal
	DeliveryTypes []DeliveryType
	MinRating     float64
	VerifiedOnly  bool
	Sort          SortBy
	Page          int
	Size          int
}

func (f Filter) offerLevel() bool {
	return len(f.DeliveryTypes) > 0 || f.MinRating > 0 || f.VerifiedOnly
}

type Result struct {
	Products []Product
	Total    int64
	Page     int
	Size     int
}

// Search is a plain substring filter over the catalog, no relevance ranking.
func (c *Catalog) Search(f Filter) Result {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	category := strings.ToLower(strings.TrimSpace(f.Category))

	matched := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		if len(f.Platforms) > 0 && !slices.Contains(f.Platforms, p.Platform) {
			continue
		}
		if category != "" && !slices.ContainsFunc(p.Categories, func(c string) bool { return strings.ToLower(c) == category }) {
			continue
		}
		if p.LowestPrice.LessThan(f.MinPrice) {
			continue
		}
		if f.MaxPrice.IsPositive() && p.LowestPrice.GreaterThan(f.MaxPrice) {
			continue
		}
		if f.offerLevel() && !slices.ContainsFunc(c.byProduct[p.ID], f.matchOffer) {
			continue
		}
		matched = append(matched, p)
	}

	c.sortProducts(matched, f.Sort)

	from, limit := util.Calculate(f.Page, f.Size)
	lo, hi := util.Window(len(matched), from, limit)
	page := f.Page
	if page < 1 {
		page = 1
	}
	return Result{
		Products: matched[lo:hi],
		Total:    int64(len(matched)),
		Page:     page,
		Size:     limit,
	}
}

func (f Filter) matchOffer(o Offer) bool {
	if len(f.DeliveryTypes) > 0 && !slices.Contains(f.DeliveryTypes, o.DeliveryType) {
		return false
	}
	if f.MinRating > 0 && o.Rating < f.MinRating {
		return false
	}
	if f.VerifiedOnly && !o.HasBadge(BadgeVerified) {
		return false
	}
	return true
}

func (c *Catalog) bestRating(productID string) float64 {
	best := 0.0
	for _, o := range c.byProduct[productID] {
		best = max(best, o.Rating)
	}
	return best
}

func (c *Catalog) sortProducts(ps []Product, by SortBy) {
	switch by {
	case SortName:
		slices.SortStableFunc(ps, func(a, b Product) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortRating:
		slices.SortStableFunc(ps, func(a, b Product) int {
			return cmp.Compare(c.bestRating(b.ID), c.bestRating(a.ID))
		})
	default:
		slices.SortStableFunc(ps, func(a, b Product) int { return a.LowestPrice.Cmp(b.LowestPrice) })
	}
}

func ParseSort(v string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(v))) {
	case SortRating:
		return SortRating
	case SortName:
		return SortName
	default:
		return SortPrice
	}
}
