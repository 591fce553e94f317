package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/keymarket/internal/catalog"
	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/transport"
	"github.com/Skotchmaster/keymarket/internal/util"
)

type CatalogHTTP struct {
	Catalog *catalog.Catalog
}

// multi accepts both repeated parameters and comma separated values.
func multi(c echo.Context, name string) []string {
	var out []string
	for _, v := range c.QueryParams()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseFilter(c echo.Context) (catalog.Filter, string, error) {
	f := catalog.Filter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sort:     catalog.ParseSort(c.QueryParam("sort")),
		Page:     util.ParseIntDefault(c.QueryParam("page"), 1),
		Size:     util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	}

	for _, v := range multi(c, "platform") {
		p, ok := catalog.ParsePlatform(v)
		if !ok {
			return f, "unknown platform " + v, nil
		}
		f.Platforms = append(f.Platforms, p)
	}
	for _, v := range multi(c, "delivery") {
		d, ok := catalog.ParseDeliveryType(v)
		if !ok {
			return f, "unknown delivery type " + v, nil
		}
		f.DeliveryTypes = append(f.DeliveryTypes, d)
	}

	var err error
	if v := c.QueryParam("min_price"); v != "" {
		if f.MinPrice, err = decimal.NewFromString(v); err != nil {
			return f, "min_price must be a number", err
		}
	}
	if v := c.QueryParam("max_price"); v != "" {
		if f.MaxPrice, err = decimal.NewFromString(v); err != nil {
			return f, "max_price must be a number", err
		}
	}
	if v := c.QueryParam("min_rating"); v != "" {
		if f.MinRating, err = strconv.ParseFloat(v, 64); err != nil {
			return f, "min_rating must be a number", err
		}
	}
	if v := c.QueryParam("verified_only"); v != "" {
		if f.VerifiedOnly, err = strconv.ParseBool(v); err != nil {
			return f, "verified_only must be a boolean", err
		}
	}
	return f, "", nil
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	f, reason, err := parseFilter(c)
	if reason != "" {
		return badRequest(c, l, "search_products_error", reason, err)
	}

	res := h.Catalog.Search(f)
	return c.JSON(http.StatusOK, map[string]any{
		"data": res.Products,
		"meta": util.Meta(res.Page, res.Size, res.Total),
	})
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id := c.Param("id")
	product, ok := h.Catalog.LookupProduct(id)
	if !ok {
		l.Warn("get_product_failed", "status", 404, "reason", "product not found", "product_id", id)
		return c.JSON(http.StatusNotFound, transport.ErrorResponse{Error: "product not found"})
	}

	offers := h.Catalog.OffersForProduct(id)
	views := make([]transport.OfferView, 0, len(offers))
	for _, o := range offers {
		seller, _ := h.Catalog.LookupSeller(o.SellerID)
		views = append(views, transport.OfferView{Offer: o, Seller: seller})
	}
	return c.JSON(http.StatusOK, transport.ProductDetail{Product: product, Offers: views})
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.CategoriesResponse{
		Categories: h.Catalog.Categories(),
		Platforms:  catalog.Platforms(),
	})
}
