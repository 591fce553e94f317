package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/service"
	"github.com/Skotchmaster/keymarket/internal/transport"
)

type CartHTTP struct {
	Svc      *service.CartService
	Currency string
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(h.Svc.GetCart(ctx, e), h.Currency))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "add_cart_error", err)
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_cart_error", "invalid body", err)
	}

	snap, err := h.Svc.AddToCart(ctx, e, req.OfferID, req.Quantity)
	if err != nil {
		return fail(c, l, "add_cart_error", err)
	}

	l.Info("item added successfully to cart", "offer_id", req.OfferID)
	return c.JSON(http.StatusCreated, transport.NewCartResponse(snap, h.Currency))
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "update_cart_error", err)
	}

	var req transport.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_cart_error", "invalid body", err)
	}
	if req.Quantity == nil {
		return badRequest(c, l, "update_cart_error", "quantity required", nil)
	}

	snap, err := h.Svc.UpdateQuantity(ctx, e, c.Param("offerID"), *req.Quantity)
	if err != nil {
		return fail(c, l, "update_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(snap, h.Currency))
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "remove_cart_item_error", err)
	}

	snap, err := h.Svc.RemoveItem(ctx, e, c.Param("offerID"))
	if err != nil {
		return fail(c, l, "remove_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartResponse(snap, h.Currency))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "clear_cart_error", err)
	}

	if err := h.Svc.ClearCart(ctx, e); err != nil {
		return fail(c, l, "clear_cart_error", err)
	}

	l.Info("cart successfully cleared")
	return c.JSON(http.StatusOK, transport.NewCartResponse(e.Cart.Snapshot(), h.Currency))
}
