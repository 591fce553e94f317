package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/service"
	"github.com/Skotchmaster/keymarket/internal/transport"
	"github.com/Skotchmaster/keymarket/internal/util"
)

type CheckoutHTTP struct {
	Svc      *service.CheckoutService
	Currency string
}

func (h *CheckoutHTTP) Begin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.begin")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "begin_checkout_error", err)
	}

	v, err := h.Svc.Begin(ctx, e)
	if err != nil {
		return fail(c, l, "begin_checkout_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(v, h.Currency))
}

func (h *CheckoutHTTP) Current(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.current")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "get_checkout_error", err)
	}

	v, err := h.Svc.Current(ctx, e)
	if err != nil {
		return fail(c, l, "get_checkout_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(v, h.Currency))
}

func (h *CheckoutHTTP) AdvanceToPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.advance")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "advance_checkout_error", err)
	}

	v, err := h.Svc.AdvanceToPayment(ctx, e)
	if err != nil {
		return fail(c, l, "advance_checkout_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(v, h.Currency))
}

func (h *CheckoutHTTP) SelectPaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.select_method")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "select_method_error", err)
	}

	var req transport.SelectMethodRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "select_method_error", "invalid body", err)
	}

	v, err := h.Svc.SelectPaymentMethod(ctx, e, req.Method, req.CardDetails())
	if err != nil {
		return fail(c, l, "select_method_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCheckoutResponse(v, h.Currency))
}

func (h *CheckoutHTTP) SubmitPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.submit")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "submit_payment_error", err)
	}

	key, err := h.Svc.SubmitPayment(ctx, e)
	if err != nil {
		return fail(c, l, "submit_payment_error", err)
	}

	l.Info("key delivered", "order_id", key.OrderID)
	return c.JSON(http.StatusOK, transport.NewKeyResponse(key))
}

func (h *CheckoutHTTP) ViewKey(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.view_key")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "view_key_error", err)
	}

	key, err := h.Svc.ViewKey(ctx, e)
	if err != nil {
		return fail(c, l, "view_key_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewKeyResponse(key))
}

func (h *CheckoutHTTP) MarkRedeemed(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.mark_redeemed")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "mark_redeemed_error", err)
	}

	key, err := h.Svc.MarkRedeemed(ctx, e)
	if err != nil {
		return fail(c, l, "mark_redeemed_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewKeyResponse(key))
}

func (h *CheckoutHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	e, err := entryFrom(c)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	orders, meta, err := h.Svc.ListOrders(ctx, e, page, size)
	if err != nil {
		return fail(c, l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": orders, "meta": meta})
}
