package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/keymarket/internal/checkout"
	"github.com/Skotchmaster/keymarket/internal/service"
	"github.com/Skotchmaster/keymarket/internal/transport"
)

const cartPath = "/cart"

// fail maps a domain error onto a status code and writes the JSON body.
// event names the log line, e.g. "submit_payment_error".
func fail(c echo.Context, l *slog.Logger, event string, err error) error {
	resp := transport.ErrorResponse{Error: err.Error()}
	var status int

	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoCheckout):
		status = http.StatusNotFound
		resp.Redirect = cartPath
	case errors.Is(err, checkout.ErrEmptyCart):
		status = http.StatusConflict
		resp.Redirect = cartPath
	case errors.Is(err, checkout.ErrDuplicateDelivery):
		l.Error(event, "status", http.StatusConflict, "reason", "key already delivered", "error", err)
		return c.JSON(http.StatusConflict, resp)
	case errors.Is(err, checkout.ErrPaymentInProgress):
		status = http.StatusConflict
	case errors.Is(err, checkout.ErrPaymentFailed):
		status = http.StatusPaymentRequired
	case errors.Is(err, checkout.ErrInvalidOperation):
		status = http.StatusConflict
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{Error: "internal error"})
	}

	l.Warn(event, "status", status, "error", err)
	return c.JSON(status, resp)
}

func badRequest(c echo.Context, l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", errStr(err))
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: reason})
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
