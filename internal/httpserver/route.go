package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	Session         SessionConfig
	Ready           func() error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api/v1")

	catalog := api.Group("/catalog")
	catalog.GET("/products", d.CatalogHandler.SearchProducts)
	catalog.GET("/products/:id", d.CatalogHandler.GetProduct)
	catalog.GET("/categories", d.CatalogHandler.GetCategories)

	sess := Session(d.Session)

	cart := api.Group("/cart", sess)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddToCart)
	cart.PATCH("/items/:offerID", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:offerID", d.CartHandler.RemoveItem)

	checkout := api.Group("/checkout", sess)
	checkout.POST("", d.CheckoutHandler.Begin)
	checkout.GET("", d.CheckoutHandler.Current)
	checkout.POST("/payment", d.CheckoutHandler.AdvanceToPayment)
	checkout.PUT("/payment/method", d.CheckoutHandler.SelectPaymentMethod)
	checkout.POST("/payment/submit", d.CheckoutHandler.SubmitPayment)
	checkout.GET("/key", d.CheckoutHandler.ViewKey)
	checkout.POST("/key/redeemed", d.CheckoutHandler.MarkRedeemed)

	api.GET("/orders", d.CheckoutHandler.ListOrders, sess)
}
