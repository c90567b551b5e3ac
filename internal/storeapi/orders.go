package storeapi

import (
	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/checkout"
	"github.com/diamondaura/storefront/internal/webserver"
)

type checkoutPayload struct {
	PaymentMethod string `form:"payment_method" json:"payment_method" validate:"required"`
	Address       string `form:"address" json:"address" validate:"omitempty,max=200"`
}

func registerOrderRoutes() {
	webserver.CustomerGET("/checkout", checkoutPreview)
	webserver.CustomerPOST("/checkout", placeOrder)
	webserver.CustomerGET("/my-orders", myOrders)
}

func checkoutPreview(c echo.Context) error {
	preview, err := GetAppContext(c).Checkout().Preview(c.Request().Context(), principal(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, preview)
}

func placeOrder(c echo.Context) error {
	var payload checkoutPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	result, err := GetAppContext(c).Checkout().Checkout(c.Request().Context(), principal(c), checkout.CheckoutInput{
		PaymentMethod: payload.PaymentMethod,
		Address:       payload.Address,
	})
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, result)
}

func myOrders(c echo.Context) error {
	orders, err := GetAppContext(c).Checkout().ListOrders(c.Request().Context(), principal(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, orders)
}
