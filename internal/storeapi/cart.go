package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/webserver"
)

type updateCartPayload struct {
	Quantity *int `form:"quantity" json:"quantity" validate:"required"`
}

func registerCartRoutes() {
	webserver.CustomerPOST("/add-to-cart/:productId", addToCart)
	webserver.CustomerGET("/cart", viewCart)
	webserver.CustomerPOST("/update-cart/:lineId", updateCart)
	webserver.CustomerPOST("/remove-from-cart/:lineId", removeFromCart)
}

func addToCart(c echo.Context) error {
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	line, err := GetAppContext(c).Cart().Add(c.Request().Context(), principal(c), productID)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, line)
}

func viewCart(c echo.Context) error {
	view, err := GetAppContext(c).Cart().View(c.Request().Context(), principal(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, view)
}

func updateCart(c echo.Context) error {
	lineID, err := parseIDParam(c, "lineId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid cart line ID", nil)
	}
	var payload updateCartPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	appCtx := GetAppContext(c)
	if err := appCtx.Cart().SetQuantity(c.Request().Context(), principal(c), lineID, *payload.Quantity); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return viewCart(c)
}

func removeFromCart(c echo.Context) error {
	lineID, err := parseIDParam(c, "lineId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid cart line ID", nil)
	}
	if err := GetAppContext(c).Cart().Remove(c.Request().Context(), principal(c), lineID); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return viewCart(c)
}
