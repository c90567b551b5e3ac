package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/checkout"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/webserver"
)

type orderStatusPayload struct {
	Status string `form:"status" json:"status" validate:"required"`
}

func registerOrderRoutes() {
	webserver.ApiGET("/orders", listOrders)
	webserver.ApiGET("/orders/export.csv", exportOrders)
	webserver.ApiPOST("/orders/:id/status", updateOrderStatus)
	webserver.ApiPUT("/orders/:id/status", updateOrderStatus)
}

// orderFilter reads the optional status query; an unknown status is a bad request
func orderFilter(c echo.Context) (checkout.OrderFilter, error) {
	var filter checkout.OrderFilter
	raw := strings.TrimSpace(c.QueryParam("status"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return filter, nil
	}
	st, valid := domain.ParseOrderStatus(raw)
	if !valid {
		return filter, domain.NewValidationError("status", "unknown order status")
	}
	filter.Status = &st
	return filter, nil
}

func listOrders(c echo.Context) error {
	filter, err := orderFilter(c)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	orders, err := GetAppContext(c).Checkout().ListAllOrders(c.Request().Context(), operator(c), filter)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, map[string]interface{}{
		"orders":   orders,
		"statuses": domain.OrderStatuses,
	})
}

func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload orderStatusPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	order, err := GetAppContext(c).Checkout().UpdateOrderStatus(c.Request().Context(), operator(c), id, payload.Status)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "update_order_status", fmt.Sprintf("order %d status %s", id, order.Status))
	return ok(c, order)
}

func exportOrders(c echo.Context) error {
	filter, err := orderFilter(c)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	// render into memory first so a failure still yields a JSON error
	var buf strings.Builder
	if err := GetAppContext(c).Reports().WriteOrdersCSV(c.Request().Context(), operator(c), filter, &buf); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	filename := fmt.Sprintf("orders-%s.csv", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(buf.String()))
}
