package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/webserver"
)

func registerUserRoutes() {
	webserver.ApiGET("/users", listUsers)
	webserver.ApiDELETE("/users/:id", deleteUser)
	webserver.ApiPOST("/users/:id/delete", deleteUser)
}

func listUsers(c echo.Context) error {
	customers, err := GetAppContext(c).Accounts().ListCustomers(c.Request().Context(), operator(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, customers)
}

// deleteUser removes a customer with its orders, cart, feedback and login
func deleteUser(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid customer ID", nil)
	}
	if err := GetAppContext(c).Accounts().DeleteCustomer(c.Request().Context(), operator(c), id); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "delete_customer", fmt.Sprintf("delete customer %d", id))
	return ok(c, nil)
}
