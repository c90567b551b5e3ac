package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/webserver"
)

func registerIntakeRoutes() {
	webserver.ApiGET("/feedback", listFeedback)
	webserver.ApiGET("/complaints", listComplaints)
}

func listFeedback(c echo.Context) error {
	filter, err := parseDateFilter(c)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	rows, err := GetAppContext(c).Intake().ListFeedback(c.Request().Context(), operator(c), filter)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, rows)
}

func listComplaints(c echo.Context) error {
	filter, err := parseDateFilter(c)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	rows, err := GetAppContext(c).Intake().ListComplaints(c.Request().Context(), operator(c), filter)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, rows)
}
