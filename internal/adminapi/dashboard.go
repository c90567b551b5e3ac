package adminapi

import (
	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/webserver"
)

func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard", getDashboard)
}

func getDashboard(c echo.Context) error {
	d, err := GetAppContext(c).Reports().Dashboard(c.Request().Context(), operator(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, d)
}
