package storeapi

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/app"
	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/webserver"
)

var initOnce sync.Once

// Init registers the storefront routes
func Init() {
	initOnce.Do(func() {
		registerCatalogRoutes()
		registerAccountRoutes()
		registerCartRoutes()
		registerOrderRoutes()
		registerIntakeRoutes()
	})
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func principal(c echo.Context) *auth.Principal {
	return webserver.CurrentPrincipal(c)
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return webserver.Fail(c, status, code, message, details)
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// bindAndValidate answers the request itself when it returns false
func bindAndValidate(c echo.Context, payload interface{}) (bool, error) {
	if err := c.Bind(payload); err != nil {
		return false, fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(payload); err != nil {
		return false, fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid form data", webserver.ValidationDetails(err))
	}
	return true, nil
}
