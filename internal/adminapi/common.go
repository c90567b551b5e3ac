package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/app"
	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/intake"
	"github.com/diamondaura/storefront/internal/webserver"
	"github.com/diamondaura/storefront/pkg/common"
)

var initOnce sync.Once

// Init registers the back office routes
func Init() {
	initOnce.Do(func() {
		registerDashboardRoutes()
		registerCategoryRoutes()
		registerProductRoutes()
		registerOrderRoutes()
		registerUserRoutes()
		registerIntakeRoutes()
		registerReportRoutes()
		registerOprLogRoutes()
	})
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

func operator(c echo.Context) *auth.Principal {
	return webserver.CurrentPrincipal(c)
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return webserver.Fail(c, status, code, message, details)
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return webserver.Paged(c, data, total, page, pageSize)
}

// parsePagination reads page and perPage (or the legacy pageSize)
func parsePagination(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	raw := c.QueryParam("perPage")
	if raw == "" {
		raw = c.QueryParam("pageSize")
	}
	pageSize, _ := strconv.Atoi(raw)
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func handleValidationError(c echo.Context, err error) error {
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid form data", webserver.ValidationDetails(err))
}

func bindAndValidate(c echo.Context, payload interface{}) (bool, error) {
	if err := c.Bind(payload); err != nil {
		return false, fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(payload); err != nil {
		return false, handleValidationError(c, err)
	}
	return true, nil
}

// parseDateFilter accepts from/to in any common date format
func parseDateFilter(c echo.Context) (intake.DateFilter, error) {
	var filter intake.DateFilter
	for _, item := range []struct {
		name string
		dest **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := strings.TrimSpace(c.QueryParam(item.name))
		if common.IsEmptyOrNA(raw) {
			continue
		}
		ts, err := dateparse.ParseIn(raw, time.Local)
		if err != nil {
			return filter, domain.NewValidationError(item.name, "invalid date")
		}
		*item.dest = &ts
	}
	return filter, nil
}

// LogOperation records an admin action in the operator log
func LogOperation(c echo.Context, action, desc string) {
	name := ""
	if p := operator(c); p != nil {
		name = p.Username
	}
	entry := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   name,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := GetDB(c).Create(&entry).Error; err != nil {
		zap.L().Warn("failed to write operator log", zap.String("action", action), zap.Error(err))
	}
}
