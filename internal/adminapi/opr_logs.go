package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/webserver"
	"github.com/diamondaura/storefront/pkg/common"
)

func registerOprLogRoutes() {
	webserver.ApiGET("/logs", listOprLogs)
}

// listOprLogs pages the operator log, newest first
func listOprLogs(c echo.Context) error {
	page, pageSize := parsePagination(c)
	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	action := strings.TrimSpace(c.QueryParam("action"))

	query := GetDB(c).Model(&domain.SysOprLog{})
	if keyword != "" {
		like := common.LikeContains(strings.ToLower(keyword))
		query = query.Where(`LOWER(opr_name) LIKE ? ESCAPE '\' OR LOWER(opt_desc) LIKE ? ESCAPE '\'`, like, like)
	}
	if action != "" {
		query = query.Where("opt_action = ?", action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator logs", err.Error())
	}
	var rows []domain.SysOprLog
	if err := query.Order("opt_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query operator logs", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
