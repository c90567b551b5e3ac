package adminapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/webserver"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func registerReportRoutes() {
	webserver.ApiGET("/reports", getReports)
	webserver.ApiGET("/reports/export.xlsx", exportReports)
}

func getReports(c echo.Context) error {
	ctx := c.Request().Context()
	reports := GetAppContext(c).Reports()
	sales, err := reports.SalesByCategory(ctx, operator(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	monthly, err := reports.MonthlyRevenue(ctx, operator(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, map[string]interface{}{
		"category_sales":  sales,
		"monthly_revenue": monthly,
	})
}

func exportReports(c echo.Context) error {
	var buf bytes.Buffer
	if err := GetAppContext(c).Reports().WriteWorkbook(c.Request().Context(), operator(c), &buf); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	filename := fmt.Sprintf("sales-report-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
