package storeapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/catalog"
	"github.com/diamondaura/storefront/internal/webserver"
)

const featuredCount = 8

func registerCatalogRoutes() {
	webserver.PublicGET("/", home)
	webserver.PublicGET("/products", listProducts)
	webserver.PublicGET("/product/:id", productDetail)
}

func home(c echo.Context) error {
	appCtx := GetAppContext(c)
	ctx := c.Request().Context()
	featured, err := appCtx.Catalog().Featured(ctx, featuredCount)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	categories, err := appCtx.Catalog().ListCategories(ctx)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	data := map[string]interface{}{
		"featured":   featured,
		"categories": categories,
	}
	if who := principal(c); auth.IsCustomer(who) {
		if view, err := appCtx.Cart().View(ctx, who); err == nil {
			data["cart_count"] = view.ItemCount
		}
	}
	return ok(c, data)
}

func listProducts(c echo.Context) error {
	appCtx := GetAppContext(c)
	filter := catalog.ProductFilter{Search: strings.TrimSpace(c.QueryParam("search"))}
	if raw := strings.TrimSpace(c.QueryParam("category")); raw != "" {
		id, err := cast.ToInt64E(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
		}
		filter.CategoryID = &id
	}
	products, err := appCtx.Catalog().ListProducts(c.Request().Context(), filter)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	categories, err := appCtx.Catalog().ListCategories(c.Request().Context())
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, map[string]interface{}{
		"products":   products,
		"categories": categories,
		"search":     filter.Search,
		"category":   filter.CategoryID,
	})
}

func productDetail(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	detail, err := GetAppContext(c).Catalog().GetProduct(c.Request().Context(), id)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, detail)
}
