package adminapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/diamondaura/storefront/internal/webserver"
)

type categoryPayload struct {
	Name string `form:"name" json:"name" validate:"required,max=100"`
}

func registerCategoryRoutes() {
	webserver.ApiGET("/categories", listCategories)
	webserver.ApiGET("/categories/:id", getCategory)
	webserver.ApiPOST("/categories", createCategory)
	webserver.ApiPUT("/categories/:id", updateCategory)
	webserver.ApiPOST("/categories/:id/edit", updateCategory)
	webserver.ApiDELETE("/categories/:id", deleteCategory)
	webserver.ApiPOST("/categories/:id/delete", deleteCategory)
}

func listCategories(c echo.Context) error {
	categories, err := GetAppContext(c).Catalog().ListCategories(c.Request().Context())
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, categories)
}

func getCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	category, err := GetAppContext(c).Catalog().GetCategory(c.Request().Context(), id)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, category)
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	category, err := GetAppContext(c).Catalog().CreateCategory(c.Request().Context(), operator(c), payload.Name)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "create_category", fmt.Sprintf("create category %s", category.Name))
	return c.JSON(http.StatusCreated, webserver.Response{Code: "OK", Data: category})
}

func updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var payload categoryPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	category, err := GetAppContext(c).Catalog().UpdateCategory(c.Request().Context(), operator(c), id, payload.Name)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "update_category", fmt.Sprintf("update category %d to %s", id, category.Name))
	return ok(c, category)
}

// deleteCategory needs confirm=yes, otherwise it answers 409 with what would be removed
func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	catalogSvc := GetAppContext(c).Catalog()
	ctx := c.Request().Context()
	if !strings.EqualFold(strings.TrimSpace(c.QueryParam("confirm")), "yes") &&
		!strings.EqualFold(strings.TrimSpace(c.FormValue("confirm")), "yes") {
		preview, err := catalogSvc.CategoryDeletePreview(ctx, operator(c), id)
		if err != nil {
			return webserver.ErrorResponse(c, err)
		}
		msg := fmt.Sprintf("Deleting category %s also deletes %d products", preview.Category.Name, preview.ProductCount)
		return fail(c, http.StatusConflict, "CONFIRM_REQUIRED", msg, preview)
	}
	if err := catalogSvc.DeleteCategory(ctx, operator(c), id); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "delete_category", fmt.Sprintf("delete category %d", id))
	return ok(c, nil)
}
