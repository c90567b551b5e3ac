package adminapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/diamondaura/storefront/internal/catalog"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/webserver"
	"github.com/diamondaura/storefront/pkg/common"
)

type productPayload struct {
	CategoryID  string  `form:"category_id" json:"category_id" validate:"required"`
	Name        string  `form:"name" json:"name" validate:"required,min=1,max=100"`
	Description string  `form:"description" json:"description" validate:"omitempty,max=500"`
	Price       float64 `form:"price" json:"price" validate:"gte=0"`
	Carat       int     `form:"carat" json:"carat" validate:"gte=0"`
}

func (p productPayload) input() (catalog.ProductInput, error) {
	categoryID, err := cast.ToInt64E(strings.TrimSpace(p.CategoryID))
	if err != nil {
		return catalog.ProductInput{}, domain.NewValidationError("category_id", "select a valid category")
	}
	return catalog.ProductInput{
		CategoryID:  categoryID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Carat:       p.Carat,
	}, nil
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiPOST("/products/:id/edit", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
	webserver.ApiPOST("/products/:id/delete", deleteProduct)
	webserver.ApiDELETE("/product-images/:id", deleteProductImage)
	webserver.ApiPOST("/product-images/:id/delete", deleteProductImage)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// Filters: q or category
	q := strings.TrimSpace(c.QueryParam("q"))
	categoryFilter := strings.TrimSpace(c.QueryParam("category"))

	// Sorting: field and order
	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"name":       "name",
		"price":      "price",
		"carat":      "carat",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, ok := allowed[sortField]
	if !ok {
		sortCol = "created_at"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q != "" {
		if strings.EqualFold(db.Name(), "postgres") {
			db = db.Where(`name ILIKE ? ESCAPE '\'`, common.LikeContains(q))
		} else {
			db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, common.LikeContains(strings.ToLower(q)))
		}
	}
	if categoryFilter != "" {
		categoryID, err := cast.ToInt64E(categoryFilter)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
		}
		db = db.Where("category_id = ?", categoryID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Preload("Category").Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	detail, err := GetAppContext(c).Catalog().GetProduct(c.Request().Context(), id)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, detail.Product)
}

// uploadedImages collects the "images" files of a multipart form
func uploadedImages(c echo.Context) ([]catalog.Upload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	var uploads []catalog.Upload
	for _, fh := range form.File["images"] {
		uploads = append(uploads, catalog.Upload{
			Filename: fh.Filename,
			Open:     opener(fh),
		})
	}
	return uploads, nil
}

func opener(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	in, err := payload.input()
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	uploads, err := uploadedImages(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read uploaded images", err.Error())
	}
	p, err := GetAppContext(c).Catalog().CreateProduct(c.Request().Context(), operator(c), in, uploads)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "create_product", fmt.Sprintf("create product %s with %d images", p.Name, len(uploads)))
	return c.JSON(http.StatusCreated, webserver.Response{Code: "OK", Data: p})
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload productPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	in, err := payload.input()
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	uploads, err := uploadedImages(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read uploaded images", err.Error())
	}
	p, err := GetAppContext(c).Catalog().UpdateProduct(c.Request().Context(), operator(c), id, in, uploads)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "update_product", fmt.Sprintf("update product %d", id))
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetAppContext(c).Catalog().DeleteProduct(c.Request().Context(), operator(c), id); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "delete_product", fmt.Sprintf("delete product %d", id))
	return ok(c, nil)
}

func deleteProductImage(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid image ID", nil)
	}
	if err := GetAppContext(c).Catalog().DeleteProductImage(c.Request().Context(), operator(c), id); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	LogOperation(c, "delete_product_image", fmt.Sprintf("delete product image %d", id))
	return ok(c, nil)
}
