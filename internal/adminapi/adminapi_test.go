package adminapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/360EntSecGroup-Skylar/excelize"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondaura/storefront/config"
	"github.com/diamondaura/storefront/internal/account"
	"github.com/diamondaura/storefront/internal/app"
	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/catalog"
	"github.com/diamondaura/storefront/internal/checkout"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/storeapi"
	"github.com/diamondaura/storefront/internal/testdb"
	"github.com/diamondaura/storefront/internal/webserver"
)

var root = &auth.Principal{IdentityID: 1, Username: "root", Role: domain.RoleAdmin}

type envelope struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
	Details jsoniter.RawMessage `json:"details"`
	Total   int64               `json:"total"`
}

type client struct {
	t       *testing.T
	e       *echo.Echo
	cookies []*http.Cookie
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range cl.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		cl.cookies = cookies
	}
	return rec
}

func (cl *client) form(method, path string, values url.Values) (*httptest.ResponseRecorder, envelope) {
	cl.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	if values != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := cl.do(req)
	var env envelope
	require.NoError(cl.t, jsoniter.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (cl *client) multipart(path string, values map[string]string, files map[string][]byte) (*httptest.ResponseRecorder, envelope) {
	cl.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range values {
		require.NoError(cl.t, mw.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(cl.t, err)
		_, err = fw.Write(content)
		require.NoError(cl.t, err)
	}
	require.NoError(cl.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := cl.do(req)
	var env envelope
	require.NoError(cl.t, jsoniter.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

type fixture struct {
	app      *app.Application
	e        *echo.Echo
	rings    *domain.Category
	ring     *domain.Product
	shopper  *auth.Principal
	orderIDs []int64
}

func setup(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	application := app.NewApplication(cfg)
	application.OverrideDB(testdb.Open(t))

	ctx := context.Background()
	require.NoError(t, application.Accounts().EnsureAdmin(ctx, account.AdminSeed{Username: "root", Password: "sparkle-admin"}))

	rings, err := application.Catalog().CreateCategory(ctx, root, "Rings")
	require.NoError(t, err)
	ring, err := application.Catalog().CreateProduct(ctx, root, catalog.ProductInput{CategoryID: rings.ID, Name: "Ruby Ring", Price: 100, Carat: 18}, nil)
	require.NoError(t, err)

	shopper, err := application.Accounts().Register(ctx, account.RegisterInput{
		Username: "meera", Password: "sparkle123", Name: "Meera",
		Email: "meera@example.com", Phone: "9000000001", Address: "4 Lake View, Kochi",
	})
	require.NoError(t, err)
	_, err = application.Cart().Add(ctx, shopper, ring.ID)
	require.NoError(t, err)
	result, err := application.Checkout().Checkout(ctx, shopper, checkout.CheckoutInput{PaymentMethod: "COD"})
	require.NoError(t, err)
	var orderIDs []int64
	for _, o := range result.Orders {
		orderIDs = append(orderIDs, o.ID)
	}

	storeapi.Init()
	Init()
	e := webserver.NewWebServer(cfg, application.Accounts(), application).Echo()
	return &fixture{app: application, e: e, rings: rings, ring: ring, shopper: shopper, orderIDs: orderIDs}
}

func (f *fixture) login(t *testing.T, username, password string) *client {
	t.Helper()
	cl := &client{t: t, e: f.e}
	rec, _ := cl.form(http.MethodPost, "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return cl
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	f := setup(t)

	anonymous := &client{t: t, e: f.e}
	rec, env := anonymous.form(http.MethodGet, webserver.AdminPrefix+"/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ACCESS_DENIED", env.Code)

	shopper := f.login(t, "meera", "sparkle123")
	for _, path := range []string{"/dashboard", "/orders", "/users", "/reports", "/logs"} {
		rec, env := shopper.form(http.MethodGet, webserver.AdminPrefix+path, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, "ACCESS_DENIED", env.Code, path)
	}
}

func TestDashboard(t *testing.T) {
	f := setup(t)
	cl := f.login(t, "root", "sparkle-admin")

	rec, env := cl.form(http.MethodGet, webserver.AdminPrefix+"/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d struct {
		Products      int64 `json:"products"`
		Orders        int64 `json:"orders"`
		PendingOrders int64 `json:"pending_orders"`
		Customers     int64 `json:"customers"`
	}
	require.NoError(t, jsoniter.Unmarshal(env.Data, &d))
	assert.Equal(t, int64(1), d.Products)
	assert.Equal(t, int64(1), d.Orders)
	assert.Equal(t, int64(1), d.PendingOrders)
	assert.Equal(t, int64(1), d.Customers)
}

func TestCategoryDeleteNeedsConfirmation(t *testing.T) {
	f := setup(t)
	cl := f.login(t, "root", "sparkle-admin")

	rec, env := cl.form(http.MethodPost, webserver.AdminPrefix+"/categories", url.Values{"name": {"Rings"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	path := webserver.AdminPrefix + "/categories/" + idString(f.rings.ID) + "/delete"
	rec, env = cl.form(http.MethodPost, path, url.Values{})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFIRM_REQUIRED", env.Code)
	var preview struct {
		ProductCount int64 `json:"product_count"`
	}
	require.NoError(t, jsoniter.Unmarshal(env.Details, &preview))
	assert.Equal(t, int64(1), preview.ProductCount)

	rec, _ = cl.form(http.MethodPost, path, url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var products, orders int64
	require.NoError(t, f.app.DB().Model(&domain.Product{}).Count(&products).Error)
	require.NoError(t, f.app.DB().Model(&domain.Order{}).Count(&orders).Error)
	assert.Zero(t, products)
	assert.Zero(t, orders)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/logs?action=delete_category", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), env.Total)
}

func TestProductCreateWithImages(t *testing.T) {
	f := setup(t)
	cl := f.login(t, "root", "sparkle-admin")

	rec, env := cl.multipart(webserver.AdminPrefix+"/products", map[string]string{
		"category_id": idString(f.rings.ID),
		"name":        "Emerald Band",
		"description": "green stone",
		"price":       "320.50",
		"carat":       "22",
	}, map[string][]byte{"front.png": []byte("png-bytes"), "side.jpg": []byte("jpg-bytes")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domain.Product
	require.NoError(t, jsoniter.Unmarshal(env.Data, &created))
	assert.Equal(t, "Emerald Band", created.Name)
	assert.Equal(t, 320.5, created.Price)

	var images int64
	require.NoError(t, f.app.DB().Model(&domain.ProductImage{}).Where("product_id = ?", created.ID).Count(&images).Error)
	assert.Equal(t, int64(2), images)

	rec, env = cl.multipart(webserver.AdminPrefix+"/products", map[string]string{
		"category_id": idString(f.rings.ID),
		"name":        "Broken Upload",
		"price":       "10",
		"carat":       "14",
	}, map[string][]byte{"notes.txt": []byte("text")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/products?q=emerald&sort=price&order=asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), env.Total)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/products?q=%25", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, env.Total)

	rec, _ = cl.form(http.MethodDelete, webserver.AdminPrefix+"/products/"+idString(created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/products/"+idString(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestOrderStatusAndExport(t *testing.T) {
	f := setup(t)
	cl := f.login(t, "root", "sparkle-admin")
	require.Len(t, f.orderIDs, 1)

	rec, env := cl.form(http.MethodGet, webserver.AdminPrefix+"/orders?status=shipped", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	statusPath := webserver.AdminPrefix + "/orders/" + idString(f.orderIDs[0]) + "/status"
	rec, _ = cl.form(http.MethodPost, statusPath, url.Values{"status": {"Delivered"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec, env = cl.form(http.MethodPost, statusPath, url.Values{"status": {"Lost"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/orders?status=delivered", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Orders []domain.Order `json:"orders"`
	}
	require.NoError(t, jsoniter.Unmarshal(env.Data, &listing))
	require.Len(t, listing.Orders, 1)
	assert.Equal(t, domain.OrderDelivered, listing.Orders[0].Status)

	rec = cl.do(httptest.NewRequest(http.MethodGet, webserver.AdminPrefix+"/orders/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Body.String(), "Ruby Ring")
	assert.Contains(t, rec.Body.String(), "Delivered")

	rec = cl.do(httptest.NewRequest(http.MethodGet, webserver.AdminPrefix+"/reports/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, mimeXLSX, rec.Header().Get(echo.HeaderContentType))
	book, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "Rings", book.GetCellValue("Sales by category", "A2"))

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reports struct {
		CategorySales []struct {
			Category string `json:"category"`
		} `json:"category_sales"`
	}
	require.NoError(t, jsoniter.Unmarshal(env.Data, &reports))
	require.Len(t, reports.CategorySales, 1)
	assert.Equal(t, "Rings", reports.CategorySales[0].Category)
}

func TestFeedbackDateFilterAndUserDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.app.Intake().SubmitFeedback(ctx, f.shopper, "Lovely packaging")
	require.NoError(t, err)
	cl := f.login(t, "root", "sparkle-admin")

	rec, env := cl.form(http.MethodGet, webserver.AdminPrefix+"/feedback?from=not-a-date", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/feedback?to=2001-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.Feedback
	require.NoError(t, jsoniter.Unmarshal(env.Data, &rows))
	assert.Empty(t, rows)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/feedback?from=2001-01-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, jsoniter.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 1)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var customers []domain.Customer
	require.NoError(t, jsoniter.Unmarshal(env.Data, &customers))
	require.Len(t, customers, 1)

	rec, _ = cl.form(http.MethodDelete, webserver.AdminPrefix+"/users/"+idString(customers[0].ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var feedback int64
	require.NoError(t, f.app.DB().Model(&domain.Feedback{}).Count(&feedback).Error)
	assert.Zero(t, feedback)

	rec, env = cl.form(http.MethodGet, webserver.AdminPrefix+"/logs?keyword=customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), env.Total)
}
