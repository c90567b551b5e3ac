package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/diamondaura/storefront/internal/domain"
)

// Response is the envelope of every JSON answer
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// PageResponse a paged list
type PageResponse struct {
	Code     string      `json:"code"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Code: "OK", Data: data})
}

func Fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, Response{Code: code, Message: message, Details: details})
}

func Paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return c.JSON(http.StatusOK, PageResponse{Code: "OK", Data: data, Total: total, Page: page, PageSize: pageSize})
}

// ErrorResponse maps service errors onto the envelope
func ErrorResponse(c echo.Context, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return Fail(c, http.StatusBadRequest, "VALIDATION_ERROR", ve.Message, map[string]string{"field": ve.Field})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return Fail(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", domain.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Please log in to continue", nil)
	case errors.Is(err, domain.ErrForbidden):
		return Fail(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied", nil)
	case errors.Is(err, domain.ErrNotFound):
		return Fail(c, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	case errors.Is(err, domain.ErrEmptyCart):
		return Fail(c, http.StatusConflict, "EMPTY_CART", domain.ErrEmptyCart.Error(), nil)
	}
	zap.L().Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Error(err))
	return Fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
