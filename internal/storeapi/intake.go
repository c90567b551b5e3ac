package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/diamondaura/storefront/internal/webserver"
)

type feedbackPayload struct {
	Description string `form:"description" json:"description" validate:"required"`
}

type complaintPayload struct {
	ProductID   string `form:"product_id" json:"product_id" validate:"required"`
	Description string `form:"description" json:"description" validate:"required"`
}

func registerIntakeRoutes() {
	webserver.CustomerPOST("/feedback", submitFeedback)
	webserver.CustomerPOST("/complaint", submitComplaint)
}

func submitFeedback(c echo.Context) error {
	var payload feedbackPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	fb, err := GetAppContext(c).Intake().SubmitFeedback(c.Request().Context(), principal(c), payload.Description)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, webserver.Response{Code: "OK", Data: fb})
}

func submitComplaint(c echo.Context) error {
	var payload complaintPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	productID, err := cast.ToInt64E(payload.ProductID)
	if err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "select a valid product", map[string]string{"field": "product_id"})
	}
	complaint, err := GetAppContext(c).Intake().SubmitComplaint(c.Request().Context(), principal(c), productID, payload.Description)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, webserver.Response{Code: "OK", Data: complaint})
}
