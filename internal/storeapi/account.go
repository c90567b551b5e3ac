package storeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/diamondaura/storefront/internal/account"
	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/webserver"
)

type registerPayload struct {
	Username string `form:"username" json:"username" validate:"required,max=150"`
	Password string `form:"password" json:"password" validate:"required,min=8,max=128"`
	Name     string `form:"name" json:"name" validate:"required,max=100"`
	Email    string `form:"email" json:"email" validate:"required,email,max=100"`
	Phone    string `form:"phone" json:"phone" validate:"required,max=20"`
	Address  string `form:"address" json:"address" validate:"required,max=200"`
}

type loginPayload struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

// profilePayload blank fields keep their stored value
type profilePayload struct {
	Name    string `form:"name" json:"name" validate:"omitempty,max=100"`
	Phone   string `form:"phone" json:"phone" validate:"omitempty,max=20"`
	Address string `form:"address" json:"address" validate:"omitempty,max=200"`
}

type sessionView struct {
	Principal *auth.Principal `json:"principal"`
	IsAdmin   bool            `json:"is_admin"`
	// Next is where a browser client should go after signing in
	Next string `json:"next"`
}

func registerAccountRoutes() {
	webserver.PublicPOST("/register", register)
	webserver.PublicPOST("/login", login)
	webserver.PublicGET("/logout", logout)
	webserver.PublicPOST("/logout", logout)
	webserver.CustomerGET("/profile", getProfile)
	webserver.CustomerPOST("/profile", updateProfile)
}

func newSessionView(p *auth.Principal) sessionView {
	v := sessionView{Principal: p, IsAdmin: auth.IsAdmin(p), Next: "/"}
	if v.IsAdmin {
		v.Next = webserver.AdminPrefix + "/dashboard"
	}
	return v
}

func register(c echo.Context) error {
	var payload registerPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	p, err := GetAppContext(c).Accounts().Register(c.Request().Context(), account.RegisterInput{
		Username: payload.Username,
		Password: payload.Password,
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Address:  payload.Address,
	})
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	if err := webserver.SaveIdentity(c, p); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, webserver.Response{Code: "OK", Data: newSessionView(p)})
}

func login(c echo.Context) error {
	var payload loginPayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	p, err := GetAppContext(c).Accounts().Login(c.Request().Context(), payload.Username, payload.Password)
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	if err := webserver.SaveIdentity(c, p); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	zap.L().Info("user logged in", zap.String("username", p.Username), zap.String("ip", c.RealIP()))
	return ok(c, newSessionView(p))
}

func logout(c echo.Context) error {
	if err := webserver.ClearSession(c); err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, map[string]string{"next": "/"})
}

func getProfile(c echo.Context) error {
	customer, err := GetAppContext(c).Accounts().Profile(c.Request().Context(), principal(c))
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, customer)
}

func updateProfile(c echo.Context) error {
	var payload profilePayload
	if done, err := bindAndValidate(c, &payload); !done {
		return err
	}
	customer, err := GetAppContext(c).Accounts().UpdateProfile(c.Request().Context(), principal(c), account.ProfileUpdate{
		Name:    &payload.Name,
		Phone:   &payload.Phone,
		Address: &payload.Address,
	})
	if err != nil {
		return webserver.ErrorResponse(c, err)
	}
	return ok(c, customer)
}
