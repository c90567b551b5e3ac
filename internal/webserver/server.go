package webserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/diamondaura/storefront/config"
)

// Access who may reach a route
type Access int

const (
	Public Access = iota
	Customer
	Admin
)

// AdminPrefix mounts the back office routes
const AdminPrefix = "/admin-panel"

const AppContextKey = "appctx"

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
	access  Access
}

var (
	routesMu sync.Mutex
	routes   []route
)

func addRoute(access Access, method, path string, h echo.HandlerFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{method: method, path: path, handler: h, access: access})
}

func PublicGET(path string, h echo.HandlerFunc)  { addRoute(Public, http.MethodGet, path, h) }
func PublicPOST(path string, h echo.HandlerFunc) { addRoute(Public, http.MethodPost, path, h) }

func CustomerGET(path string, h echo.HandlerFunc)  { addRoute(Customer, http.MethodGet, path, h) }
func CustomerPOST(path string, h echo.HandlerFunc) { addRoute(Customer, http.MethodPost, path, h) }

// ApiGET and friends register admin routes below AdminPrefix
func ApiGET(path string, h echo.HandlerFunc)    { addRoute(Admin, http.MethodGet, path, h) }
func ApiPOST(path string, h echo.HandlerFunc)   { addRoute(Admin, http.MethodPost, path, h) }
func ApiPUT(path string, h echo.HandlerFunc)    { addRoute(Admin, http.MethodPut, path, h) }
func ApiDELETE(path string, h echo.HandlerFunc) { addRoute(Admin, http.MethodDelete, path, h) }

type WebServer struct {
	root     *echo.Echo
	cfg      *config.AppConfig
	resolver PrincipalResolver
}

// NewWebServer builds the echo instance and mounts every registered route.
// appCtx is handed to handlers through AppContextKey.
func NewWebServer(cfg *config.AppConfig, resolver PrincipalResolver, appCtx interface{}) *WebServer {
	s := &WebServer{root: echo.New(), cfg: cfg, resolver: resolver}
	e := s.root
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.System.Debug
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", uploadLimitMiB(cfg))))

	if cfg.UsesDefaultSecret() {
		zap.L().Warn("web.secret is the built-in default; session cookies can be forged, set web.secret or STOREFRONT_WEB_SECRET",
			zap.String("namespace", "web"))
	}
	store := sessions.NewCookieStore([]byte(cfg.Web.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Web.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.Web.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})
	e.Use(s.loadPrincipal)

	if cfg.Storage.MediaURL != "" {
		e.Static(cfg.Storage.MediaURL, cfg.GetMediaDir())
	}

	admin := e.Group(AdminPrefix, RequireAdmin)
	routesMu.Lock()
	defer routesMu.Unlock()
	for _, r := range routes {
		switch r.access {
		case Public:
			e.Add(r.method, r.path, r.handler)
		case Customer:
			e.Add(r.method, r.path, r.handler, RequireCustomer)
		case Admin:
			admin.Add(r.method, r.path, r.handler)
		}
	}
	return s
}

func uploadLimitMiB(cfg *config.AppConfig) int {
	// room for several images plus form fields
	if cfg.Storage.MaxUploadMiB <= 0 {
		return 64
	}
	return cfg.Storage.MaxUploadMiB * 8
}

// Echo exposes the router, mainly for httptest
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	zap.S().Infof("Storefront web server listening on %s", addr)
	err := s.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func (s *WebServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		code := strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_"))
		_ = Fail(c, he.Code, code, msg, nil)
		return
	}
	_ = ErrorResponse(c, err)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("namespace", "http"),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			if v.Status >= http.StatusInternalServerError {
				zap.L().Error("request", fields...)
			} else {
				zap.L().Debug("request", fields...)
			}
			return nil
		},
	})
}

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 10 * time.Second
