package webserver

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
)

const (
	SessionName  = "storefront_session"
	PrincipalKey = "principal"
	identityKey  = "identity_id"
)

// PrincipalResolver loads the principal for an identity stored in the session
type PrincipalResolver interface {
	Resolve(ctx context.Context, identityID int64) (*auth.Principal, error)
}

// CurrentPrincipal returns nil for anonymous requests
func CurrentPrincipal(c echo.Context) *auth.Principal {
	p, _ := c.Get(PrincipalKey).(*auth.Principal)
	return p
}

// SaveIdentity binds the session to p
func SaveIdentity(c echo.Context, p *auth.Principal) error {
	// a stale cookie still yields a fresh session to write into
	sess, err := session.Get(SessionName, c)
	if sess == nil {
		return errors.Wrap(err, "load session")
	}
	sess.Values = map[interface{}]interface{}{identityKey: p.IdentityID}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return errors.Wrap(err, "save session")
	}
	c.Set(PrincipalKey, p)
	return nil
}

// ClearSession logs the client out by expiring the cookie
func ClearSession(c echo.Context) error {
	c.Set(PrincipalKey, nil)
	sess, err := session.Get(SessionName, c)
	if sess == nil {
		return errors.Wrap(err, "load session")
	}
	sess.Values = map[interface{}]interface{}{}
	opts := sessions.Options{Path: "/"}
	if sess.Options != nil {
		opts = *sess.Options
	}
	opts.MaxAge = -1
	sess.Options = &opts
	return errors.Wrap(sess.Save(c.Request(), c.Response()), "clear session")
}

func (s *WebServer) loadPrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.resolver == nil {
			return next(c)
		}
		sess, err := session.Get(SessionName, c)
		if err != nil {
			return next(c)
		}
		raw, ok := sess.Values[identityKey]
		if !ok {
			return next(c)
		}
		identityID, err := cast.ToInt64E(raw)
		if err != nil || identityID == 0 {
			return next(c)
		}
		p, err := s.resolver.Resolve(c.Request().Context(), identityID)
		switch {
		case err == nil:
			c.Set(PrincipalKey, p)
		case errors.Is(err, domain.ErrUnauthenticated):
			// identity was deleted, treat the request as anonymous
		default:
			zap.L().Error("failed to resolve session principal", zap.Int64("identity_id", identityID), zap.Error(err))
		}
		return next(c)
	}
}

// RequireCustomer answers 401 unless a customer is signed in
func RequireCustomer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p := CurrentPrincipal(c)
		if p == nil {
			return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Please log in to continue", nil)
		}
		if !auth.IsCustomer(p) {
			return Fail(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied", nil)
		}
		return next(c)
	}
}

// RequireAdmin answers 403 unless an admin is signed in
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.IsAdmin(CurrentPrincipal(c)) {
			return Fail(c, http.StatusForbidden, "ACCESS_DENIED", "Access denied", nil)
		}
		return next(c)
	}
}
