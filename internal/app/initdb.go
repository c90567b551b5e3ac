package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/diamondaura/storefront/internal/account"
)

// checkSuper makes sure the configured admin account exists and can log in
func (a *Application) checkSuper() {
	web := a.appConfig.Web
	err := a.accounts.EnsureAdmin(context.Background(), account.AdminSeed{
		Username: web.AdminUser,
		Password: web.AdminPassword,
		Email:    web.AdminEmail,
	})
	if err != nil {
		zap.L().Error("failed to ensure default admin", zap.String("username", web.AdminUser), zap.Error(err))
	}
}
