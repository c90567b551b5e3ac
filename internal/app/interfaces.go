package app

import (
	"github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/config"
	"github.com/diamondaura/storefront/internal/account"
	"github.com/diamondaura/storefront/internal/cart"
	"github.com/diamondaura/storefront/internal/catalog"
	"github.com/diamondaura/storefront/internal/checkout"
	"github.com/diamondaura/storefront/internal/intake"
	"github.com/diamondaura/storefront/internal/report"
	"github.com/diamondaura/storefront/internal/storage"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// EventProvider provides the in-process event bus
type EventProvider interface {
	Events() EventBus.Bus
}

// ServiceProvider exposes the storefront services to handlers
type ServiceProvider interface {
	Accounts() *account.Service
	Catalog() *catalog.Service
	Cart() *cart.Service
	Checkout() *checkout.Service
	Intake() *intake.Service
	Reports() *report.Service
	Media() *storage.LocalStore
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	EventProvider
	ServiceProvider

	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
