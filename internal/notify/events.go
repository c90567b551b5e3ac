package notify

import (
	"github.com/shopspring/decimal"

	"github.com/diamondaura/storefront/internal/domain"
)

// Event bus topics
const (
	TopicOrderPlaced        = "order:placed"
	TopicOrderStatusChanged = "order:status"
)

// OrderPlaced is published once per successful checkout
type OrderPlaced struct {
	CustomerID int64
	Name       string
	Email      string
	Orders     []domain.Order
	Total      decimal.Decimal
	Method     domain.PaymentMethod
}

// OrderStatusChanged is published after an admin moves an order
type OrderStatusChanged struct {
	Order domain.Order
	Name  string
	Email string
}
