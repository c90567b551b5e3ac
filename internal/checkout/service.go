package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/cart"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/notify"
	"github.com/diamondaura/storefront/pkg/common"
)

type CheckoutInput struct {
	PaymentMethod string
	// Address falls back to the customer's profile address when blank
	Address string
}

// OrderFilter a nil Status lists every order
type OrderFilter struct {
	Status *domain.OrderStatus
}

// Preview what the checkout page shows before the order is placed
type Preview struct {
	Lines          []domain.CartLine      `json:"lines"`
	Total          decimal.Decimal        `json:"total"`
	Address        string                 `json:"address"`
	PaymentMethods []domain.PaymentMethod `json:"payment_methods"`
}

// Result the orders created by one checkout
type Result struct {
	Orders []domain.Order       `json:"orders"`
	Total  decimal.Decimal      `json:"total"`
	Method domain.PaymentMethod `json:"payment_method"`
}

type Service struct {
	db     *gorm.DB
	events EventBus.Bus
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SetEventBus publishes order events on bus after each commit
func (s *Service) SetEventBus(bus EventBus.Bus) {
	s.events = bus
}

func (s *Service) publish(topic string, evt interface{}) {
	if s.events != nil {
		s.events.Publish(topic, evt)
	}
}

func (s *Service) customer(tx *gorm.DB, who *auth.Principal) (*domain.Customer, error) {
	var c domain.Customer
	err := tx.Where("id = ?", who.CustomerID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnauthenticated
	} else if err != nil {
		return nil, errors.Wrap(err, "query customer")
	}
	return &c, nil
}

func (s *Service) Preview(ctx context.Context, who *auth.Principal) (*Preview, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	c, err := s.customer(db, who)
	if err != nil {
		return nil, err
	}
	var lines []domain.CartLine
	if err := db.Preload("Product").Where("customer_id = ?", who.CustomerID).Order("created_at").Find(&lines).Error; err != nil {
		return nil, errors.Wrap(err, "query cart")
	}
	return &Preview{
		Lines:          lines,
		Total:          cart.Total(lines),
		Address:        c.Address,
		PaymentMethods: domain.PaymentMethods,
	}, nil
}

// Checkout turns every cart line into a Pending order with a payment record and
// empties the cart. Nothing is written unless every step succeeds.
func (s *Service) Checkout(ctx context.Context, who *auth.Principal, in CheckoutInput) (*Result, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	method, ok := domain.ParsePaymentMethod(in.PaymentMethod)
	if !ok {
		return nil, domain.NewValidationError("payment_method", "select a valid payment method")
	}

	result := &Result{Method: method}
	var buyer domain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.customer(tx, who)
		if err != nil {
			return err
		}
		buyer = *c
		address := strings.TrimSpace(in.Address)
		if address == "" {
			address = c.Address
		}

		var lines []domain.CartLine
		if err := tx.Preload("Product").Where("customer_id = ?", who.CustomerID).Order("created_at").Find(&lines).Error; err != nil {
			return errors.Wrap(err, "query cart")
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		now := time.Now()
		for _, line := range lines {
			if line.Product == nil {
				return errors.Errorf("cart line %d references a missing product", line.ID)
			}
			order := domain.Order{
				ID:          common.UUIDint64(),
				CustomerID:  who.CustomerID,
				ProductID:   line.ProductID,
				Name:        c.Name,
				Address:     address,
				Description: line.Product.Name,
				Price:       line.Product.Price,
				Quantity:    line.Quantity,
				Status:      domain.OrderPending,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&order).Error; err != nil {
				return errors.Wrap(err, "create order")
			}
			payment := domain.Payment{ID: common.UUIDint64(), OrderID: order.ID, Method: method, CreatedAt: now}
			if err := tx.Create(&payment).Error; err != nil {
				return errors.Wrap(err, "create payment")
			}
			result.Orders = append(result.Orders, order)
		}
		result.Total = cart.Total(lines)

		if err := tx.Where("customer_id = ?", who.CustomerID).Delete(&domain.CartLine{}).Error; err != nil {
			return errors.Wrap(err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("checkout completed",
		zap.String("namespace", "checkout"),
		zap.Int64("customer_id", who.CustomerID),
		zap.Int("orders", len(result.Orders)),
		zap.String("total", result.Total.String()),
		zap.String("payment_method", string(method)))
	s.publish(notify.TopicOrderPlaced, notify.OrderPlaced{
		CustomerID: buyer.ID,
		Name:       buyer.Name,
		Email:      buyer.Email,
		Orders:     result.Orders,
		Total:      result.Total,
		Method:     method,
	})
	return result, nil
}

// ListOrders the customer's own orders, newest first
func (s *Service) ListOrders(ctx context.Context, who *auth.Principal) ([]domain.Order, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	var orders []domain.Order
	err := s.db.WithContext(ctx).Preload("Product").Preload("Product.Images").
		Where("customer_id = ?", who.CustomerID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	return orders, nil
}

func (s *Service) ListAllOrders(ctx context.Context, who *auth.Principal, filter OrderFilter) ([]domain.Order, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Preload("Customer").Preload("Product")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	var orders []domain.Order
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	return orders, nil
}

// UpdateOrderStatus any status may move to any other status
func (s *Service) UpdateOrderStatus(ctx context.Context, who *auth.Principal, orderID int64, status string) (*domain.Order, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	st, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, domain.NewValidationError("status", "unknown order status")
	}
	db := s.db.WithContext(ctx)
	res := db.Model(&domain.Order{}).Where("id = ?", orderID).
		Updates(map[string]interface{}{"status": st, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	var order domain.Order
	if err := db.Preload("Customer").Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, errors.Wrap(err, "query order")
	}
	zap.L().Info("order status updated",
		zap.String("namespace", "checkout"),
		zap.Int64("order_id", orderID),
		zap.String("status", string(st)))
	if order.Customer != nil {
		s.publish(notify.TopicOrderStatusChanged, notify.OrderStatusChanged{
			Order: order,
			Name:  order.Customer.Name,
			Email: order.Customer.Email,
		})
	}
	return &order, nil
}
