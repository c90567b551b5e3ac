package domain

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderAccepted  OrderStatus = "Accepted"
	OrderRejected  OrderStatus = "Rejected"
	OrderDelivered OrderStatus = "Delivered"
)

var OrderStatuses = []OrderStatus{OrderPending, OrderAccepted, OrderRejected, OrderDelivered}

// ParseOrderStatus matches a status name case-insensitively
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "COD"
	PaymentCard           PaymentMethod = "Card"
	PaymentUPI            PaymentMethod = "UPI"
	PaymentNetBanking     PaymentMethod = "NetBanking"
)

var PaymentMethods = []PaymentMethod{PaymentCashOnDelivery, PaymentCard, PaymentUPI, PaymentNetBanking}

// ParsePaymentMethod accepts the stored code or its long name, case-insensitively
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(v)
	switch v {
	case "cod", "cashondelivery":
		return PaymentCashOnDelivery, true
	case "card", "creditcard", "debitcard":
		return PaymentCard, true
	case "upi":
		return PaymentUPI, true
	case "netbanking":
		return PaymentNetBanking, true
	}
	return "", false
}

// Order a purchase snapshot taken at checkout; only Status changes afterwards
type Order struct {
	ID          int64       `json:"id,string"`
	CustomerID  int64       `gorm:"index" json:"customer_id,string"`
	Customer    *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID   int64       `gorm:"index" json:"product_id,string"`
	Product     *Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Name        string      `gorm:"size:100" json:"name"`
	Address     string      `gorm:"size:200" json:"address"`
	Description string      `gorm:"size:200" json:"description"`
	Price       float64     `json:"price"`
	Quantity    int         `json:"quantity"`
	Status      OrderStatus `gorm:"size:20;index" json:"status"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

// LineTotal price times quantity of the snapshot
func (o Order) LineTotal() float64 {
	return o.Price * float64(o.Quantity)
}

// Payment the payment choice recorded for an order
type Payment struct {
	ID        int64         `json:"id,string"`
	OrderID   int64         `gorm:"index" json:"order_id,string"`
	Method    PaymentMethod `gorm:"size:30" json:"method"`
	CreatedAt time.Time     `json:"created_at"`
}

// TableName Specify table name
func (Payment) TableName() string {
	return "payment"
}
