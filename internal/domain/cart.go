package domain

import "time"

// CartLine one product in a customer's cart, unique per (customer, product)
type CartLine struct {
	ID         int64     `json:"id,string"`
	CustomerID int64     `gorm:"uniqueIndex:idx_cart_customer_product" json:"customer_id,string"`
	ProductID  int64     `gorm:"uniqueIndex:idx_cart_customer_product;index" json:"product_id,string"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (CartLine) TableName() string {
	return "cart"
}
