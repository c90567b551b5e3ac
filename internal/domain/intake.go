package domain

import "time"

// Feedback free text sent by a customer
type Feedback struct {
	ID          int64     `json:"id,string"`
	CustomerID  int64     `gorm:"index" json:"customer_id,string"`
	Customer    *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Feedback) TableName() string {
	return "feedback"
}

// Complaint free text about a product
type Complaint struct {
	ID          int64     `json:"id,string"`
	CustomerID  int64     `gorm:"index" json:"customer_id,string"`
	Customer    *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID   int64     `gorm:"index" json:"product_id,string"`
	Product     *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// TableName Specify table name
func (Complaint) TableName() string {
	return "complaint"
}
