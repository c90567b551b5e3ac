package domain

import "time"

// Role values stored on Identity
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Identity is a login account; exactly one of Admin or Customer references it
type Identity struct {
	ID        int64     `json:"id,string"`
	Username  string    `gorm:"size:150;uniqueIndex" json:"username"`
	Password  string    `gorm:"size:100" json:"-"`
	Role      string    `gorm:"size:16;index" json:"role"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Identity) TableName() string {
	return "identity"
}

// Admin back-office operator profile
type Admin struct {
	ID         int64     `json:"id,string"`
	IdentityID int64     `gorm:"uniqueIndex" json:"identity_id,string"`
	Email      string    `gorm:"size:100" json:"email"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Address    string    `gorm:"size:200" json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Admin) TableName() string {
	return "admin"
}

// Customer storefront shopper profile
type Customer struct {
	ID         int64     `json:"id,string"`
	IdentityID int64     `gorm:"uniqueIndex" json:"identity_id,string"`
	Identity   *Identity `gorm:"foreignKey:IdentityID" json:"identity,omitempty"`
	Name       string    `gorm:"size:100" json:"name"`
	Email      string    `gorm:"size:100" json:"email"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Address    string    `gorm:"size:200" json:"address"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Customer) TableName() string {
	return "customer"
}
