package domain

import "time"

// Category groups products; names are unique
type Category struct {
	ID        int64     `json:"id,string" form:"id"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name" form:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "category"
}

// Product a catalog item. Price is in main currency units, carat is a whole number.
type Product struct {
	ID          int64          `json:"id,string"`
	CategoryID  int64          `gorm:"index" json:"category_id,string"`
	Category    *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Name        string         `gorm:"size:100;index" json:"name"`
	Description string         `gorm:"size:500" json:"description"`
	Price       float64        `json:"price"`
	Carat       int            `json:"carat"`
	Images      []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "product"
}

// ProductImage points at a stored file, ImagePath is relative to the media root
type ProductImage struct {
	ID        int64     `json:"id,string"`
	ProductID int64     `gorm:"index" json:"product_id,string"`
	ImagePath string    `gorm:"size:512" json:"image_path"`
	URL       string    `gorm:"-" json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (ProductImage) TableName() string {
	return "product_image"
}
