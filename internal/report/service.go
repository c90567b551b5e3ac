package report

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
)

const recentLimit = 5

// CategorySales revenue is the sum of snapshot prices, not price times quantity
type CategorySales struct {
	CategoryID int64           `json:"category_id,string"`
	Category   string          `json:"category"`
	Revenue    decimal.Decimal `json:"revenue"`
	Orders     int64           `json:"orders"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

type Dashboard struct {
	Products         int64              `json:"products"`
	Orders           int64              `json:"orders"`
	PendingOrders    int64              `json:"pending_orders"`
	Customers        int64              `json:"customers"`
	DeliveredRevenue decimal.Decimal    `json:"delivered_revenue"`
	AverageOrder     decimal.Decimal    `json:"average_order"`
	RecentOrders     []domain.Order     `json:"recent_orders"`
	RecentFeedback   []domain.Feedback  `json:"recent_feedback"`
	RecentComplaints []domain.Complaint `json:"recent_complaints"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// sumPrices adds snapshot prices as decimals so every report rounds the same way
func sumPrices(prices ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total
}

type categoryLine struct {
	CategoryID int64
	Category   string
	Price      float64
}

// SalesByCategory totals delivered orders per category, biggest first
func (s *Service) SalesByCategory(ctx context.Context, who *auth.Principal) ([]CategorySales, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	var lines []categoryLine
	err := s.db.WithContext(ctx).Table("orders").
		Select("category.id AS category_id, category.name AS category, orders.price AS price").
		Joins("JOIN product ON product.id = orders.product_id").
		Joins("JOIN category ON category.id = product.category_id").
		Where("orders.status = ?", domain.OrderDelivered).
		Scan(&lines).Error
	if err != nil {
		return nil, errors.Wrap(err, "query sales by category")
	}

	byCategory := make(map[int64]*CategorySales)
	for _, l := range lines {
		row, ok := byCategory[l.CategoryID]
		if !ok {
			row = &CategorySales{CategoryID: l.CategoryID, Category: l.Category, Revenue: decimal.Zero}
			byCategory[l.CategoryID] = row
		}
		row.Revenue = row.Revenue.Add(sumPrices(l.Price))
		row.Orders++
	}
	rows := make([]CategorySales, 0, len(byCategory))
	for _, row := range byCategory {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Revenue.Cmp(rows[j].Revenue); c != 0 {
			return c > 0
		}
		return rows[i].Category < rows[j].Category
	})
	return rows, nil
}

// MonthlyRevenue buckets delivered orders by calendar month, oldest first
func (s *Service) MonthlyRevenue(ctx context.Context, who *auth.Principal) ([]MonthRevenue, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	var orders []domain.Order
	err := s.db.WithContext(ctx).Select("id", "price", "created_at").
		Where("status = ?", domain.OrderDelivered).
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query delivered orders")
	}

	buckets := make(map[string]*MonthRevenue)
	for _, o := range orders {
		key := o.CreatedAt.Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &MonthRevenue{Month: key, Revenue: decimal.Zero}
			buckets[key] = b
		}
		b.Revenue = b.Revenue.Add(sumPrices(o.Price))
		b.Orders++
	}
	result := make([]MonthRevenue, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

func (s *Service) Dashboard(ctx context.Context, who *auth.Principal) (*Dashboard, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	d := &Dashboard{DeliveredRevenue: decimal.Zero}

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&domain.Product{}), &d.Products},
		{db.Model(&domain.Order{}), &d.Orders},
		{db.Model(&domain.Order{}).Where("status = ?", domain.OrderPending), &d.PendingOrders},
		{db.Model(&domain.Customer{}), &d.Customers},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, errors.Wrap(err, "dashboard count")
		}
	}

	var prices []float64
	if err := db.Model(&domain.Order{}).Where("status = ?", domain.OrderDelivered).Pluck("price", &prices).Error; err != nil {
		return nil, errors.Wrap(err, "dashboard order values")
	}
	d.DeliveredRevenue = sumPrices(prices...)
	d.AverageOrder = decimal.Zero
	if mean, err := stats.Mean(prices); err == nil {
		d.AverageOrder = decimal.NewFromFloat(mean).Round(2)
	}

	if err := db.Preload("Customer").Preload("Product").Order("created_at DESC").Limit(recentLimit).Find(&d.RecentOrders).Error; err != nil {
		return nil, errors.Wrap(err, "recent orders")
	}
	if err := db.Preload("Customer").Order("created_at DESC").Limit(recentLimit).Find(&d.RecentFeedback).Error; err != nil {
		return nil, errors.Wrap(err, "recent feedback")
	}
	if err := db.Preload("Customer").Preload("Product").Order("created_at DESC").Limit(recentLimit).Find(&d.RecentComplaints).Error; err != nil {
		return nil, errors.Wrap(err, "recent complaints")
	}
	return d, nil
}
