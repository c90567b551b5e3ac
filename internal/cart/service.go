package cart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/pkg/common"
)

// View a customer's cart with totals computed at read time
type View struct {
	Lines     []domain.CartLine `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Total sums price times quantity of lines with a loaded product
func Total(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if line.Product == nil {
			continue
		}
		total = total.Add(decimal.NewFromFloat(line.Product.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// Add puts one more unit of the product in the cart
func (s *Service) Add(ctx context.Context, who *auth.Principal, productID int64) (*domain.CartLine, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&domain.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	if count == 0 {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	line := domain.CartLine{
		ID:         common.UUIDint64(),
		CustomerID: who.CustomerID,
		ProductID:  productID,
		Quantity:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("cart.quantity + 1"),
			"updated_at": now,
		}),
	}).Create(&line).Error
	if err != nil {
		return nil, errors.Wrap(err, "upsert cart line")
	}

	var stored domain.CartLine
	err = db.Preload("Product").
		Where("customer_id = ? AND product_id = ?", who.CustomerID, productID).
		First(&stored).Error
	if err != nil {
		return nil, errors.Wrap(err, "query cart line")
	}
	zap.L().Debug("cart line added",
		zap.String("namespace", "cart"),
		zap.Int64("customer_id", who.CustomerID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", stored.Quantity))
	return &stored, nil
}

// SetQuantity a quantity of zero or less removes the line
func (s *Service) SetQuantity(ctx context.Context, who *auth.Principal, lineID int64, qty int) error {
	if err := auth.RequireCustomer(who); err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	var res *gorm.DB
	if qty <= 0 {
		res = db.Where("id = ? AND customer_id = ?", lineID, who.CustomerID).Delete(&domain.CartLine{})
	} else {
		res = db.Model(&domain.CartLine{}).
			Where("id = ? AND customer_id = ?", lineID, who.CustomerID).
			Updates(map[string]interface{}{"quantity": qty, "updated_at": time.Now()})
	}
	if res.Error != nil {
		return errors.Wrap(res.Error, "update cart line")
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) Remove(ctx context.Context, who *auth.Principal, lineID int64) error {
	if err := auth.RequireCustomer(who); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND customer_id = ?", lineID, who.CustomerID).Delete(&domain.CartLine{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete cart line")
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) View(ctx context.Context, who *auth.Principal) (*View, error) {
	if err := auth.RequireCustomer(who); err != nil {
		return nil, err
	}
	var lines []domain.CartLine
	err := s.db.WithContext(ctx).Preload("Product").Preload("Product.Images").
		Where("customer_id = ?", who.CustomerID).
		Order("created_at").
		Find(&lines).Error
	if err != nil {
		return nil, errors.Wrap(err, "query cart")
	}
	view := &View{Lines: lines, Total: Total(lines)}
	for _, line := range lines {
		view.ItemCount += line.Quantity
	}
	return view, nil
}
