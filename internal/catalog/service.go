package catalog

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/domain"
)

// FileStore persists uploaded product images
type FileStore interface {
	SaveProductImage(ctx context.Context, productID int64, filename string, r io.Reader) (string, error)
	Remove(ref string) error
	RemoveAll(refs []string)
	URL(ref string) string
}

// Upload one image file attached to a product form
type Upload struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

type Service struct {
	db    *gorm.DB
	files FileStore
}

func NewService(db *gorm.DB, files FileStore) *Service {
	return &Service{db: db, files: files}
}

// deleteProductsTx removes products with their images, cart lines, orders,
// payments and complaints. The returned file references are removed by the
// caller once the transaction has committed.
func deleteProductsTx(tx *gorm.DB, productIDs []int64) ([]string, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var refs []string
	if err := tx.Model(&domain.ProductImage{}).Where("product_id IN ?", productIDs).Pluck("image_path", &refs).Error; err != nil {
		return nil, errors.Wrap(err, "query product images")
	}
	var orderIDs []int64
	if err := tx.Model(&domain.Order{}).Where("product_id IN ?", productIDs).Pluck("id", &orderIDs).Error; err != nil {
		return nil, errors.Wrap(err, "query product orders")
	}
	if len(orderIDs) > 0 {
		if err := tx.Where("order_id IN ?", orderIDs).Delete(&domain.Payment{}).Error; err != nil {
			return nil, errors.Wrap(err, "delete payments")
		}
	}
	for _, model := range []interface{}{&domain.Order{}, &domain.CartLine{}, &domain.Complaint{}, &domain.ProductImage{}} {
		if err := tx.Where("product_id IN ?", productIDs).Delete(model).Error; err != nil {
			return nil, errors.Wrapf(err, "delete %T", model)
		}
	}
	if err := tx.Where("id IN ?", productIDs).Delete(&domain.Product{}).Error; err != nil {
		return nil, errors.Wrap(err, "delete products")
	}
	return refs, nil
}

func (s *Service) fillImageURLs(products ...*domain.Product) {
	if s.files == nil {
		return
	}
	for _, p := range products {
		for i := range p.Images {
			p.Images[i].URL = s.files.URL(p.Images[i].ImagePath)
		}
	}
}
