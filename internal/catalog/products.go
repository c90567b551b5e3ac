package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diamondaura/storefront/internal/auth"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/pkg/common"
)

const relatedLimit = 4

// ProductFilter zero values match everything
type ProductFilter struct {
	CategoryID *int64
	Search     string
}

// ProductInput the editable product fields
type ProductInput struct {
	CategoryID  int64
	Name        string
	Description string
	Price       float64
	Carat       int
}

// ProductDetail a product page: the product and up to four of its neighbours
type ProductDetail struct {
	Product *domain.Product  `json:"product"`
	Related []domain.Product `json:"related"`
}

// ListProducts search matches name or description ignoring case
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := s.db.WithContext(ctx).Model(&domain.Product{}).Preload("Category").Preload("Images")
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		if strings.EqualFold(s.db.Name(), "postgres") {
			pattern := common.LikeContains(search)
			query = query.Where(`name ILIKE ? ESCAPE '\' OR description ILIKE ? ESCAPE '\'`, pattern, pattern)
		} else {
			pattern := common.LikeContains(strings.ToLower(search))
			query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
		}
	}
	var products []domain.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	for i := range products {
		s.fillImageURLs(&products[i])
	}
	return products, nil
}

// Featured newest products for the home page
func (s *Service) Featured(ctx context.Context, n int) ([]domain.Product, error) {
	if n <= 0 {
		n = 8
	}
	var products []domain.Product
	err := s.db.WithContext(ctx).Preload("Images").Order("created_at DESC").Limit(n).Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "query featured products")
	}
	for i := range products {
		s.fillImageURLs(&products[i])
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	var product domain.Product
	err := s.db.WithContext(ctx).Preload("Category").Preload("Images").Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "query product")
	}
	s.fillImageURLs(&product)

	related := make([]domain.Product, 0, relatedLimit)
	err = s.db.WithContext(ctx).Preload("Images").
		Where("category_id = ? AND id <> ?", product.CategoryID, product.ID).
		Order("created_at DESC").
		Limit(relatedLimit).
		Find(&related).Error
	if err != nil {
		return nil, errors.Wrap(err, "query related products")
	}
	for i := range related {
		s.fillImageURLs(&related[i])
	}
	return &ProductDetail{Product: &product, Related: related}, nil
}

func (s *Service) validateProduct(ctx context.Context, in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return domain.NewValidationError("name", "this field is required")
	}
	if in.Price < 0 {
		return domain.NewValidationError("price", "must not be negative")
	}
	if in.Carat < 0 {
		return domain.NewValidationError("carat", "must not be negative")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", in.CategoryID).Count(&count).Error; err != nil {
		return errors.Wrap(err, "query category")
	}
	if count == 0 {
		return domain.NewValidationError("category_id", "select a valid category")
	}
	return nil
}

// saveUploads stores files and their rows inside tx. Files written before a
// failure are returned so the caller can remove them.
func (s *Service) saveUploads(ctx context.Context, tx *gorm.DB, productID int64, uploads []Upload) ([]string, error) {
	var saved []string
	for _, up := range uploads {
		if s.files == nil {
			return saved, errors.New("image storage is not configured")
		}
		r, err := up.Open()
		if err != nil {
			return saved, errors.Wrap(err, "open upload")
		}
		ref, err := s.files.SaveProductImage(ctx, productID, up.Filename, r)
		_ = r.Close()
		if err != nil {
			return saved, domain.NewValidationError("images", err.Error())
		}
		saved = append(saved, ref)
		image := domain.ProductImage{ID: common.UUIDint64(), ProductID: productID, ImagePath: ref}
		if err := tx.Create(&image).Error; err != nil {
			return saved, errors.Wrap(err, "create product image")
		}
	}
	return saved, nil
}

func (s *Service) CreateProduct(ctx context.Context, who *auth.Principal, in ProductInput, uploads []Upload) (*domain.Product, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, err
	}
	product := &domain.Product{
		ID:          common.UUIDint64(),
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Carat:       in.Carat,
	}
	var saved []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return errors.Wrap(err, "create product")
		}
		var err error
		saved, err = s.saveUploads(ctx, tx, product.ID, uploads)
		return err
	})
	if err != nil {
		if s.files != nil {
			s.files.RemoveAll(saved)
		}
		return nil, err
	}
	zap.L().Info("product created",
		zap.String("namespace", "catalog"),
		zap.Int64("product_id", product.ID),
		zap.Int("images", len(saved)))
	detail, err := s.GetProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return detail.Product, nil
}

// UpdateProduct replaces the editable fields; uploads are added to the existing images
func (s *Service) UpdateProduct(ctx context.Context, who *auth.Principal, id int64, in ProductInput, uploads []Upload) (*domain.Product, error) {
	if err := auth.RequireAdmin(who); err != nil {
		return nil, err
	}
	if err := s.validateProduct(ctx, &in); err != nil {
		return nil, err
	}
	var saved []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
			"category_id": in.CategoryID,
			"name":        in.Name,
			"description": in.Description,
			"price":       in.Price,
			"carat":       in.Carat,
			"updated_at":  time.Now(),
		})
		if res.Error != nil {
			return errors.Wrap(res.Error, "update product")
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		var err error
		saved, err = s.saveUploads(ctx, tx, id, uploads)
		return err
	})
	if err != nil {
		if s.files != nil {
			s.files.RemoveAll(saved)
		}
		return nil, err
	}
	detail, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail.Product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, who *auth.Principal, id int64) error {
	if err := auth.RequireAdmin(who); err != nil {
		return err
	}
	var refs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return errors.Wrap(err, "query product")
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		var err error
		refs, err = deleteProductsTx(tx, []int64{id})
		return err
	})
	if err != nil {
		return err
	}
	if s.files != nil {
		s.files.RemoveAll(refs)
	}
	zap.L().Info("product deleted", zap.String("namespace", "catalog"), zap.Int64("product_id", id))
	return nil
}

// DeleteProductImage removes one image row and its file
func (s *Service) DeleteProductImage(ctx context.Context, who *auth.Principal, imageID int64) error {
	if err := auth.RequireAdmin(who); err != nil {
		return err
	}
	var image domain.ProductImage
	err := s.db.WithContext(ctx).Where("id = ?", imageID).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	} else if err != nil {
		return errors.Wrap(err, "query product image")
	}
	if err := s.db.WithContext(ctx).Where("id = ?", imageID).Delete(&domain.ProductImage{}).Error; err != nil {
		return errors.Wrap(err, "delete product image")
	}
	if s.files != nil {
		if err := s.files.Remove(image.ImagePath); err != nil {
			zap.L().Warn("failed to remove image file", zap.String("ref", image.ImagePath), zap.Error(err))
		}
	}
	return nil
}
